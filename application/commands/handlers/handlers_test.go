package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salesadmin/application/commands"
	"salesadmin/application/commands/bus"
	"salesadmin/application/ports/mocks"
	"salesadmin/application/services"
	"salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/validators"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/domain/events"
	"salesadmin/infrastructure/persistence/memory"
	pkgerrors "salesadmin/pkg/errors"
)

var layout = valueobjects.DefaultCatalogLayout()

type fixture struct {
	store     *memory.DocumentStore
	publisher *mocks.MockEventPublisher
	locker    *memory.Locker
	bus       *bus.CommandBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	store := memory.NewDocumentStore()
	ancestors := services.NewAncestorUpserter(store, layout)
	reader := services.NewCatalogReader(store, layout, nil, cfg, logger)
	products := services.NewProductService(store, layout, ancestors, reader, validators.NewProductValidator(cfg), 450, logger)
	importer := services.NewBulkImporter(store, layout, ancestors, 450, cfg, nil, logger)
	deleter := services.NewSubtreeDeleter(store, layout, 450, logger)
	migrator := services.NewFlatMigrator(store, layout, ancestors, cfg, nil, logger)

	publisher := new(mocks.MockEventPublisher)
	locker := memory.NewLocker()
	b := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, NewProductCommandHandlers(products, publisher, logger).Register(b))
	require.NoError(t, NewCatalogCommandHandlers(importer, deleter, migrator, products, reader, layout, publisher, locker, nil, logger).Register(b))

	return &fixture{store: store, publisher: publisher, locker: locker, bus: b}
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e events.DomainEvent) bool { return e.GetEventType() == eventType })
}

func draft() entities.ProductDraft {
	return entities.ProductDraft{Name: "C3", Company: "LG", Category: "TV", Subcategory: "OLED", Price: 1000, MinPrice: 800}
}

func TestAddProduct_PublishesCreated(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.On("Publish", ctx, eventOfType(events.TypeProductCreated)).Return(nil).Once()

	// Act
	result, err := f.bus.Dispatch(ctx, commands.AddProductCommand{Draft: draft()})

	// Assert
	require.NoError(t, err)
	product := result.(entities.Product)
	assert.Equal(t, float64(20), product.Discount)
	assert.Equal(t, 4, f.store.Len())
	f.publisher.AssertExpectations(t)
}

func TestAddProduct_PublishFailureDoesNotFailCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.On("Publish", ctx, mock.Anything).Return(assert.AnError)

	_, err := f.bus.Dispatch(ctx, commands.AddProductCommand{Draft: draft()})

	assert.NoError(t, err)
	assert.Equal(t, 4, f.store.Len())
}

func TestAddProduct_InvalidDraftNeverReachesStore(t *testing.T) {
	f := newFixture(t)
	d := draft()
	d.Company = ""

	_, err := f.bus.Dispatch(context.Background(), commands.AddProductCommand{Draft: d})

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 0, f.store.Len())
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestUpdateProduct_ReportsOldPathWhenMoved(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.On("Publish", ctx, eventOfType(events.TypeProductCreated)).Return(nil)
	added, err := f.bus.Dispatch(ctx, commands.AddProductCommand{Draft: draft()})
	require.NoError(t, err)
	product := added.(entities.Product)

	var published events.ProductUpdated
	f.publisher.On("Publish", ctx, eventOfType(events.TypeProductUpdated)).
		Run(func(args mock.Arguments) { published = args.Get(1).(events.ProductUpdated) }).
		Return(nil).Once()
	sub := "QNED"

	// Act
	_, err = f.bus.Dispatch(ctx, commands.UpdateProductCommand{
		Ref:   services.ProductRef{ID: product.ID},
		Patch: entities.ProductPatch{Subcategory: &sub},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, product.Path, published.OldPath)
	assert.Contains(t, published.Path, "/subcategories/QNED/")
}

func TestUpdateProduct_EmptyPatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.bus.Dispatch(context.Background(), commands.UpdateProductCommand{Ref: services.ProductRef{ID: "x"}})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDeleteProduct_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.bus.Dispatch(context.Background(), commands.DeleteProductCommand{Ref: services.ProductRef{ID: "missing"}})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestImportProducts_ClearReplacesCatalog(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)
	_, err := f.bus.Dispatch(ctx, commands.AddProductCommand{Draft: draft()})
	require.NoError(t, err)

	rows := []services.RawRow{
		{"Company": "LG", "Category": "TV", "Sub Category": "OLED", "Product Name": "P1", "Price": 10000, "Min Price": 8000},
		{"Company": "LG", "Category": "TV", "Sub Category": "LED", "Product Name": "P3", "Price": 5000, "Min Price": 4000},
	}

	// Act
	result, err := f.bus.Dispatch(ctx, commands.ImportProductsCommand{Rows: rows, Clear: true, Source: "prices.xlsx"})

	// Assert
	require.NoError(t, err)
	imported := result.(commands.ImportProductsResult)
	assert.Equal(t, 1, imported.Cleared)
	assert.Equal(t, 2, imported.Imported)
	f.publisher.AssertCalled(t, "Publish", ctx, eventOfType(events.TypeProductsImported))
}

func TestDeleteHierarchy_PublishesRoot(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.On("Publish", ctx, eventOfType(events.TypeProductCreated)).Return(nil)
	_, err := f.bus.Dispatch(ctx, commands.AddProductCommand{Draft: draft()})
	require.NoError(t, err)

	var published events.HierarchyDeleted
	f.publisher.On("Publish", ctx, eventOfType(events.TypeHierarchyDeleted)).
		Run(func(args mock.Arguments) { published = args.Get(1).(events.HierarchyDeleted) }).
		Return(nil).Once()

	// Act
	result, err := f.bus.Dispatch(ctx, commands.DeleteHierarchyCommand{Company: " LG ", Category: "TV"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.(commands.DeleteResult).Deleted, "category, subcategory and leaf")
	assert.Equal(t, "admin-data/root/products/LG/categories/TV", published.AggregateID)
	assert.Equal(t, 1, f.store.Len(), "the company stays")
}

func TestDeleteHierarchy_SubcategoryNeedsCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.bus.Dispatch(context.Background(), commands.DeleteHierarchyCommand{Company: "LG", Subcategory: "OLED"})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestMigrateFlatProducts_DryRunPublishesNothing(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, layout.ProductsRoot().Doc("abc123"), map[string]interface{}{
		"productName": "Old TV",
		"company":     "LG",
		"category":    "TV",
		"subcategory": "LED",
		"price":       100.0,
	}))

	// Act
	result, err := f.bus.Dispatch(ctx, commands.MigrateFlatProductsCommand{DryRun: true})

	// Assert
	require.NoError(t, err)
	migration := result.(services.MigrationResult)
	assert.Equal(t, 1, migration.Moved)
	assert.True(t, migration.DryRun)
	assert.Equal(t, 1, f.store.Len())
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestMigrateFlatProducts_PublishesResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, layout.ProductsRoot().Doc("abc123"), map[string]interface{}{
		"productName": "Old TV", "company": "LG", "category": "TV", "subcategory": "LED", "price": 100.0,
	}))
	f.publisher.On("Publish", ctx, eventOfType(events.TypeFlatProductsMigrated)).Return(nil).Once()

	result, err := f.bus.Dispatch(ctx, commands.MigrateFlatProductsCommand{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.(services.MigrationResult).Moved)
	f.publisher.AssertExpectations(t)
}

func TestBulkJobs_RejectedWhileAnotherRuns(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.locker.Acquire(ctx, bulkLock, "other", time.Minute)
	require.NoError(t, err)

	// Act
	_, importErr := f.bus.Dispatch(ctx, commands.ImportProductsCommand{Rows: []services.RawRow{{"Company": "LG"}}})
	_, migrateErr := f.bus.Dispatch(ctx, commands.MigrateFlatProductsCommand{})
	_, dryErr := f.bus.Dispatch(ctx, commands.MigrateFlatProductsCommand{DryRun: true})

	// Assert
	assert.True(t, pkgerrors.IsConflict(importErr))
	assert.True(t, pkgerrors.IsConflict(migrateErr))
	assert.NoError(t, dryErr, "dry runs write nothing and skip the lock")
	assert.Equal(t, 0, f.store.Len())
}

func TestBulkJobs_ReleaseLockWhenDone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	_, err := f.bus.Dispatch(ctx, commands.MigrateFlatProductsCommand{})
	require.NoError(t, err)

	lease, err := f.locker.Acquire(ctx, bulkLock, "next", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, lease)
}
