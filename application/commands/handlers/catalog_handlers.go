package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salesadmin/application/commands"
	"salesadmin/application/commands/bus"
	"salesadmin/application/ports"
	"salesadmin/application/services"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/domain/events"
	"salesadmin/pkg/errors"
	"salesadmin/pkg/observability"
)

// CatalogCommandHandlers handles the bulk catalog operations: imports,
// hierarchy deletes and the flat product migration
type CatalogCommandHandlers struct {
	importer  *services.BulkImporter
	deleter   *services.SubtreeDeleter
	migrator  *services.FlatMigrator
	products  *services.ProductService
	reader    *services.CatalogReader
	layout    valueobjects.CatalogLayout
	publisher ports.EventPublisher
	locker    ports.Locker
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// bulkLock is shared by imports and migrations; both rewrite large parts of
// the tree
const (
	bulkLock    = "catalog-bulk"
	bulkLockTTL = 15 * time.Minute
)

// NewCatalogCommandHandlers creates the catalog command handlers
func NewCatalogCommandHandlers(
	importer *services.BulkImporter,
	deleter *services.SubtreeDeleter,
	migrator *services.FlatMigrator,
	products *services.ProductService,
	reader *services.CatalogReader,
	layout valueobjects.CatalogLayout,
	publisher ports.EventPublisher,
	locker ports.Locker,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CatalogCommandHandlers {
	return &CatalogCommandHandlers{
		importer:  importer,
		deleter:   deleter,
		migrator:  migrator,
		products:  products,
		reader:    reader,
		layout:    layout,
		publisher: publisher,
		locker:    locker,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Register binds every catalog command to the bus
func (h *CatalogCommandHandlers) Register(b *bus.CommandBus) error {
	if err := b.Register(commands.ImportProductsCommand{}, bus.Typed(h.HandleImport)); err != nil {
		return err
	}
	if err := b.Register(commands.DeleteHierarchyCommand{}, bus.Typed(h.HandleDeleteHierarchy)); err != nil {
		return err
	}
	return b.Register(commands.MigrateFlatProductsCommand{}, bus.Typed(h.HandleMigrate))
}

// HandleImport executes the import products command
func (h *CatalogCommandHandlers) HandleImport(ctx context.Context, cmd commands.ImportProductsCommand) (commands.ImportProductsResult, error) {
	var result commands.ImportProductsResult

	release, err := h.lock(ctx, "import")
	if err != nil {
		return result, err
	}
	defer release()

	if cmd.Clear {
		cleared, err := h.products.DeleteAll(ctx)
		result.Cleared = cleared
		if err != nil {
			return result, errors.Wrap(err, "failed to clear products before import")
		}
	}

	imported, err := h.importer.Import(ctx, cmd.Rows)
	result.ImportResult = imported
	if imported.Imported > 0 {
		h.reader.Invalidate(ctx)
		h.metrics.RecordBusinessMetric(ctx, "ProductsImported", float64(imported.Imported), nil)
	}
	if err != nil {
		return result, err
	}

	publish(ctx, h.publisher, h.logger, events.NewProductsImported(imported.Imported, cmd.Source, h.now()))
	h.logger.Info("Products imported",
		zap.String("source", cmd.Source),
		zap.Int("imported", imported.Imported),
		zap.Int("skipped", imported.Skipped),
		zap.Int("cleared", result.Cleared),
	)
	return result, nil
}

// HandleDeleteHierarchy executes the delete hierarchy command
func (h *CatalogCommandHandlers) HandleDeleteHierarchy(ctx context.Context, cmd commands.DeleteHierarchyCommand) (commands.DeleteResult, error) {
	target := cmd.Target()
	deleted, err := h.deleter.DeleteSubtree(ctx, target)
	if deleted > 0 {
		h.reader.Invalidate(ctx)
	}
	if err != nil {
		return commands.DeleteResult{Deleted: deleted}, err
	}

	publish(ctx, h.publisher, h.logger, events.NewHierarchyDeleted(
		h.rootOf(target).String(), target.Company, target.Category, target.Subcategory, deleted, h.now()))
	return commands.DeleteResult{Deleted: deleted}, nil
}

// HandleMigrate executes the flat products migration command
func (h *CatalogCommandHandlers) HandleMigrate(ctx context.Context, cmd commands.MigrateFlatProductsCommand) (services.MigrationResult, error) {
	if cmd.DryRun {
		return h.migrator.Migrate(ctx, true)
	}

	release, err := h.lock(ctx, "migrate")
	if err != nil {
		return services.MigrationResult{}, err
	}
	defer release()

	result, err := h.migrator.Migrate(ctx, false)

	if result.Moved > 0 {
		h.reader.Invalidate(ctx)
		h.metrics.RecordBusinessMetric(ctx, "FlatProductsMigrated", float64(result.Moved), nil)
	}
	if err != nil {
		return result, err
	}

	publish(ctx, h.publisher, h.logger, events.NewFlatProductsMigrated(result.Moved, result.Skipped, h.now()))
	return result, nil
}

// lock takes the bulk lease. Without a locker bulk jobs run unguarded.
func (h *CatalogCommandHandlers) lock(ctx context.Context, job string) (func(), error) {
	if h.locker == nil {
		return func() {}, nil
	}

	lease, err := h.locker.Acquire(ctx, bulkLock, job, bulkLockTTL)
	if err != nil {
		if errors.IsConflict(err) {
			return nil, errors.NewConflictError("another bulk catalog job is running").
				WithCode("BULK_JOB_RUNNING").
				WithCause(err)
		}
		return nil, err
	}

	return func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn("Failed to release bulk lock", zap.String("job", job), zap.Error(err))
		}
	}, nil
}

func (h *CatalogCommandHandlers) rootOf(target services.SubtreeTarget) valueobjects.DocPath {
	seg := valueobjects.ResolvePath(target.Company, target.Category, target.Subcategory)
	switch target.Level() {
	case "subcategory":
		return h.layout.SubcategoryDoc(seg)
	case "category":
		return h.layout.CategoryDoc(seg.Company, seg.Category)
	default:
		return h.layout.CompanyDoc(seg.Company)
	}
}
