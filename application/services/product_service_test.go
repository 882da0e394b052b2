package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/validators"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/infrastructure/persistence/memory"
	pkgerrors "salesadmin/pkg/errors"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestProductService(store *memory.DocumentStore) *ProductService {
	cfg := config.DefaultDomainConfig()
	reader := NewCatalogReader(store, testLayout, nil, cfg, zap.NewNop())
	svc := NewProductService(store, testLayout, NewAncestorUpserter(store, testLayout), reader,
		validators.NewProductValidator(cfg), 450, zap.NewNop())
	ids := []string{"p1", "p2", "p3", "p4"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func tvDraft() entities.ProductDraft {
	return entities.ProductDraft{
		Name:        "C3",
		Company:     " LG ",
		Category:    "TV",
		Subcategory: "OLED",
		Price:       1000,
		MinPrice:    800,
		Incentive:   25,
	}
}

func TestProductService_Add(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewDocumentStore()
	svc := newTestProductService(store)

	// Act
	product, err := svc.Add(ctx, tvDraft())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, "admin-data/root/products/LG/categories/TV/subcategories/OLED/products/p1", product.Path)
	assert.Equal(t, float64(20), product.Discount)
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, 1, store.CommitCount(), "containers and leaf share one batch")

	leaf, err := store.Get(ctx, testLayout.LeafDoc(valueobjects.ResolvePath("LG", "TV", "OLED"), "p1"))
	require.NoError(t, err)
	assert.Equal(t, "C3", leaf.Data["productName"])
	assert.Equal(t, entities.FormatTime(fixedNow), leaf.Data["createdAt"])
}

func TestProductService_AddValidationWritesNothing(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := newTestProductService(store)
	draft := tvDraft()
	draft.Subcategory = " "

	_, err := svc.Add(context.Background(), draft)

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 0, store.Len())
}

func TestProductService_UpdateRecomputesDiscount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	svc := newTestProductService(store)
	added, err := svc.Add(ctx, tvDraft())
	require.NoError(t, err)
	price := 2000.0

	updated, err := svc.Update(ctx, ProductRef{Path: added.Path}, entities.ProductPatch{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, float64(60), updated.Discount)
	assert.Equal(t, added.Path, updated.Path)
	reloaded, err := svc.Get(ctx, ProductRef{ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, float64(2000), reloaded.Price)
	assert.Equal(t, float64(60), reloaded.Discount)
}

func TestProductService_UpdateRelocatesLeaf(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	svc := newTestProductService(store)
	added, err := svc.Add(ctx, tvDraft())
	require.NoError(t, err)
	sub := "QNED"

	updated, err := svc.Update(ctx, ProductRef{ID: added.ID}, entities.ProductPatch{Subcategory: &sub})

	require.NoError(t, err)
	assert.Equal(t, "admin-data/root/products/LG/categories/TV/subcategories/QNED/products/p1", updated.Path)
	_, err = store.Get(ctx, valueobjects.MustDocPath(splitPath(added.Path)...))
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Len(t, leaves(t, store), 1)
	_, err = store.Get(ctx, testLayout.SubcategoryDoc(valueobjects.ResolvePath("LG", "TV", "QNED")))
	assert.NoError(t, err)
}

func TestProductService_UpdateRejectsMinAbovePrice(t *testing.T) {
	ctx := context.Background()
	svc := newTestProductService(memory.NewDocumentStore())
	added, err := svc.Add(ctx, tvDraft())
	require.NoError(t, err)
	minPrice := 5000.0

	_, err = svc.Update(ctx, ProductRef{Path: added.Path}, entities.ProductPatch{MinPrice: &minPrice})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestProductService_UpdateRejectsBadSegments(t *testing.T) {
	tests := []struct {
		name  string
		patch func(v string) entities.ProductPatch
		value string
	}{
		{"slash in subcategory", func(v string) entities.ProductPatch { return entities.ProductPatch{Subcategory: &v} }, "OLED/4K"},
		{"slash in company", func(v string) entities.ProductPatch { return entities.ProductPatch{Company: &v} }, "LG/Korea"},
		{"blank company", func(v string) entities.ProductPatch { return entities.ProductPatch{Company: &v} }, ""},
		{"blank category", func(v string) entities.ProductPatch { return entities.ProductPatch{Category: &v} }, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			store := memory.NewDocumentStore()
			svc := newTestProductService(store)
			added, err := svc.Add(ctx, tvDraft())
			require.NoError(t, err)

			// Act
			_, err = svc.Update(ctx, ProductRef{ID: added.ID}, tt.patch(tt.value))

			// Assert
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Equal(t, 4, store.Len())
			reloaded, err := svc.Get(ctx, ProductRef{ID: added.ID})
			require.NoError(t, err)
			assert.Equal(t, added.Path, reloaded.Path)
			assert.Len(t, leaves(t, store), 1)
		})
	}
}

func TestProductService_DeleteByIDAndPath(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	svc := newTestProductService(store)
	first, err := svc.Add(ctx, tvDraft())
	require.NoError(t, err)
	_, err = svc.Add(ctx, tvDraft())
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, ProductRef{ID: "p2"})
	require.NoError(t, err)
	assert.Equal(t, "p2", deleted.ID)

	_, err = svc.Delete(ctx, ProductRef{Path: first.Path})
	require.NoError(t, err)

	assert.Empty(t, leaves(t, store))
	_, err = svc.Delete(ctx, ProductRef{ID: "p1"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProductService_AmbiguousIDIsConflict(t *testing.T) {
	store := memory.NewDocumentStore()
	seedLeaf(t, store, "LG", "TV", "OLED", "dup", 100)
	seedLeaf(t, store, "Sony", "TV", "OLED", "dup", 200)
	svc := newTestProductService(store)

	_, err := svc.Delete(context.Background(), ProductRef{ID: "dup"})

	assert.True(t, pkgerrors.IsConflict(err))
	assert.Len(t, leaves(t, store), 2)
}

func TestProductService_RefValidation(t *testing.T) {
	svc := newTestProductService(memory.NewDocumentStore())

	_, err := svc.Get(context.Background(), ProductRef{})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.Get(context.Background(), ProductRef{Path: "admin-data/root/products/LG"})
	assert.True(t, pkgerrors.IsValidation(err), "a company path is not a product")
}

func TestProductService_DeleteAll(t *testing.T) {
	ctx := context.Background()
	store := seedCatalog(t)
	require.NoError(t, store.Set(ctx, testLayout.ProductsRoot().Doc("flat1"), map[string]interface{}{"price": 1.0}))
	svc := newTestProductService(store)
	svc.maxBatchOps = 2

	deleted, err := svc.DeleteAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 5, deleted)
	assert.Empty(t, leaves(t, store))
	_, err = store.Get(ctx, testLayout.ProductsRoot().Doc("flat1"))
	assert.NoError(t, err, "legacy flat documents are not leaves")
	assert.Len(t, scan(t, store, valueobjects.CollectionSubcategories), 4)
}

func splitPath(p string) []string {
	path, _ := valueobjects.ParseDocPath(p)
	return path.Segments()
}
