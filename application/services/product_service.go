package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/validators"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

// ProductRef addresses a product by full path or, failing that, by id
type ProductRef struct {
	Path string `json:"path,omitempty"`
	ID   string `json:"id,omitempty"`
}

// Validate requires exactly one way of addressing the product
func (r ProductRef) Validate() error {
	path, id := strings.TrimSpace(r.Path), strings.TrimSpace(r.ID)
	if path == "" && id == "" {
		return errors.NewValidationError("product path or id is required")
	}
	if path != "" && id != "" {
		return errors.NewValidationError("give either a product path or an id, not both")
	}
	return nil
}

// ProductService owns interactive product writes. Every write drops the
// cached product listings.
type ProductService struct {
	store       ports.DocumentStore
	layout      valueobjects.CatalogLayout
	ancestors   *AncestorUpserter
	reader      *CatalogReader
	validator   *validators.ProductValidator
	maxBatchOps int
	logger      *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewProductService creates a new product service
func NewProductService(
	store ports.DocumentStore,
	layout valueobjects.CatalogLayout,
	ancestors *AncestorUpserter,
	reader *CatalogReader,
	validator *validators.ProductValidator,
	maxBatchOps int,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		store:       store,
		layout:      layout,
		ancestors:   ancestors,
		reader:      reader,
		validator:   validator,
		maxBatchOps: maxBatchOps,
		logger:      logger,
		newID:       func() string { return uuid.New().String() },
		now:         time.Now,
	}
}

// Add validates the draft, then writes the three containers and the new
// leaf in one batch
func (s *ProductService) Add(ctx context.Context, draft entities.ProductDraft) (entities.Product, error) {
	if err := s.validator.ValidateDraft(draft); err != nil {
		return entities.Product{}, err
	}

	seg := valueobjects.ResolvePath(draft.Company, draft.Category, draft.Subcategory)
	product := entities.NewProduct(s.newID(), draft, seg, s.now().UTC())
	path := s.layout.LeafDoc(seg, product.ID)
	product.Path = path.String()

	batch := s.store.NewBatch()
	s.ancestors.Stage(batch, seg)
	batch.Set(path, product.Fields())
	if err := batch.Commit(ctx); err != nil {
		return entities.Product{}, fmt.Errorf("failed to add product: %w", err)
	}
	s.reader.Invalidate(ctx)

	s.logger.Info("Product added",
		zap.String("id", product.ID),
		zap.String("path", product.Path),
	)
	return product, nil
}

// Get loads and normalizes one product
func (s *ProductService) Get(ctx context.Context, ref ProductRef) (entities.Product, error) {
	doc, err := s.locate(ctx, ref)
	if err != nil {
		return entities.Product{}, err
	}
	return entities.NormalizeProduct(doc.Path, doc.Data), nil
}

// Update applies a partial patch and recomputes the discount. When the
// company, category or subcategory changes the leaf moves to its new
// place under the same id, in one batch with its new containers.
func (s *ProductService) Update(ctx context.Context, ref ProductRef, patch entities.ProductPatch) (entities.Product, error) {
	product, _, err := s.UpdateWithOrigin(ctx, ref, patch)
	return product, err
}

// UpdateWithOrigin is Update that also reports the path the product had
// before the patch
func (s *ProductService) UpdateWithOrigin(ctx context.Context, ref ProductRef, patch entities.ProductPatch) (entities.Product, string, error) {
	if patch.IsEmpty() {
		return entities.Product{}, "", errors.NewValidationError("nothing to update")
	}

	doc, err := s.locate(ctx, ref)
	if err != nil {
		return entities.Product{}, "", err
	}
	origin := doc.Path.String()

	product := entities.NormalizeProduct(doc.Path, doc.Data)
	moved := product.ApplyPatch(patch, s.now().UTC())
	if err := s.validator.ValidateUpdated(product, patch); err != nil {
		return entities.Product{}, "", err
	}

	if !moved {
		if err := s.store.SetMerge(ctx, doc.Path, updatedFields(product)); err != nil {
			return entities.Product{}, "", fmt.Errorf("failed to update product: %w", err)
		}
		s.reader.Invalidate(ctx)
		s.logger.Info("Product updated", zap.String("path", product.Path))
		return product, origin, nil
	}

	seg := product.Segments()
	target := s.layout.LeafDoc(seg, product.ID)

	fields := make(map[string]interface{}, len(doc.Data))
	for k, v := range doc.Data {
		fields[k] = v
	}
	for k, v := range updatedFields(product) {
		fields[k] = v
	}

	batch := s.store.NewBatch()
	s.ancestors.Stage(batch, seg)
	batch.Set(target, fields)
	batch.Delete(doc.Path)
	if err := batch.Commit(ctx); err != nil {
		return entities.Product{}, "", fmt.Errorf("failed to move product: %w", err)
	}
	s.reader.Invalidate(ctx)

	s.logger.Info("Product moved",
		zap.String("from", doc.Path.String()),
		zap.String("to", target.String()),
	)
	product.Path = target.String()
	return product, origin, nil
}

// Delete removes one product and returns what was deleted
func (s *ProductService) Delete(ctx context.Context, ref ProductRef) (entities.Product, error) {
	doc, err := s.locate(ctx, ref)
	if err != nil {
		return entities.Product{}, err
	}

	if err := s.store.Delete(ctx, doc.Path); err != nil {
		return entities.Product{}, fmt.Errorf("failed to delete product: %w", err)
	}
	s.reader.Invalidate(ctx)

	s.logger.Info("Product deleted", zap.String("path", doc.Path.String()))
	return entities.NormalizeProduct(doc.Path, doc.Data), nil
}

// DeleteAll removes every product leaf in the tree and reports how many
// went. Containers and legacy flat documents are left alone.
func (s *ProductService) DeleteAll(ctx context.Context) (int, error) {
	docs, err := s.store.DeepScan(ctx, valueobjects.CollectionProducts)
	if err != nil {
		return 0, fmt.Errorf("failed to scan products: %w", err)
	}

	var paths []valueobjects.DocPath
	for _, doc := range docs {
		if entities.IsProductLeaf(doc.Path.String(), doc.Data) {
			paths = append(paths, doc.Path)
		}
	}

	deleted, err := deleteInChunks(ctx, s.store, paths, s.maxBatchOps)
	if deleted > 0 {
		s.reader.Invalidate(ctx)
	}
	if err != nil {
		s.logger.Error("Delete all products stopped", zap.Int("deleted", deleted), zap.Error(err))
		return deleted, err
	}

	s.logger.Info("All products deleted", zap.Int("deleted", deleted))
	return deleted, nil
}

// updatedFields always carries mrp so clearing it to 0 sticks under a merge
func updatedFields(p entities.Product) map[string]interface{} {
	fields := p.Fields()
	fields[entities.FieldMRP] = p.MRP
	return fields
}

func (s *ProductService) locate(ctx context.Context, ref ProductRef) (ports.Document, error) {
	if err := ref.Validate(); err != nil {
		return ports.Document{}, err
	}
	if path := strings.TrimSpace(ref.Path); path != "" {
		return s.reader.FindProductByPath(ctx, path)
	}
	return s.reader.FindProductByID(ctx, ref.ID)
}
