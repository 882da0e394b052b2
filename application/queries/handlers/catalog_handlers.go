package handlers

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"salesadmin/application/queries"
	"salesadmin/application/queries/bus"
	"salesadmin/application/services"
	"salesadmin/domain/core/entities"
)

// CatalogQueryHandlers serves catalog reads
type CatalogQueryHandlers struct {
	reader   *services.CatalogReader
	products *services.ProductService
	logger   *zap.Logger
}

// NewCatalogQueryHandlers creates the catalog query handlers
func NewCatalogQueryHandlers(reader *services.CatalogReader, products *services.ProductService, logger *zap.Logger) *CatalogQueryHandlers {
	return &CatalogQueryHandlers{
		reader:   reader,
		products: products,
		logger:   logger,
	}
}

// Register binds every catalog query to the bus
func (h *CatalogQueryHandlers) Register(b *bus.QueryBus) error {
	if err := b.Register(queries.FetchProductsQuery{}, bus.Typed(h.HandleFetchProducts)); err != nil {
		return err
	}
	if err := b.Register(queries.GetProductQuery{}, bus.Typed(h.HandleGetProduct)); err != nil {
		return err
	}
	return b.Register(queries.ListHierarchyQuery{}, bus.Typed(h.HandleListHierarchy))
}

// HandleFetchProducts returns every classified product leaf
func (h *CatalogQueryHandlers) HandleFetchProducts(ctx context.Context, q queries.FetchProductsQuery) (queries.FetchProductsResult, error) {
	products, err := h.reader.FetchProducts(ctx, q.IncludeLegacy)
	if err != nil {
		return queries.FetchProductsResult{}, err
	}
	if products == nil {
		products = []entities.Product{}
	}
	return queries.FetchProductsResult{Products: products, Count: len(products)}, nil
}

// HandleGetProduct returns one product
func (h *CatalogQueryHandlers) HandleGetProduct(ctx context.Context, q queries.GetProductQuery) (entities.Product, error) {
	return h.products.Get(ctx, q.Ref)
}

// HandleListHierarchy returns one level of containers
func (h *CatalogQueryHandlers) HandleListHierarchy(ctx context.Context, q queries.ListHierarchyQuery) (queries.ListHierarchyResult, error) {
	nodes, err := h.reader.ListHierarchy(ctx, q.Company, q.Category)
	if err != nil {
		return queries.ListHierarchyResult{}, err
	}
	if nodes == nil {
		nodes = []services.HierarchyNode{}
	}
	return queries.ListHierarchyResult{Level: levelOf(q), Nodes: nodes}, nil
}

func levelOf(q queries.ListHierarchyQuery) string {
	switch {
	case strings.TrimSpace(q.Company) == "":
		return "company"
	case strings.TrimSpace(q.Category) == "":
		return "category"
	default:
		return "subcategory"
	}
}
