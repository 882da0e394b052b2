package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

const productsCacheKey = "catalog:products"

func productsCacheKeyFor(includeLegacy bool) string {
	if includeLegacy {
		return productsCacheKey + ":legacy"
	}
	return productsCacheKey
}

// HierarchyNode is a container document in the catalog tree
type HierarchyNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Level string `json:"level"`
}

// CatalogReader serves the read side of the catalog
type CatalogReader struct {
	store    ports.DocumentStore
	layout   valueobjects.CatalogLayout
	cache    ports.Cache
	cacheTTL time.Duration
	config   *config.DomainConfig
	logger   *zap.Logger
}

// NewCatalogReader creates a new catalog reader. A nil cache or a zero TTL
// disables caching.
func NewCatalogReader(
	store ports.DocumentStore,
	layout valueobjects.CatalogLayout,
	cache ports.Cache,
	domainConfig *config.DomainConfig,
	logger *zap.Logger,
) *CatalogReader {
	return &CatalogReader{
		store:    store,
		layout:   layout,
		cache:    cache,
		cacheTTL: domainConfig.ProductsCacheTTL,
		config:   domainConfig,
		logger:   logger,
	}
}

// FetchProducts deep-scans every "products" collection and keeps only real
// leaves, normalized. With includeLegacy, product-like documents still in
// the flat collection are returned too, flagged as legacy.
func (r *CatalogReader) FetchProducts(ctx context.Context, includeLegacy bool) ([]entities.Product, error) {
	key := productsCacheKeyFor(includeLegacy)
	if r.cachingEnabled() {
		if cached, ok := r.cache.Get(ctx, key); ok {
			if products, ok := cached.([]entities.Product); ok {
				return products, nil
			}
		}
	}

	docs, err := r.store.DeepScan(ctx, valueobjects.CollectionProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	products := make([]entities.Product, 0, len(docs))
	containers := 0
	for _, doc := range docs {
		switch {
		case entities.IsProductLeaf(doc.Path.String(), doc.Data):
			products = append(products, entities.NormalizeProduct(doc.Path, doc.Data))
		case includeLegacy && r.layout.IsFlatProductPath(doc.Path) &&
			entities.LooksLikeProduct(doc.Data, r.config.LegacyIndicatorFields):
			products = append(products, entities.NormalizeProduct(doc.Path, doc.Data))
		default:
			containers++
		}
	}

	r.logger.Debug("Products fetched",
		zap.Int("scanned", len(docs)),
		zap.Int("products", len(products)),
		zap.Int("ignored", containers),
	)

	if r.cachingEnabled() {
		if err := r.cache.Set(ctx, key, products, int(r.cacheTTL.Seconds())); err != nil {
			r.logger.Warn("Failed to cache products", zap.Error(err))
		}
	}
	return products, nil
}

// FindProductByID looks a product up by id across the whole tree. An id
// shared by more than one leaf is a conflict.
func (r *CatalogReader) FindProductByID(ctx context.Context, id string) (ports.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ports.Document{}, errors.NewValidationError("product id is required")
	}

	docs, err := r.store.DeepScan(ctx, valueobjects.CollectionProducts)
	if err != nil {
		return ports.Document{}, fmt.Errorf("failed to scan products: %w", err)
	}

	var matches []ports.Document
	for _, doc := range docs {
		if doc.ID() == id && entities.IsProductLeaf(doc.Path.String(), doc.Data) {
			matches = append(matches, doc)
		}
	}

	switch len(matches) {
	case 0:
		return ports.Document{}, errors.NewNotFoundError("product").WithDetail("id", id)
	case 1:
		return matches[0], nil
	default:
		paths := make([]string, len(matches))
		for i, m := range matches {
			paths[i] = m.Path.String()
		}
		return ports.Document{}, errors.NewConflictError(
			fmt.Sprintf("product id %q matches %d products; address it by path", id, len(matches))).
			WithDetail("paths", paths)
	}
}

// FindProductByPath loads a leaf by its full path
func (r *CatalogReader) FindProductByPath(ctx context.Context, rawPath string) (ports.Document, error) {
	path, err := valueobjects.ParseDocPath(rawPath)
	if err != nil {
		return ports.Document{}, errors.NewValidationError(fmt.Sprintf("invalid product path: %v", err))
	}
	if _, ok := r.layout.SegmentsOfLeaf(path); !ok {
		return ports.Document{}, errors.NewValidationError("path does not address a product").WithDetail("path", rawPath)
	}

	doc, err := r.store.Get(ctx, path)
	if err != nil {
		return ports.Document{}, err
	}
	return doc, nil
}

// ListHierarchy lists the containers one level below the given names:
// companies, the categories of a company, or the subcategories of a
// category.
func (r *CatalogReader) ListHierarchy(ctx context.Context, company, category string) ([]HierarchyNode, error) {
	company, category = strings.TrimSpace(company), strings.TrimSpace(category)

	var (
		collection valueobjects.CollectionPath
		level      string
	)
	switch {
	case company == "" && category != "":
		return nil, errors.NewValidationError("company is required when category is given")
	case company == "":
		collection, level = r.layout.ProductsRoot(), "company"
	case category == "":
		collection, level = r.layout.CategoriesOf(company), "category"
	default:
		collection, level = r.layout.SubcategoriesOf(company, category), "subcategory"
	}

	docs, err := r.store.ListChildren(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s containers: %w", level, err)
	}

	nodes := make([]HierarchyNode, 0, len(docs))
	for _, doc := range docs {
		// flat legacy products share the company collection
		if level == "company" && entities.LooksLikeProduct(doc.Data, r.config.LegacyIndicatorFields) {
			continue
		}
		name := entities.CoerceString(doc.Data[entities.FieldName])
		if name == "" {
			name = doc.ID()
		}
		nodes = append(nodes, HierarchyNode{ID: doc.ID(), Name: name, Path: doc.Path.String(), Level: level})
	}
	return nodes, nil
}

// Invalidate drops cached product listings
func (r *CatalogReader) Invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	for _, legacy := range []bool{false, true} {
		if err := r.cache.Delete(ctx, productsCacheKeyFor(legacy)); err != nil {
			r.logger.Warn("Failed to invalidate product cache", zap.Error(err))
		}
	}
}

func (r *CatalogReader) cachingEnabled() bool {
	return r.cache != nil && r.cacheTTL >= time.Second
}
