package queries

import (
	"strings"

	"salesadmin/application/services"
	"salesadmin/domain/core/entities"
	"salesadmin/pkg/errors"
)

// FetchProductsQuery lists every product leaf. IncludeLegacy adds flat
// product-like documents still waiting for migration.
type FetchProductsQuery struct {
	IncludeLegacy bool
}

// Validate validates the query
func (q FetchProductsQuery) Validate() error {
	return nil
}

// FetchProductsResult is the flattened product list
type FetchProductsResult struct {
	Products []entities.Product `json:"products"`
	Count    int                `json:"count"`
}

// GetProductQuery loads one product by path or id
type GetProductQuery struct {
	Ref services.ProductRef
}

// Validate validates the query
func (q GetProductQuery) Validate() error {
	return q.Ref.Validate()
}

// ListHierarchyQuery lists containers one level below the given parent:
// companies when Company is empty, categories of Company, or subcategories
// of Company/Category.
type ListHierarchyQuery struct {
	Company  string
	Category string
}

// Validate validates the query
func (q ListHierarchyQuery) Validate() error {
	if strings.TrimSpace(q.Category) != "" && strings.TrimSpace(q.Company) == "" {
		return errors.NewValidationError("company is required to list subcategories")
	}
	return nil
}

// ListHierarchyResult is one level of the hierarchy
type ListHierarchyResult struct {
	Level string                   `json:"level"`
	Nodes []services.HierarchyNode `json:"nodes"`
}
