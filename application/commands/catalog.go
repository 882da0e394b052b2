package commands

import (
	"strings"

	"salesadmin/application/services"
	"salesadmin/domain/core/entities"
	"salesadmin/pkg/errors"
	"salesadmin/pkg/utils"
)

// AddProductCommand creates one product leaf and its containers
type AddProductCommand struct {
	Draft entities.ProductDraft
}

// Validate validates the command
func (c AddProductCommand) Validate() error {
	return utils.ValidateStruct(c.Draft)
}

// UpdateProductCommand patches one product found by path or id
type UpdateProductCommand struct {
	Ref   services.ProductRef
	Patch entities.ProductPatch
}

// Validate validates the command
func (c UpdateProductCommand) Validate() error {
	if err := c.Ref.Validate(); err != nil {
		return err
	}
	if c.Patch.IsEmpty() {
		return errors.NewValidationError("nothing to update")
	}
	return utils.ValidateStruct(c.Patch)
}

// DeleteProductCommand removes one product found by path or id
type DeleteProductCommand struct {
	Ref services.ProductRef
}

// Validate validates the command
func (c DeleteProductCommand) Validate() error {
	return c.Ref.Validate()
}

// DeleteAllProductsCommand removes every product leaf. Containers stay.
type DeleteAllProductsCommand struct{}

// Validate validates the command
func (c DeleteAllProductsCommand) Validate() error {
	return nil
}

// DeleteHierarchyCommand removes a company, a category or a subcategory
// together with everything below it
type DeleteHierarchyCommand struct {
	Company     string
	Category    string
	Subcategory string
}

// Validate validates the command
func (c DeleteHierarchyCommand) Validate() error {
	if strings.TrimSpace(c.Company) == "" {
		return errors.NewValidationError("company is required")
	}
	if strings.TrimSpace(c.Subcategory) != "" && strings.TrimSpace(c.Category) == "" {
		return errors.NewValidationError("category is required to delete a subcategory")
	}
	return nil
}

// Target converts the command into the deleter's target
func (c DeleteHierarchyCommand) Target() services.SubtreeTarget {
	return services.SubtreeTarget{
		Company:     strings.TrimSpace(c.Company),
		Category:    strings.TrimSpace(c.Category),
		Subcategory: strings.TrimSpace(c.Subcategory),
	}
}

// ImportProductsCommand imports spreadsheet rows. Clear removes every
// existing product leaf first.
type ImportProductsCommand struct {
	Rows   []services.RawRow
	Clear  bool
	Source string
}

// Validate validates the command
func (c ImportProductsCommand) Validate() error {
	if len(c.Source) > 255 {
		return errors.NewValidationError("source name is too long")
	}
	return nil
}

// MigrateFlatProductsCommand moves legacy flat products into the hierarchy
type MigrateFlatProductsCommand struct {
	DryRun bool
}

// Validate validates the command
func (c MigrateFlatProductsCommand) Validate() error {
	return nil
}

// DeleteResult reports how many documents a delete removed
type DeleteResult struct {
	Deleted int `json:"deleted"`
}

// DeleteProductResult reports the product a delete removed
type DeleteProductResult struct {
	Deleted int              `json:"deleted"`
	Product entities.Product `json:"product"`
}

// ImportProductsResult reports an import run
type ImportProductsResult struct {
	services.ImportResult
	Cleared int `json:"cleared"`
}
