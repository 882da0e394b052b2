package validators

import (
	"fmt"
	"sort"
	"strings"

	"salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/pkg/errors"
)

// ProductValidator enforces the rules that apply to interactive product
// writes. Bulk import deliberately bypasses it and relies on fallbacks.
type ProductValidator struct {
	nameMaxLength   int
	enforceMinPrice bool
}

// NewProductValidator creates a validator from the domain rules
func NewProductValidator(cfg *config.DomainConfig) *ProductValidator {
	return &ProductValidator{
		nameMaxLength:   cfg.MaxNameLength,
		enforceMinPrice: cfg.EnforceMinPriceCap,
	}
}

// ValidateDraft checks a new product before anything is written
func (v *ProductValidator) ValidateDraft(draft entities.ProductDraft) error {
	problems := map[string]string{}

	v.requireSegment(problems, "company", draft.Company)
	v.requireSegment(problems, "category", draft.Category)
	v.requireSegment(problems, "subcategory", draft.Subcategory)
	v.checkName(problems, draft.Name)
	v.checkPrices(problems, draft.Price, draft.MinPrice, draft.Incentive, draft.MRP)

	return toError(problems)
}

// ValidateUpdated checks a product after patch has been applied to it.
// Hierarchy segments are checked as the patch sent them, since applying
// the patch already folds blanks into the fallback segment.
func (v *ProductValidator) ValidateUpdated(p entities.Product, patch entities.ProductPatch) error {
	problems := map[string]string{}

	if patch.Company != nil {
		v.requireSegment(problems, "company", *patch.Company)
	}
	if patch.Category != nil {
		v.requireSegment(problems, "category", *patch.Category)
	}
	if patch.Subcategory != nil {
		v.requireSegment(problems, "subcategory", *patch.Subcategory)
	}
	v.checkName(problems, p.Name)
	v.checkPrices(problems, p.Price, p.MinPrice, p.Incentive, p.MRP)

	return toError(problems)
}

func (v *ProductValidator) requireSegment(problems map[string]string, field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		problems[field] = "is required"
		return
	}
	if strings.Contains(value, "/") {
		problems[field] = "cannot contain '/'"
	}
}

func (v *ProductValidator) checkName(problems map[string]string, name string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		problems["name"] = "is required"
	case len(name) > v.nameMaxLength:
		problems["name"] = fmt.Sprintf("must be at most %d characters", v.nameMaxLength)
	case strings.Contains(strings.ToLower(name), "<script"):
		problems["name"] = "contains markup"
	}
}

func (v *ProductValidator) checkPrices(problems map[string]string, price, minPrice, incentive, mrp float64) {
	if price < 0 {
		problems["price"] = "cannot be negative"
	}
	if minPrice < 0 {
		problems["minPrice"] = "cannot be negative"
	}
	if incentive < 0 {
		problems["incentive"] = "cannot be negative"
	}
	if mrp < 0 {
		problems["mrp"] = "cannot be negative"
	}
	if v.enforceMinPrice && minPrice > price {
		problems["minPrice"] = "cannot exceed price"
	}
}

func toError(problems map[string]string) error {
	if len(problems) == 0 {
		return nil
	}

	fields := make([]string, 0, len(problems))
	for f := range problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	details := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		messages = append(messages, f+" "+problems[f])
		details[f] = problems[f]
	}

	return errors.NewValidationError(strings.Join(messages, "; ")).
		WithCode("INVALID_PRODUCT").
		WithDetail("fields", details)
}
