package entities

import (
	"strings"
	"time"

	"salesadmin/domain/core/valueobjects"
)

// Product is the canonical in-memory shape of a product leaf. Documents in
// the store may carry canonical or legacy field names; NormalizeProduct is
// the only place that reconciles the two.
type Product struct {
	ID          string     `json:"id"`
	Path        string     `json:"path"`
	Name        string     `json:"name"`
	Company     string     `json:"company"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory"`
	Price       float64    `json:"price"`
	MinPrice    float64    `json:"minPrice"`
	Incentive   float64    `json:"incentive"`
	MRP         float64    `json:"mrp,omitempty"`
	Discount    float64    `json:"discount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	MigratedAt  *time.Time `json:"migratedAt,omitempty"`
	Legacy      bool       `json:"legacy,omitempty"`
}

// ProductDraft carries the fields an admin supplies when adding a product
type ProductDraft struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Company     string  `json:"company" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Subcategory string  `json:"subcategory" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	MinPrice    float64 `json:"minPrice" validate:"gte=0"`
	Incentive   float64 `json:"incentive" validate:"gte=0"`
	MRP         float64 `json:"mrp" validate:"gte=0"`
}

// ProductPatch is a partial update; nil fields are left untouched
type ProductPatch struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Company     *string  `json:"company,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	MinPrice    *float64 `json:"minPrice,omitempty" validate:"omitempty,gte=0"`
	Incentive   *float64 `json:"incentive,omitempty" validate:"omitempty,gte=0"`
	MRP         *float64 `json:"mrp,omitempty" validate:"omitempty,gte=0"`
}

// IsEmpty reports whether the patch changes nothing
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Company == nil && p.Category == nil && p.Subcategory == nil &&
		p.Price == nil && p.MinPrice == nil && p.Incentive == nil && p.MRP == nil
}

// NewProduct builds a fresh leaf from an admin draft
func NewProduct(id string, draft ProductDraft, seg valueobjects.PathSegments, now time.Time) Product {
	return Product{
		ID:          id,
		Name:        strings.TrimSpace(draft.Name),
		Company:     seg.Company,
		Category:    seg.Category,
		Subcategory: seg.Subcategory,
		Price:       draft.Price,
		MinPrice:    draft.MinPrice,
		Incentive:   draft.Incentive,
		MRP:         draft.MRP,
		Discount:    DiscountPercent(draft.Price, draft.MinPrice),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Segments returns the product's place in the hierarchy
func (p Product) Segments() valueobjects.PathSegments {
	return valueobjects.ResolvePath(p.Company, p.Category, p.Subcategory)
}

// ApplyPatch merges a patch, recomputes the discount and bumps updatedAt.
// It reports whether the hierarchy triple changed.
func (p *Product) ApplyPatch(patch ProductPatch, now time.Time) bool {
	before := p.Segments()

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Company != nil {
		p.Company = *patch.Company
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Subcategory != nil {
		p.Subcategory = *patch.Subcategory
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.MinPrice != nil {
		p.MinPrice = *patch.MinPrice
	}
	if patch.Incentive != nil {
		p.Incentive = *patch.Incentive
	}
	if patch.MRP != nil {
		p.MRP = *patch.MRP
	}

	after := p.Segments()
	p.Company, p.Category, p.Subcategory = after.Company, after.Category, after.Subcategory
	p.Discount = DiscountPercent(p.Price, p.MinPrice)
	p.UpdatedAt = now

	return before != after
}

// Fields renders the document body, writing legacy aliases next to the
// canonical names.
func (p Product) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		FieldName:           p.Name,
		FieldLegacyName:     p.Name,
		FieldPrice:          p.Price,
		FieldMinPrice:       p.MinPrice,
		FieldLegacyMinPrice: p.MinPrice,
		FieldIncentive:      p.Incentive,
		FieldDiscount:       p.Discount,
		FieldCompany:        p.Company,
		FieldCategory:       p.Category,
		FieldSubcategory:    p.Subcategory,
	}
	if p.MRP > 0 {
		fields[FieldMRP] = p.MRP
	}
	if !p.CreatedAt.IsZero() {
		fields[FieldCreatedAt] = FormatTime(p.CreatedAt)
	}
	if !p.UpdatedAt.IsZero() {
		fields[FieldUpdatedAt] = FormatTime(p.UpdatedAt)
	}
	if p.MigratedAt != nil {
		fields[FieldMigratedAt] = FormatTime(*p.MigratedAt)
	}
	return fields
}

// NormalizeProduct turns a raw stored document, in either field vocabulary,
// into a Product. Hierarchy names come from the path when the document sits
// in the nested tree and from its own fields otherwise. A stored discount is
// trusted; a missing one is derived.
func NormalizeProduct(path valueobjects.DocPath, raw map[string]interface{}) Product {
	p := Product{
		ID:   path.ID(),
		Path: path.String(),
		Name: firstString(raw, FieldName, FieldLegacyName),
	}

	if seg, ok := segmentsFromLeafPath(path); ok {
		p.Company, p.Category, p.Subcategory = seg.Company, seg.Category, seg.Subcategory
	} else {
		seg := valueobjects.ResolvePath(
			firstString(raw, FieldCompany, "brand"),
			firstString(raw, FieldCategory),
			firstString(raw, FieldSubcategory, "subCategory"),
		)
		p.Company, p.Category, p.Subcategory = seg.Company, seg.Category, seg.Subcategory
		p.Legacy = true
	}
	if p.Name == "" {
		p.Name = valueobjects.DefaultFallbackSegment
	}

	p.Price, _ = firstNumber(raw, FieldPrice)
	p.MinPrice, _ = firstNumber(raw, FieldMinPrice, FieldLegacyMinPrice, FieldBestPrice)
	p.Incentive, _ = firstNumber(raw, FieldIncentive)
	p.MRP, _ = firstNumber(raw, FieldMRP)

	if d, ok := firstNumber(raw, FieldDiscount); ok {
		p.Discount = d
	} else {
		p.Discount = DiscountPercent(p.Price, p.MinPrice)
	}

	p.CreatedAt = CoerceTime(raw[FieldCreatedAt])
	p.UpdatedAt = CoerceTime(raw[FieldUpdatedAt])
	if m := CoerceTime(raw[FieldMigratedAt]); !m.IsZero() {
		p.MigratedAt = &m
	}
	return p
}

// segmentsFromLeafPath reads the hierarchy out of
// .../products/{company}/categories/{category}/subcategories/{subcategory}/products/{id}
func segmentsFromLeafPath(path valueobjects.DocPath) (valueobjects.PathSegments, bool) {
	segs := path.Segments()
	n := len(segs)
	if n < 8 {
		return valueobjects.PathSegments{}, false
	}
	if segs[n-8] != valueobjects.CollectionProducts ||
		segs[n-6] != valueobjects.CollectionCategories ||
		segs[n-4] != valueobjects.CollectionSubcategories ||
		segs[n-2] != valueobjects.CollectionProducts {
		return valueobjects.PathSegments{}, false
	}
	return valueobjects.PathSegments{Company: segs[n-7], Category: segs[n-5], Subcategory: segs[n-3]}, true
}
