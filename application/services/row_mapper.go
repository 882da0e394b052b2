package services

import (
	"strings"

	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/valueobjects"
)

// RawRow is one spreadsheet row keyed by its header cells
type RawRow map[string]interface{}

// ImportRow is a row after alias probing and coercion
type ImportRow struct {
	Segments  valueobjects.PathSegments
	Name      string
	Price     float64
	MinPrice  float64
	Incentive float64
	MRP       float64
}

// Column aliases in probing order. Exact header matches are tried first,
// then case- and space-insensitive ones.
var (
	companyAliases     = []string{"company", "Company", "brand", "Brand", "companyName", "Company Name"}
	categoryAliases    = []string{"category", "Category", "categoryName", "Category Name"}
	subcategoryAliases = []string{"subcategory", "Subcategory", "subCategory", "SubCategory", "Sub Category", "sub_category"}
	nameAliases        = []string{"name", "Name", "productName", "Product Name", "product", "Product", "model", "Model"}
	priceAliases       = []string{"price", "Price", "sellingPrice", "Selling Price", "dp", "DP"}
	minPriceAliases    = []string{"minPrice", "Min Price", "bottomPrice", "Bottom Price", "bestPrice", "Best Price", "nlc", "NLC"}
	incentiveAliases   = []string{"incentive", "Incentive", "commission", "Commission"}
	mrpAliases         = []string{"mrp", "MRP", "M.R.P", "listPrice", "List Price"}

	headerNoise = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "")
)

// MapRow extracts the catalog fields from a raw row. It never fails:
// missing strings fall back to the fallback segment and missing numbers to 0.
func MapRow(row RawRow, fallback string) ImportRow {
	index := newHeaderIndex(row)

	name := index.text(nameAliases)
	if name == "" {
		name = fallback
	}

	return ImportRow{
		Segments: valueobjects.ResolvePathWithFallback(
			index.text(companyAliases),
			index.text(categoryAliases),
			index.text(subcategoryAliases),
			fallback,
		),
		Name:      name,
		Price:     index.number(priceAliases),
		MinPrice:  index.number(minPriceAliases),
		Incentive: index.number(incentiveAliases),
		MRP:       index.number(mrpAliases),
	}
}

// Fields renders the leaf document an imported row becomes
func (r ImportRow) Fields(createdAt string) map[string]interface{} {
	fields := map[string]interface{}{
		entities.FieldName:           r.Name,
		entities.FieldLegacyName:     r.Name,
		entities.FieldPrice:          r.Price,
		entities.FieldMinPrice:       r.MinPrice,
		entities.FieldLegacyMinPrice: r.MinPrice,
		entities.FieldIncentive:      r.Incentive,
		entities.FieldDiscount:       entities.DiscountPercentPrecise(r.Price, r.MinPrice),
		entities.FieldCompany:        r.Segments.Company,
		entities.FieldCategory:       r.Segments.Category,
		entities.FieldSubcategory:    r.Segments.Subcategory,
		entities.FieldCreatedAt:      createdAt,
		entities.FieldUpdatedAt:      createdAt,
	}
	if r.MRP > 0 {
		fields[entities.FieldMRP] = r.MRP
	}
	return fields
}

type headerIndex struct {
	row    RawRow
	folded map[string]string
}

func newHeaderIndex(row RawRow) headerIndex {
	folded := make(map[string]string, len(row))
	for k := range row {
		f := foldHeader(k)
		// headers folding to the same key resolve to the lexically smallest
		if existing, ok := folded[f]; !ok || k < existing {
			folded[f] = k
		}
	}
	return headerIndex{row: row, folded: folded}
}

// lookup returns the first alias with a non-blank value
func (h headerIndex) lookup(aliases []string) (interface{}, bool) {
	for _, alias := range aliases {
		if v, ok := h.row[alias]; ok && !blank(v) {
			return v, true
		}
	}
	for _, alias := range aliases {
		if k, ok := h.folded[foldHeader(alias)]; ok && !blank(h.row[k]) {
			return h.row[k], true
		}
	}
	return nil, false
}

func (h headerIndex) text(aliases []string) string {
	v, _ := h.lookup(aliases)
	return entities.CoerceString(v)
}

func (h headerIndex) number(aliases []string) float64 {
	v, _ := h.lookup(aliases)
	return entities.CoerceNumber(v)
}

func foldHeader(s string) string {
	return headerNoise.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func blank(v interface{}) bool {
	return entities.CoerceString(v) == ""
}
