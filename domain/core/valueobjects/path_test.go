package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name                      string
		company, category, subcat string
		want                      PathSegments
	}{
		{"trims whitespace", "  LG ", "TV\t", " OLED", PathSegments{Company: "LG", Category: "TV", Subcategory: "OLED"}},
		{"blank becomes Unknown", "", "   ", "LED", PathSegments{Company: "Unknown", Category: "Unknown", Subcategory: "LED"}},
		{"case is preserved", "lg", "Tv", "oled", PathSegments{Company: "lg", Category: "Tv", Subcategory: "oled"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.company, tt.category, tt.subcat))
		})
	}
}

func TestCatalogLayout_LeafDoc(t *testing.T) {
	layout := DefaultCatalogLayout()
	seg := ResolvePath("LG", "TV", "OLED")

	leaf := layout.LeafDoc(seg, "p1")

	assert.Equal(t,
		"admin-data/root/products/LG/categories/TV/subcategories/OLED/products/p1",
		leaf.String())
	assert.Equal(t, "p1", leaf.ID())
	assert.Equal(t, CollectionProducts, leaf.Parent().Name())

	ancestors := layout.Ancestors(seg)
	assert.Equal(t, "admin-data/root/products/LG", ancestors[0].String())
	assert.Equal(t, "admin-data/root/products/LG/categories/TV", ancestors[1].String())
	assert.Equal(t, "admin-data/root/products/LG/categories/TV/subcategories/OLED", ancestors[2].String())
}

func TestCatalogLayout_SegmentsOfLeaf(t *testing.T) {
	layout := DefaultCatalogLayout()

	seg, ok := layout.SegmentsOfLeaf(layout.LeafDoc(ResolvePath("LG", "TV", "OLED"), "p1"))
	require.True(t, ok)
	assert.Equal(t, PathSegments{Company: "LG", Category: "TV", Subcategory: "OLED"}, seg)

	_, ok = layout.SegmentsOfLeaf(layout.CompanyDoc("LG"))
	assert.False(t, ok)

	_, ok = layout.SegmentsOfLeaf(layout.ProductsRoot().Doc("abc123"))
	assert.False(t, ok)
}

func TestCatalogLayout_IsFlatProductPath(t *testing.T) {
	layout := DefaultCatalogLayout()

	assert.True(t, layout.IsFlatProductPath(layout.ProductsRoot().Doc("abc123")))
	assert.False(t, layout.IsFlatProductPath(layout.LeafDoc(ResolvePath("LG", "TV", "OLED"), "abc123")))
}

func TestCatalogLayout_CustomRoot(t *testing.T) {
	layout, err := NewCatalogLayout("tenants/acme")
	require.NoError(t, err)

	assert.Equal(t, "tenants/acme/employees", layout.Records(CollectionEmployees).String())

	_, err = NewCatalogLayout("tenants")
	assert.Error(t, err)
}

func TestParseDocPath(t *testing.T) {
	p, err := ParseDocPath("/admin-data/root/products/LG/")
	require.NoError(t, err)
	assert.Equal(t, "admin-data/root/products/LG", p.String())
	assert.Equal(t, 2, p.Depth())

	_, err = ParseDocPath("admin-data/root/products")
	assert.Error(t, err)

	_, err = ParseDocPath("admin-data//root/products")
	assert.Error(t, err)

	_, err = ParseDocPath("")
	assert.Error(t, err)
}

func TestCollectionPath_Parent(t *testing.T) {
	c, err := ParseCollectionPath("admin-data/root/products")
	require.NoError(t, err)

	parent, ok := c.Parent()
	require.True(t, ok)
	assert.Equal(t, "admin-data/root", parent.String())

	top, err := NewCollectionPath("admin-data")
	require.NoError(t, err)
	_, ok = top.Parent()
	assert.False(t, ok)
}

func TestDocPath_JSON(t *testing.T) {
	type wrapper struct {
		Path DocPath `json:"path"`
	}
	in := wrapper{Path: MustDocPath("admin-data", "root")}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"admin-data/root"}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Path.Equals(in.Path))
}

func TestDocPath_HasPrefix(t *testing.T) {
	layout := DefaultCatalogLayout()
	company := layout.CompanyDoc("LG")
	leaf := layout.LeafDoc(ResolvePath("LG", "TV", "OLED"), "p1")

	assert.True(t, leaf.HasPrefix(company))
	assert.False(t, company.HasPrefix(leaf))
	assert.False(t, leaf.HasPrefix(layout.CompanyDoc("Sony")))
}

func TestPathSegments_Key(t *testing.T) {
	a := ResolvePath("LG", "TV", "OLED")
	b := ResolvePath(" LG", "TV ", "OLED")
	c := ResolvePath("LG", "TV", "LED")

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
