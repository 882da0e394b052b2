package valueobjects

// Collection names used by the catalog tree
const (
	CollectionProducts      = "products"
	CollectionCategories    = "categories"
	CollectionSubcategories = "subcategories"

	CollectionEmployees    = "employees"
	CollectionOffers       = "offers"
	CollectionCatalogs     = "catalogs"
	CollectionAppointments = "appointments"
)

// DefaultCatalogRoot is the document every collection hangs off
const DefaultCatalogRoot = "admin-data/root"

// CatalogLayout derives every path the system reads or writes from a single
// root document:
//
//	{root}/products/{company}/categories/{category}/subcategories/{subcategory}/products/{id}
//
// Legacy flat products live directly in {root}/products next to the
// company containers.
type CatalogLayout struct {
	root DocPath
}

// NewCatalogLayout parses the root document path
func NewCatalogLayout(root string) (CatalogLayout, error) {
	p, err := ParseDocPath(root)
	if err != nil {
		return CatalogLayout{}, err
	}
	return CatalogLayout{root: p}, nil
}

// DefaultCatalogLayout is rooted at admin-data/root
func DefaultCatalogLayout() CatalogLayout {
	return CatalogLayout{root: MustDocPath("admin-data", "root")}
}

// Root returns the root document
func (l CatalogLayout) Root() DocPath {
	return l.root
}

// ProductsRoot is the top-level products collection. It holds company
// containers and legacy flat products.
func (l CatalogLayout) ProductsRoot() CollectionPath {
	return l.root.Collection(CollectionProducts)
}

// CompanyDoc addresses a company container
func (l CatalogLayout) CompanyDoc(company string) DocPath {
	return l.ProductsRoot().Doc(company)
}

// CategoriesOf lists categories under a company
func (l CatalogLayout) CategoriesOf(company string) CollectionPath {
	return l.CompanyDoc(company).Collection(CollectionCategories)
}

// CategoryDoc addresses a category container
func (l CatalogLayout) CategoryDoc(company, category string) DocPath {
	return l.CategoriesOf(company).Doc(category)
}

// SubcategoriesOf lists subcategories under a category
func (l CatalogLayout) SubcategoriesOf(company, category string) CollectionPath {
	return l.CategoryDoc(company, category).Collection(CollectionSubcategories)
}

// SubcategoryDoc addresses a subcategory container
func (l CatalogLayout) SubcategoryDoc(seg PathSegments) DocPath {
	return l.SubcategoriesOf(seg.Company, seg.Category).Doc(seg.Subcategory)
}

// LeafCollection is the products collection under a subcategory
func (l CatalogLayout) LeafCollection(seg PathSegments) CollectionPath {
	return l.SubcategoryDoc(seg).Collection(CollectionProducts)
}

// LeafDoc addresses a product leaf
func (l CatalogLayout) LeafDoc(seg PathSegments, id string) DocPath {
	return l.LeafCollection(seg).Doc(id)
}

// Ancestors returns the three container documents above a leaf, top-down
func (l CatalogLayout) Ancestors(seg PathSegments) [3]DocPath {
	return [3]DocPath{
		l.CompanyDoc(seg.Company),
		l.CategoryDoc(seg.Company, seg.Category),
		l.SubcategoryDoc(seg),
	}
}

// Records is a flat record collection under the root
func (l CatalogLayout) Records(name string) CollectionPath {
	return l.root.Collection(name)
}

// SegmentsOfLeaf recovers the hierarchy triple from a nested leaf path
// under this layout's root.
func (l CatalogLayout) SegmentsOfLeaf(p DocPath) (PathSegments, bool) {
	rootLen := len(l.root.segments)
	segs := p.segments
	if len(segs) != rootLen+8 || !p.HasPrefix(l.root) {
		return PathSegments{}, false
	}
	rel := segs[rootLen:]
	if rel[0] != CollectionProducts || rel[2] != CollectionCategories ||
		rel[4] != CollectionSubcategories || rel[6] != CollectionProducts {
		return PathSegments{}, false
	}
	return PathSegments{Company: rel[1], Category: rel[3], Subcategory: rel[5]}, true
}

// IsFlatProductPath reports whether p sits directly in the top-level
// products collection.
func (l CatalogLayout) IsFlatProductPath(p DocPath) bool {
	return p.Parent().String() == l.ProductsRoot().String()
}
