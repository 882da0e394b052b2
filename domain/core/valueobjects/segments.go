package valueobjects

import "strings"

// DefaultFallbackSegment replaces blank hierarchy names
const DefaultFallbackSegment = "Unknown"

// PathSegments is the resolved company/category/subcategory triple that
// places a product in the catalog tree.
type PathSegments struct {
	Company     string
	Category    string
	Subcategory string
}

// ResolvePath trims each name and substitutes the fallback for blanks.
// It never fails and performs no other normalization: names are stored
// exactly as given, case included.
func ResolvePath(company, category, subcategory string) PathSegments {
	return ResolvePathWithFallback(company, category, subcategory, DefaultFallbackSegment)
}

// ResolvePathWithFallback is ResolvePath with a configurable fallback name
func ResolvePathWithFallback(company, category, subcategory, fallback string) PathSegments {
	return PathSegments{
		Company:     resolveSegment(company, fallback),
		Category:    resolveSegment(category, fallback),
		Subcategory: resolveSegment(subcategory, fallback),
	}
}

// Key identifies the triple for per-run deduplication
func (s PathSegments) Key() string {
	return s.Company + "\x00" + s.Category + "\x00" + s.Subcategory
}

func resolveSegment(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
