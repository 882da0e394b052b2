package entities

import "strings"

// IsProductLeaf decides whether a document found by a deep scan of the
// "products" collection name is a real product. Container documents share
// that collection name, so two checks must both hold:
//
//   - the path runs through /categories/ and /subcategories/ and its parent
//     collection is "products" directly under a subcategory document
//   - the document carries a numeric price
func IsProductLeaf(path string, data map[string]interface{}) bool {
	if !strings.Contains(path, "/categories/") || !strings.Contains(path, "/subcategories/") {
		return false
	}

	segs := strings.Split(strings.Trim(path, "/"), "/")
	n := len(segs)
	if n < 4 || segs[n-2] != "products" || segs[n-4] != "subcategories" {
		return false
	}

	_, ok := NumericValue(data[FieldPrice])
	return ok
}

// LooksLikeProduct reports whether a flat document carries any of the
// indicator fields that mark product data.
func LooksLikeProduct(data map[string]interface{}, indicators []string) bool {
	for _, field := range indicators {
		if v, ok := data[field]; ok && v != nil {
			return true
		}
	}
	return false
}

// IsContainerShape reports whether a document holds nothing but a name,
// which is what company, category and subcategory containers look like.
func IsContainerShape(data map[string]interface{}) bool {
	for k := range data {
		if k != FieldName {
			return false
		}
	}
	return true
}
