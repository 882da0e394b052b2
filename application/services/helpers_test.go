package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"salesadmin/application/ports"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/infrastructure/persistence/memory"
)

var testLayout = valueobjects.DefaultCatalogLayout()

func exampleRows() []RawRow {
	return []RawRow{
		{"company": "LG", "category": "TV", "subcategory": "OLED", "name": "P1", "price": 10000, "minPrice": 8000, "incentive": 500},
		{"company": "LG", "category": "TV", "subcategory": "OLED", "name": "P2", "price": 20000, "minPrice": 15000, "incentive": 600},
		{"company": "LG", "category": "TV", "subcategory": "LED", "name": "P3", "price": 5000, "minPrice": 4000, "incentive": 100},
	}
}

func scan(t *testing.T, store ports.DocumentStore, collection string) []ports.Document {
	t.Helper()
	docs, err := store.DeepScan(context.Background(), collection)
	require.NoError(t, err)
	return docs
}

func leaves(t *testing.T, store ports.DocumentStore) []ports.Document {
	t.Helper()
	var out []ports.Document
	for _, doc := range scan(t, store, valueobjects.CollectionProducts) {
		if entities.IsProductLeaf(doc.Path.String(), doc.Data) {
			out = append(out, doc)
		}
	}
	return out
}

func seedLeaf(t *testing.T, store *memory.DocumentStore, company, category, subcategory, id string, price float64) valueobjects.DocPath {
	t.Helper()
	ctx := context.Background()
	seg := valueobjects.ResolvePath(company, category, subcategory)
	require.NoError(t, NewAncestorUpserter(store, testLayout).Ensure(ctx, seg))
	path := testLayout.LeafDoc(seg, id)
	require.NoError(t, store.Set(ctx, path, map[string]interface{}{
		"name":        id,
		"price":       price,
		"company":     company,
		"category":    category,
		"subcategory": subcategory,
	}))
	return path
}
