package services

import (
	"context"
	"fmt"

	"salesadmin/application/ports"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/valueobjects"
)

// AncestorUpserter is the single write path for container documents. Every
// write is a merge of {name: segment}, so repeating it is harmless and the
// order of concurrent writers does not matter.
type AncestorUpserter struct {
	store  ports.DocumentStore
	layout valueobjects.CatalogLayout
}

// NewAncestorUpserter creates a new ancestor upserter
func NewAncestorUpserter(store ports.DocumentStore, layout valueobjects.CatalogLayout) *AncestorUpserter {
	return &AncestorUpserter{store: store, layout: layout}
}

// AncestorOps is the number of writes Stage adds to a batch
const AncestorOps = 3

// Stage adds the three container merges to a caller-owned batch
func (u *AncestorUpserter) Stage(batch ports.WriteBatch, seg valueobjects.PathSegments) {
	names := [3]string{seg.Company, seg.Category, seg.Subcategory}
	for i, path := range u.layout.Ancestors(seg) {
		batch.SetMerge(path, map[string]interface{}{entities.FieldName: names[i]})
	}
}

// Ensure writes the three containers in a batch of their own
func (u *AncestorUpserter) Ensure(ctx context.Context, seg valueobjects.PathSegments) error {
	batch := u.store.NewBatch()
	u.Stage(batch, seg)
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to ensure ancestors of %s/%s/%s: %w", seg.Company, seg.Category, seg.Subcategory, err)
	}
	return nil
}

// AncestorTracker remembers which hierarchy triples one run has already
// staged. It is not safe for concurrent use.
type AncestorTracker struct {
	seen map[string]struct{}
}

// NewAncestorTracker creates an empty tracker
func NewAncestorTracker() *AncestorTracker {
	return &AncestorTracker{seen: make(map[string]struct{})}
}

// Mark records seg and reports whether it was new
func (t *AncestorTracker) Mark(seg valueobjects.PathSegments) bool {
	key := seg.Key()
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Seen reports whether seg was already marked
func (t *AncestorTracker) Seen(seg valueobjects.PathSegments) bool {
	_, ok := t.seen[seg.Key()]
	return ok
}

// Len returns the number of distinct triples marked
func (t *AncestorTracker) Len() int {
	return len(t.seen)
}
