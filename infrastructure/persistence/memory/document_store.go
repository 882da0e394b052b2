package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"salesadmin/application/ports"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

// DefaultHardLimit mirrors the per-batch write limit of hosted document stores
const DefaultHardLimit = 500

// DocumentStore provides an in-memory implementation of ports.DocumentStore.
// It backs local development and tests.
type DocumentStore struct {
	mu        sync.RWMutex
	docs      map[string]ports.Document
	hardLimit int
	commits   int
}

// NewDocumentStore creates an empty store with the default batch limit
func NewDocumentStore() *DocumentStore {
	return NewDocumentStoreWithLimit(DefaultHardLimit)
}

// NewDocumentStoreWithLimit creates an empty store with a custom batch limit
func NewDocumentStoreWithLimit(hardLimit int) *DocumentStore {
	return &DocumentStore{
		docs:      make(map[string]ports.Document),
		hardLimit: hardLimit,
	}
}

// Get retrieves a copy of a document
func (s *DocumentStore) Get(ctx context.Context, path valueobjects.DocPath) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return ports.Document{}, errors.NewStoreUnavailableError("get", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[path.String()]
	if !exists {
		return ports.Document{}, errors.NewNotFoundError("document").WithDetail("path", path.String())
	}
	return copyDoc(doc), nil
}

// SetMerge merges fields into the document, creating it when missing
func (s *DocumentStore) SetMerge(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error {
	b := s.NewBatch()
	b.SetMerge(path, fields)
	return b.Commit(ctx)
}

// Set replaces the document
func (s *DocumentStore) Set(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error {
	b := s.NewBatch()
	b.Set(path, fields)
	return b.Commit(ctx)
}

// Delete removes the document if present
func (s *DocumentStore) Delete(ctx context.Context, path valueobjects.DocPath) error {
	b := s.NewBatch()
	b.Delete(path)
	return b.Commit(ctx)
}

// ListChildren returns the documents directly inside a collection, ordered by path
func (s *DocumentStore) ListChildren(ctx context.Context, collection valueobjects.CollectionPath) ([]ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("list", err)
	}
	want := collection.String()
	return s.collect(func(doc ports.Document) bool {
		return doc.Path.Parent().String() == want
	}), nil
}

// DeepScan returns every document whose immediate collection is named collectionName
func (s *DocumentStore) DeepScan(ctx context.Context, collectionName string) ([]ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("deep scan", err)
	}
	return s.collect(func(doc ports.Document) bool {
		return doc.Path.Parent().Name() == collectionName
	}), nil
}

// NewBatch starts a write batch
func (s *DocumentStore) NewBatch() ports.WriteBatch {
	return &writeBatch{store: s}
}

// MaxBatchOps returns the configured hard limit
func (s *DocumentStore) MaxBatchOps() int {
	return s.hardLimit
}

// Len returns the number of stored documents
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// CommitCount returns how many batches have been committed
func (s *DocumentStore) CommitCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

func (s *DocumentStore) collect(match func(ports.Document) bool) []ports.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.Document
	for _, doc := range s.docs {
		if match(doc) {
			out = append(out, copyDoc(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path.String() < out[j].Path.String()
	})
	return out
}

type opKind int

const (
	opSet opKind = iota
	opMerge
	opDelete
)

type batchOp struct {
	kind   opKind
	path   valueobjects.DocPath
	fields map[string]interface{}
}

type writeBatch struct {
	store *DocumentStore
	ops   []batchOp
}

func (b *writeBatch) Set(path valueobjects.DocPath, fields map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: opSet, path: path, fields: copyFields(fields)})
}

func (b *writeBatch) SetMerge(path valueobjects.DocPath, fields map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: opMerge, path: path, fields: copyFields(fields)})
}

func (b *writeBatch) Delete(path valueobjects.DocPath) {
	b.ops = append(b.ops, batchOp{kind: opDelete, path: path})
}

func (b *writeBatch) Len() int {
	return len(b.ops)
}

// Commit applies the staged writes under one lock so readers never see a
// partially applied batch
func (b *writeBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStoreUnavailableError("commit", err)
	}
	if len(b.ops) == 0 {
		return nil
	}
	if len(b.ops) > b.store.hardLimit {
		return errors.NewValidationError(
			fmt.Sprintf("batch of %d writes exceeds the limit of %d", len(b.ops), b.store.hardLimit))
	}
	for _, op := range b.ops {
		if op.path.IsZero() {
			return errors.NewValidationError("batch write has an empty path")
		}
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range b.ops {
		key := op.path.String()
		switch op.kind {
		case opSet:
			s.docs[key] = ports.Document{Path: op.path, Data: copyFields(op.fields)}
		case opMerge:
			existing, ok := s.docs[key]
			if !ok {
				existing = ports.Document{Path: op.path, Data: map[string]interface{}{}}
			}
			for k, v := range op.fields {
				existing.Data[k] = v
			}
			s.docs[key] = existing
		case opDelete:
			delete(s.docs, key)
		}
	}
	s.commits++
	b.ops = nil
	return nil
}

func copyDoc(doc ports.Document) ports.Document {
	return ports.Document{Path: doc.Path, Data: copyFields(doc.Data)}
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
