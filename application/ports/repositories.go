package ports

import (
	"context"

	"salesadmin/domain/core/valueobjects"
)

// Document is a stored document with its full path
type Document struct {
	Path valueobjects.DocPath
	Data map[string]interface{}
}

// ID returns the last path segment
func (d Document) ID() string { return d.Path.ID() }

// DocumentStore defines the hierarchical document store the catalog lives in.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DocumentStore interface {
	// Get retrieves one document; a missing document is a NotFound error
	Get(ctx context.Context, path valueobjects.DocPath) (Document, error)

	// SetMerge creates the document or merges fields into it without
	// touching fields it does not name
	SetMerge(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error

	// Set creates or overwrites the document
	Set(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error

	// Delete removes the document; deleting a missing document succeeds
	Delete(ctx context.Context, path valueobjects.DocPath) error

	// ListChildren returns the documents directly inside a collection
	ListChildren(ctx context.Context, collection valueobjects.CollectionPath) ([]Document, error)

	// DeepScan returns every document whose immediate collection is named
	// collectionName, at any depth
	DeepScan(ctx context.Context, collectionName string) ([]Document, error)

	// NewBatch starts an atomic write batch
	NewBatch() WriteBatch

	// MaxBatchOps is the store's hard limit of writes per batch
	MaxBatchOps() int
}

// WriteBatch stages writes that commit atomically. Staging never fails;
// problems with a staged write surface from Commit.
type WriteBatch interface {
	Set(path valueobjects.DocPath, fields map[string]interface{})
	SetMerge(path valueobjects.DocPath, fields map[string]interface{})
	Delete(path valueobjects.DocPath)

	// Len is the number of writes the batch will perform
	Len() int

	// Commit applies every staged write or none of them
	Commit(ctx context.Context) error
}
