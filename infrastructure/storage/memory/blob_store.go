package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"salesadmin/pkg/errors"
)

// urlPrefix marks URLs handed out by the in-memory store
const urlPrefix = "memory://blobs/"

// Blob is one stored object
type Blob struct {
	Body        []byte
	ContentType string
}

// BlobStore keeps blobs in process memory for local runs and tests
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewBlobStore creates an empty blob store
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]Blob)}
}

func (s *BlobStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", errors.NewValidationError("blob key is empty")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("failed to read blob body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = Blob{Body: buf.Bytes(), ContentType: contentType}
	return urlPrefix + key, nil
}

func (s *BlobStore) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, urlPrefix) {
		return errors.NewValidationError("blob URL does not belong to this store").WithDetail("url", url)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, strings.TrimPrefix(url, urlPrefix))
	return nil
}

// Open returns a stored blob by URL
func (s *BlobStore) Open(url string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[strings.TrimPrefix(url, urlPrefix)]
	return blob, ok
}
