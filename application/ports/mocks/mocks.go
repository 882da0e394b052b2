// Package mocks holds testify doubles for the application ports.
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"salesadmin/application/ports"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/domain/events"
)

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Get(ctx context.Context, path valueobjects.DocPath) (ports.Document, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(ports.Document), args.Error(1)
}

func (m *MockDocumentStore) SetMerge(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error {
	args := m.Called(ctx, path, fields)
	return args.Error(0)
}

func (m *MockDocumentStore) Set(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error {
	args := m.Called(ctx, path, fields)
	return args.Error(0)
}

func (m *MockDocumentStore) Delete(ctx context.Context, path valueobjects.DocPath) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockDocumentStore) ListChildren(ctx context.Context, collection valueobjects.CollectionPath) ([]ports.Document, error) {
	args := m.Called(ctx, collection)
	if docs := args.Get(0); docs != nil {
		return docs.([]ports.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentStore) DeepScan(ctx context.Context, collectionName string) ([]ports.Document, error) {
	args := m.Called(ctx, collectionName)
	if docs := args.Get(0); docs != nil {
		return docs.([]ports.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentStore) NewBatch() ports.WriteBatch {
	args := m.Called()
	return args.Get(0).(ports.WriteBatch)
}

func (m *MockDocumentStore) MaxBatchOps() int {
	args := m.Called()
	return args.Int(0)
}

// MockWriteBatch records staged writes so tests can inspect them
type MockWriteBatch struct {
	mock.Mock
	Staged []StagedOp
}

// StagedOp is one write recorded by MockWriteBatch
type StagedOp struct {
	Kind   string
	Path   valueobjects.DocPath
	Fields map[string]interface{}
}

func (m *MockWriteBatch) Set(path valueobjects.DocPath, fields map[string]interface{}) {
	m.Staged = append(m.Staged, StagedOp{Kind: "set", Path: path, Fields: fields})
}

func (m *MockWriteBatch) SetMerge(path valueobjects.DocPath, fields map[string]interface{}) {
	m.Staged = append(m.Staged, StagedOp{Kind: "merge", Path: path, Fields: fields})
}

func (m *MockWriteBatch) Delete(path valueobjects.DocPath) {
	m.Staged = append(m.Staged, StagedOp{Kind: "delete", Path: path})
}

func (m *MockWriteBatch) Len() int {
	return len(m.Staged)
}

func (m *MockWriteBatch) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (interface{}, bool) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Lease, error) {
	args := m.Called(ctx, resource, owner, ttl)
	if lease := args.Get(0); lease != nil {
		return lease.(ports.Lease), args.Error(1)
	}
	return nil, args.Error(1)
}
