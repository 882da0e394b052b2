package ports

import (
	"context"
	"io"
	"time"

	"salesadmin/domain/events"
)

// BlobStore keeps uploaded files and hands back public URLs
type BlobStore interface {
	// Put stores the content under key and returns its URL
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)

	// Delete removes the blob behind a URL returned by Put
	Delete(ctx context.Context, url string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// Locker hands out named leases that keep bulk catalog jobs from running
// over each other, across processes when the backend is shared
type Locker interface {
	// Acquire takes the lease or fails with a conflict error when another
	// owner holds an unexpired one
	Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock
type Lease interface {
	Release(ctx context.Context) error
}
