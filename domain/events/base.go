package events

import (
	"time"
)

// Source identifies this service on the event bus
const Source = "salesadmin.catalog"

// Event types
const (
	TypeProductCreated       = "product.created"
	TypeProductUpdated       = "product.updated"
	TypeProductDeleted       = "product.deleted"
	TypeProductsImported     = "products.imported"
	TypeHierarchyDeleted     = "hierarchy.deleted"
	TypeFlatProductsMigrated = "products.migrated"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// Product Events

// ProductCreated is raised when an admin adds a product
type ProductCreated struct {
	BaseEvent
	ProductID string  `json:"product_id"`
	Path      string  `json:"path"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

// NewProductCreated creates a ProductCreated event
func NewProductCreated(id, path, name string, price float64, timestamp time.Time) ProductCreated {
	return ProductCreated{
		BaseEvent: newBase(path, TypeProductCreated, timestamp),
		ProductID: id,
		Path:      path,
		Name:      name,
		Price:     price,
	}
}

// ProductUpdated is raised when a product changes; OldPath is set when the
// product moved to another subcategory.
type ProductUpdated struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Path      string `json:"path"`
	OldPath   string `json:"old_path,omitempty"`
}

// NewProductUpdated creates a ProductUpdated event
func NewProductUpdated(id, path, oldPath string, timestamp time.Time) ProductUpdated {
	if oldPath == path {
		oldPath = ""
	}
	return ProductUpdated{
		BaseEvent: newBase(path, TypeProductUpdated, timestamp),
		ProductID: id,
		Path:      path,
		OldPath:   oldPath,
	}
}

// ProductDeleted is raised for a single delete, or with Count for delete-all
type ProductDeleted struct {
	BaseEvent
	Path  string `json:"path,omitempty"`
	Count int    `json:"count"`
}

// NewProductDeleted creates a ProductDeleted event
func NewProductDeleted(path string, count int, timestamp time.Time) ProductDeleted {
	return ProductDeleted{
		BaseEvent: newBase(path, TypeProductDeleted, timestamp),
		Path:      path,
		Count:     count,
	}
}

// Catalog Events

// ProductsImported is raised after a bulk import commits
type ProductsImported struct {
	BaseEvent
	Imported int    `json:"imported"`
	Source   string `json:"source,omitempty"`
}

// NewProductsImported creates a ProductsImported event
func NewProductsImported(imported int, source string, timestamp time.Time) ProductsImported {
	return ProductsImported{
		BaseEvent: newBase("catalog", TypeProductsImported, timestamp),
		Imported:  imported,
		Source:    source,
	}
}

// HierarchyDeleted is raised when a company, category or subcategory
// subtree is removed
type HierarchyDeleted struct {
	BaseEvent
	Company     string `json:"company"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Deleted     int    `json:"deleted"`
}

// NewHierarchyDeleted creates a HierarchyDeleted event
func NewHierarchyDeleted(root, company, category, subcategory string, deleted int, timestamp time.Time) HierarchyDeleted {
	return HierarchyDeleted{
		BaseEvent:   newBase(root, TypeHierarchyDeleted, timestamp),
		Company:     company,
		Category:    category,
		Subcategory: subcategory,
		Deleted:     deleted,
	}
}

// FlatProductsMigrated is raised after a non-dry migration run
type FlatProductsMigrated struct {
	BaseEvent
	Moved   int `json:"moved"`
	Skipped int `json:"skipped"`
}

// NewFlatProductsMigrated creates a FlatProductsMigrated event
func NewFlatProductsMigrated(moved, skipped int, timestamp time.Time) FlatProductsMigrated {
	return FlatProductsMigrated{
		BaseEvent: newBase("catalog", TypeFlatProductsMigrated, timestamp),
		Moved:     moved,
		Skipped:   skipped,
	}
}
