package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is a flat admin document stored in its own collection under the
// catalog root.
type Record interface {
	RecordID() string
	SetRecordID(id string)
	Stamp(now time.Time)
	BlobURLs() []string
}

// Timestamps is embedded by every record
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stamp sets createdAt once and updatedAt every time
func (t *Timestamps) Stamp(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// CreatedTime returns when the record was first stored
func (t Timestamps) CreatedTime() time.Time { return t.CreatedAt }

// Employee is a member of the sales team
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	JoinedOn   string `json:"joinedOn,omitempty"`
	Active     bool   `json:"active"`
	Timestamps
}

func (e *Employee) RecordID() string      { return e.ID }
func (e *Employee) SetRecordID(id string) { e.ID = id }
func (e *Employee) BlobURLs() []string    { return nil }

// Offer is a promotion shown in the storefront carousel
type Offer struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description,omitempty"`
	Company     string   `json:"company,omitempty"`
	ValidFrom   string   `json:"validFrom,omitempty"`
	ValidUntil  string   `json:"validUntil,omitempty"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	Active      bool     `json:"active"`
	Timestamps
}

func (o *Offer) RecordID() string      { return o.ID }
func (o *Offer) SetRecordID(id string) { o.ID = id }
func (o *Offer) BlobURLs() []string    { return append([]string(nil), o.Images...) }

// Catalog is a downloadable brochure
type Catalog struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required,max=200"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
	FileURL     string `json:"fileUrl,omitempty" validate:"omitempty,url"`
	FileName    string `json:"fileName,omitempty"`
	Timestamps
}

func (c *Catalog) RecordID() string      { return c.ID }
func (c *Catalog) SetRecordID(id string) { c.ID = id }

func (c *Catalog) BlobURLs() []string {
	if c.FileURL == "" {
		return nil
	}
	return []string{c.FileURL}
}

// Appointment statuses
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment is a customer follow-up
type Appointment struct {
	ID              string     `json:"id"`
	CustomerName    string     `json:"customerName" validate:"required,max=120"`
	Phone           string     `json:"phone" validate:"required,max=20"`
	Email           string     `json:"email,omitempty" validate:"omitempty,email"`
	ProductInterest string     `json:"productInterest,omitempty"`
	ScheduledAt     time.Time  `json:"scheduledAt" validate:"required"`
	FollowUpAt      *time.Time `json:"followUpAt,omitempty"`
	Status          string     `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	AssignedTo      string     `json:"assignedTo,omitempty"`
	Notes           string     `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Timestamps
}

func (a *Appointment) RecordID() string      { return a.ID }
func (a *Appointment) SetRecordID(id string) { a.ID = id }
func (a *Appointment) BlobURLs() []string    { return nil }

// Stamp also defaults the status of new appointments
func (a *Appointment) Stamp(now time.Time) {
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	a.Timestamps.Stamp(now)
}

// RecordFields renders a record as a document body
func RecordFields(r Record) (map[string]interface{}, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return fields, nil
}

// DecodeRecord fills r from a stored document body
func DecodeRecord(fields map[string]interface{}, r Record) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
