package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/common"
	"salesadmin/pkg/errors"
	"salesadmin/pkg/utils"
)

// RecordService stores one kind of flat admin record (employees, offers,
// catalogs, appointments) in its own collection under the catalog root.
type RecordService[T entities.Record] struct {
	name       string
	store      ports.DocumentStore
	collection valueobjects.CollectionPath
	blobs      ports.BlobStore
	newRecord  func() T
	logger     *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewRecordService creates a record service for the named collection
func NewRecordService[T entities.Record](
	name string,
	store ports.DocumentStore,
	layout valueobjects.CatalogLayout,
	blobs ports.BlobStore,
	newRecord func() T,
	logger *zap.Logger,
) *RecordService[T] {
	return &RecordService[T]{
		name:       name,
		store:      store,
		collection: layout.Records(name),
		blobs:      blobs,
		newRecord:  newRecord,
		logger:     logger.With(zap.String("collection", name)),
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
}

// Name is the collection name
func (s *RecordService[T]) Name() string {
	return s.name
}

// New returns an empty record ready to decode into
func (s *RecordService[T]) New() T {
	return s.newRecord()
}

// Create validates and stores a new record under a fresh id
func (s *RecordService[T]) Create(ctx context.Context, record T) (T, error) {
	record.SetRecordID(s.newID())
	record.Stamp(s.now().UTC())
	if err := utils.ValidateStruct(record); err != nil {
		return record, err
	}
	if err := s.write(ctx, record); err != nil {
		return record, err
	}

	s.logger.Info("Record created", zap.String("id", record.RecordID()))
	return record, nil
}

// Get loads one record
func (s *RecordService[T]) Get(ctx context.Context, id string) (T, error) {
	record := s.newRecord()
	if strings.TrimSpace(id) == "" {
		return record, errors.NewValidationError("id is required")
	}

	doc, err := s.store.Get(ctx, s.collection.Doc(id))
	if err != nil {
		if errors.IsNotFound(err) {
			return record, errors.NewNotFoundError(strings.TrimSuffix(s.name, "s")).WithDetail("id", id)
		}
		return record, err
	}
	if err := entities.DecodeRecord(doc.Data, record); err != nil {
		return record, err
	}
	record.SetRecordID(doc.ID())
	return record, nil
}

// List returns one page of records, newest first
func (s *RecordService[T]) List(ctx context.Context, params common.PaginationParams) (common.Page[T], error) {
	docs, err := s.store.ListChildren(ctx, s.collection)
	if err != nil {
		return common.Page[T]{}, fmt.Errorf("failed to list %s: %w", s.name, err)
	}

	records := make([]T, 0, len(docs))
	for _, doc := range docs {
		record := s.newRecord()
		if err := entities.DecodeRecord(doc.Data, record); err != nil {
			s.logger.Warn("Skipping unreadable record", zap.String("id", doc.ID()), zap.Error(err))
			continue
		}
		record.SetRecordID(doc.ID())
		records = append(records, record)
	}

	sortNewestFirst(records)
	return common.Paginate(records, params), nil
}

// Update merges a partial JSON body into the stored record. The id and
// createdAt cannot be changed.
func (s *RecordService[T]) Update(ctx context.Context, id string, patch map[string]interface{}) (T, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return current, err
	}

	fields, err := entities.RecordFields(current)
	if err != nil {
		return current, err
	}
	for k, v := range patch {
		switch k {
		case "id", "createdAt", "updatedAt":
			continue
		}
		fields[k] = v
	}

	updated := s.newRecord()
	if err := entities.DecodeRecord(fields, updated); err != nil {
		return current, errors.NewValidationError(fmt.Sprintf("invalid %s: %v", s.name, err))
	}
	updated.SetRecordID(id)
	updated.Stamp(s.now().UTC())
	if err := utils.ValidateStruct(updated); err != nil {
		return current, err
	}
	if err := s.write(ctx, updated); err != nil {
		return current, err
	}
	return updated, nil
}

// Delete removes the record, then its blobs. Blob cleanup is best effort:
// failures are logged and the delete still succeeds.
func (s *RecordService[T]) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, s.collection.Doc(id)); err != nil {
		return fmt.Errorf("failed to delete %s record: %w", s.name, err)
	}

	for _, url := range record.BlobURLs() {
		if s.blobs == nil {
			break
		}
		if err := s.blobs.Delete(ctx, url); err != nil {
			s.logger.Warn("Failed to delete blob of removed record",
				zap.String("id", id),
				zap.String("url", url),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Record deleted", zap.String("id", id))
	return nil
}

// AttachBlob uploads a file and lets attach store its URL on the record
func (s *RecordService[T]) AttachBlob(
	ctx context.Context,
	id string,
	filename string,
	body io.Reader,
	contentType string,
	attach func(record T, url string) error,
) (T, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return record, err
	}
	if s.blobs == nil {
		return record, errors.NewInternalError("blob storage is not configured")
	}

	key := path.Join(s.name, id, uuid.New().String()+"-"+sanitizeFilename(filename))
	url, err := s.blobs.Put(ctx, key, body, contentType)
	if err != nil {
		return record, fmt.Errorf("failed to upload file: %w", err)
	}

	if err := attach(record, url); err != nil {
		s.cleanupBlob(ctx, url)
		return record, err
	}
	record.Stamp(s.now().UTC())
	if err := utils.ValidateStruct(record); err != nil {
		s.cleanupBlob(ctx, url)
		return record, err
	}
	if err := s.write(ctx, record); err != nil {
		s.cleanupBlob(ctx, url)
		return record, err
	}

	s.logger.Info("File attached", zap.String("id", id), zap.String("url", url))
	return record, nil
}

func (s *RecordService[T]) write(ctx context.Context, record T) error {
	fields, err := entities.RecordFields(record)
	if err != nil {
		return err
	}
	delete(fields, "id")
	if err := s.store.Set(ctx, s.collection.Doc(record.RecordID()), fields); err != nil {
		return fmt.Errorf("failed to save %s record: %w", s.name, err)
	}
	return nil
}

func (s *RecordService[T]) cleanupBlob(ctx context.Context, url string) {
	if err := s.blobs.Delete(ctx, url); err != nil {
		s.logger.Warn("Failed to clean up uploaded blob", zap.String("url", url), zap.Error(err))
	}
}

type stamped interface {
	CreatedTime() time.Time
}

func sortNewestFirst[T entities.Record](records []T) {
	created := func(r T) time.Time {
		if s, ok := any(r).(stamped); ok {
			return s.CreatedTime()
		}
		return time.Time{}
	}
	// insertion sort keeps equal timestamps in store order
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && created(records[j]).After(created(records[j-1])); j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
