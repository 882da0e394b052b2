package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
	"salesadmin/pkg/observability"
)

// ImportResult summarizes one bulk import run
type ImportResult struct {
	Imported    int `json:"imported"`
	Skipped     int `json:"skipped"`
	Hierarchies int `json:"hierarchies"`
	Batches     int `json:"batches"`
}

// BulkImporter turns spreadsheet rows into product leaves. Rows are never
// rejected: unmatched columns fall back to "Unknown" or 0. Every row gets a
// fresh id, so importing the same sheet twice duplicates its products.
type BulkImporter struct {
	store       ports.DocumentStore
	layout      valueobjects.CatalogLayout
	ancestors   *AncestorUpserter
	maxBatchOps int
	fallback    string
	tracer      *observability.Tracer
	logger      *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewBulkImporter creates a new bulk importer. maxBatchOps must already be
// resolved against the store limit.
func NewBulkImporter(
	store ports.DocumentStore,
	layout valueobjects.CatalogLayout,
	ancestors *AncestorUpserter,
	maxBatchOps int,
	domainConfig *config.DomainConfig,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *BulkImporter {
	return &BulkImporter{
		store:       store,
		layout:      layout,
		ancestors:   ancestors,
		maxBatchOps: maxBatchOps,
		fallback:    domainConfig.FallbackSegment,
		tracer:      tracer,
		logger:      logger,
		newID:       func() string { return uuid.New().String() },
		now:         time.Now,
	}
}

// Import stages rows into batches of at most maxBatchOps writes and commits
// them in order. The first failed commit stops the run; batches committed
// before it stay, and the error reports how many products they hold.
func (b *BulkImporter) Import(ctx context.Context, rows []RawRow) (ImportResult, error) {
	var result ImportResult
	if b.maxBatchOps < config.MinOpsPerRow {
		return result, errors.NewValidationError(
			fmt.Sprintf("max batch ops %d cannot hold a single row", b.maxBatchOps))
	}

	tracker := NewAncestorTracker()
	batch := b.store.NewBatch()
	staged := 0
	createdAt := entities.FormatTime(b.now())

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		err := b.tracer.TraceFunction(ctx, "catalog.import.flush", func(ctx context.Context) error {
			b.tracer.AddMetadata(ctx, "staged_ops", batch.Len())
			return batch.Commit(ctx)
		})
		if err != nil {
			b.logger.Error("Import batch failed",
				zap.Int("committed", result.Imported),
				zap.Int("lost", staged),
				zap.Error(err),
			)
			if result.Imported == 0 {
				return fmt.Errorf("failed to commit import batch: %w", err)
			}
			return errors.NewPartialBatchFailureError(result.Imported, err)
		}

		result.Imported += staged
		result.Batches++
		b.logger.Debug("Import batch committed",
			zap.Int("products", staged),
			zap.Int("total", result.Imported),
		)
		staged = 0
		batch = b.store.NewBatch()
		return nil
	}

	for _, raw := range rows {
		if err := ctx.Err(); err != nil {
			return result, b.abort(result, err)
		}
		if isBlankRow(raw) {
			result.Skipped++
			continue
		}

		row := MapRow(raw, b.fallback)
		needed := 1
		newTuple := !tracker.Seen(row.Segments)
		if newTuple {
			needed += AncestorOps
		}

		if batch.Len()+needed > b.maxBatchOps {
			if err := flush(); err != nil {
				return result, err
			}
		}

		if newTuple {
			tracker.Mark(row.Segments)
			b.ancestors.Stage(batch, row.Segments)
		}
		batch.Set(b.layout.LeafDoc(row.Segments, b.newID()), row.Fields(createdAt))
		staged++
	}

	if err := flush(); err != nil {
		return result, err
	}

	result.Hierarchies = tracker.Len()
	b.logger.Info("Products imported",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("hierarchies", result.Hierarchies),
		zap.Int("batches", result.Batches),
	)
	return result, nil
}

func (b *BulkImporter) abort(result ImportResult, err error) error {
	if result.Imported == 0 {
		return err
	}
	return errors.NewPartialBatchFailureError(result.Imported, err)
}

func isBlankRow(row RawRow) bool {
	for _, v := range row {
		if !blank(v) {
			return false
		}
	}
	return true
}
