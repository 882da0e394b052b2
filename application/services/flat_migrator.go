package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/application/sagas"
	"salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
	"salesadmin/pkg/observability"
)

// MigrationResult summarizes a flat-to-nested migration run. Containers
// counts company documents found in the flat collection; they are expected
// there and are neither moved nor skipped.
type MigrationResult struct {
	Moved      int           `json:"moved"`
	Skipped    int           `json:"skipped"`
	Containers int           `json:"containers"`
	DryRun     bool          `json:"dryRun"`
	Planned    []PlannedMove `json:"planned,omitempty"`
}

// PlannedMove is one flat document and the leaf it becomes
type PlannedMove struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// FlatMigrator moves legacy products stored directly in the top-level
// products collection into the nested hierarchy, keeping their ids.
type FlatMigrator struct {
	store     ports.DocumentStore
	layout    valueobjects.CatalogLayout
	ancestors *AncestorUpserter
	config    *config.DomainConfig
	tracer    *observability.Tracer
	logger    *zap.Logger
	now       func() time.Time
}

// NewFlatMigrator creates a new flat migrator
func NewFlatMigrator(
	store ports.DocumentStore,
	layout valueobjects.CatalogLayout,
	ancestors *AncestorUpserter,
	domainConfig *config.DomainConfig,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *FlatMigrator {
	return &FlatMigrator{
		store:     store,
		layout:    layout,
		ancestors: ancestors,
		config:    domainConfig,
		tracer:    tracer,
		logger:    logger,
		now:       time.Now,
	}
}

// Migrate moves every product-like flat document. Each document moves in
// its own ensure-ancestors, write-leaf, delete-original sequence, so a run
// that stops halfway can simply be repeated. A dry run only reports.
func (m *FlatMigrator) Migrate(ctx context.Context, dryRun bool) (MigrationResult, error) {
	result := MigrationResult{DryRun: dryRun}

	docs, err := m.store.ListChildren(ctx, m.layout.ProductsRoot())
	if err != nil {
		return result, fmt.Errorf("failed to list flat products: %w", err)
	}

	for _, doc := range docs {
		if !entities.LooksLikeProduct(doc.Data, m.config.LegacyIndicatorFields) {
			if entities.IsContainerShape(doc.Data) {
				result.Containers++
			} else {
				result.Skipped++
				m.logger.Debug("Skipping flat document without product fields", zap.String("path", doc.Path.String()))
			}
			continue
		}

		product := entities.NormalizeProduct(doc.Path, doc.Data)
		seg := product.Segments()
		if seg.Company == doc.ID() {
			// the document is also the company container its own leaf would need
			result.Skipped++
			m.logger.Warn("Skipping flat product that shadows its company container",
				zap.String("path", doc.Path.String()))
			continue
		}

		target := m.layout.LeafDoc(seg, doc.ID())
		move := PlannedMove{ID: doc.ID(), From: doc.Path.String(), To: target.String()}

		if dryRun {
			result.Moved++
			result.Planned = append(result.Planned, move)
			m.logger.Info("Planned move", zap.String("from", move.From), zap.String("to", move.To))
			continue
		}

		err := m.tracer.TraceFunction(ctx, "catalog.migrate.move", func(ctx context.Context) error {
			m.tracer.AddAnnotation(ctx, "product_id", doc.ID())
			return m.move(ctx, doc, product, target)
		})
		if err != nil {
			m.logger.Error("Migration stopped",
				zap.String("path", doc.Path.String()),
				zap.Int("moved", result.Moved),
				zap.Error(err),
			)
			if result.Moved == 0 {
				return result, err
			}
			return result, errors.NewPartialBatchFailureError(result.Moved, err)
		}
		result.Moved++
	}

	m.logger.Info("Flat product migration finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("moved", result.Moved),
		zap.Int("skipped", result.Skipped),
		zap.Int("containers", result.Containers),
	)
	return result, nil
}

func (m *FlatMigrator) move(ctx context.Context, doc ports.Document, product entities.Product, target valueobjects.DocPath) error {
	migratedAt := m.now()
	product.MigratedAt = &migratedAt

	fields := make(map[string]interface{}, len(doc.Data)+4)
	for k, v := range doc.Data {
		fields[k] = v
	}
	for k, v := range product.Fields() {
		fields[k] = v
	}

	saga := sagas.NewSagaBuilder("migrate-flat-product", m.logger).
		WithMetadata("product_id", doc.ID()).
		WithRetryPolicy(m.config.MigrationStepRetries, m.config.MigrationRetryDelay, isRetryable).
		WithStep("ensure ancestors", func(ctx context.Context, _ interface{}) (interface{}, error) {
			return nil, m.ancestors.Ensure(ctx, product.Segments())
		}).
		WithStep("write leaf", func(ctx context.Context, _ interface{}) (interface{}, error) {
			return nil, m.store.SetMerge(ctx, target, fields)
		}).
		WithStep("delete flat document", func(ctx context.Context, _ interface{}) (interface{}, error) {
			return nil, m.store.Delete(ctx, doc.Path)
		}).
		Build()

	if _, err := saga.Execute(ctx, nil); err != nil {
		m.logger.Warn("Flat product move failed",
			zap.String("product_id", doc.ID()),
			zap.String("saga_state", string(saga.GetState())),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// isRetryable leaves caller mistakes alone and retries everything else
func isRetryable(err error) bool {
	return !errors.IsValidation(err) && !errors.IsNotFound(err)
}
