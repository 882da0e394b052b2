//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"salesadmin/application/services"
	"salesadmin/domain/core/validators"
	"salesadmin/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDomainConfig,
	ProvideCatalogLayout,
	ProvideDocumentStore,
	ProvideBatchLimit,
	ProvideLocker,
	ProvideBlobStore,
	ProvideEventPublisher,
	ProvideCache,
	ProvideMetrics,
	ProvideTracer,
	validators.NewProductValidator,
	services.NewAncestorUpserter,
	services.NewCatalogReader,
	services.NewFlatMigrator,
	ProvideProductService,
	ProvideBulkImporter,
	ProvideSubtreeDeleter,
	ProvideEmployeeRecords,
	ProvideOfferRecords,
	ProvideCatalogRecords,
	ProvideAppointmentRecords,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideTokenService,
	ProvideHandlers,
	ProvideReadinessCheck,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
