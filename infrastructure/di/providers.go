package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"salesadmin/application/commands/bus"
	commandhandlers "salesadmin/application/commands/handlers"
	"salesadmin/application/ports"
	querybus "salesadmin/application/queries/bus"
	queryhandlers "salesadmin/application/queries/handlers"
	"salesadmin/application/services"
	domainconfig "salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/validators"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/infrastructure/config"
	"salesadmin/infrastructure/messaging"
	"salesadmin/infrastructure/messaging/eventbridge"
	"salesadmin/infrastructure/persistence/dynamodb"
	"salesadmin/infrastructure/persistence/memory"
	blobmemory "salesadmin/infrastructure/storage/memory"
	s3store "salesadmin/infrastructure/storage/s3"
	"salesadmin/interfaces/http/rest"
	"salesadmin/interfaces/http/rest/handlers"
	"salesadmin/pkg/auth"
	"salesadmin/pkg/errors"
	"salesadmin/pkg/observability"
)

// ServiceName names the service in logs, traces and metrics
const ServiceName = "salesadmin"

// BatchLimit is the resolved per-batch write ceiling
type BatchLimit int

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build(zap.Fields(
		zap.String("service", ServiceName),
		zap.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideAWSConfig creates AWS configuration. With tracing on, every SDK
// call is recorded as an X-Ray subsegment.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDomainConfig applies the deployment's tunables to the catalog rules
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	domainCfg.SafetyMarginPercent = cfg.BatchSafetyMargin
	domainCfg.MaxBatchOpsOverride = cfg.MaxBatchOps
	domainCfg.ProductsCacheTTL = cfg.ProductsCacheTTL
	if err := domainCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return domainCfg, nil
}

// ProvideCatalogLayout roots the catalog tree
func ProvideCatalogLayout(cfg *config.Config) (valueobjects.CatalogLayout, error) {
	return valueobjects.NewCatalogLayout(cfg.CatalogRoot)
}

// ProvideDocumentStore selects the DynamoDB or in-memory store
func ProvideDocumentStore(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.DocumentStore {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("Using the in-memory document store; data is lost on exit")
		return memory.NewDocumentStore()
	}
	return dynamodb.NewDocumentStore(
		awsdynamodb.NewFromConfig(awsCfg),
		cfg.TableName,
		cfg.CollectionIndexName,
		logger,
	)
}

// ProvideBatchLimit derives the write ceiling from the store's hard limit
func ProvideBatchLimit(store ports.DocumentStore, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) (BatchLimit, error) {
	ops, err := domainCfg.ResolveMaxBatchOps(store.MaxBatchOps())
	if err != nil {
		return 0, err
	}
	logger.Info("Batch limit resolved",
		zap.Int("store_limit", store.MaxBatchOps()),
		zap.Int("max_batch_ops", ops),
	)
	return BatchLimit(ops), nil
}

// ProvideLocker guards bulk jobs. The DynamoDB lease spans processes and
// Lambda instances; the in-memory one only this process.
func ProvideLocker(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.Locker {
	if cfg.StoreBackend == config.BackendMemory {
		return memory.NewLocker()
	}
	return dynamodb.NewLocker(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName, logger)
}

// ProvideBlobStore selects S3 or in-memory blob storage
func ProvideBlobStore(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.BlobStore {
	if cfg.BlobBackend == config.BackendMemory || cfg.BlobBucket == "" {
		if cfg.BlobBackend == config.BackendS3 {
			logger.Warn("BLOB_BUCKET is not set; uploads are kept in memory")
		}
		return blobmemory.NewBlobStore()
	}
	return s3store.NewBlobStore(
		awss3.NewFromConfig(awsCfg),
		cfg.BlobBucket,
		cfg.AWSRegion,
		cfg.BlobPublicBaseURL,
		logger,
	)
}

// ProvideEventPublisher sends events to EventBridge when enabled and logs
// them otherwise
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideCache creates the product listing cache
func ProvideCache() (ports.Cache, func()) {
	cache := NewInMemoryCache()
	return cache, cache.Close
}

// ProvideMetrics creates metrics instance. Disabled metrics record nothing.
func ProvideMetrics(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("SalesAdmin/%s", cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(ServiceName, cfg.EnableTracing)
}

// ProvideProductService creates the interactive product service
func ProvideProductService(
	store ports.DocumentStore,
	layout valueobjects.CatalogLayout,
	ancestors *services.AncestorUpserter,
	reader *services.CatalogReader,
	validator *validators.ProductValidator,
	limit BatchLimit,
	logger *zap.Logger,
) *services.ProductService {
	return services.NewProductService(store, layout, ancestors, reader, validator, int(limit), logger)
}

// ProvideBulkImporter creates the spreadsheet importer
func ProvideBulkImporter(
	store ports.DocumentStore,
	layout valueobjects.CatalogLayout,
	ancestors *services.AncestorUpserter,
	limit BatchLimit,
	domainCfg *domainconfig.DomainConfig,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.BulkImporter {
	return services.NewBulkImporter(store, layout, ancestors, int(limit), domainCfg, tracer, logger)
}

// ProvideSubtreeDeleter creates the hierarchy deleter
func ProvideSubtreeDeleter(store ports.DocumentStore, layout valueobjects.CatalogLayout, limit BatchLimit, logger *zap.Logger) *services.SubtreeDeleter {
	return services.NewSubtreeDeleter(store, layout, int(limit), logger)
}

// ProvideEmployeeRecords creates the employee record service
func ProvideEmployeeRecords(store ports.DocumentStore, layout valueobjects.CatalogLayout, blobs ports.BlobStore, logger *zap.Logger) *services.RecordService[*entities.Employee] {
	return services.NewRecordService("employees", store, layout, blobs, func() *entities.Employee { return &entities.Employee{} }, logger)
}

// ProvideOfferRecords creates the offer record service
func ProvideOfferRecords(store ports.DocumentStore, layout valueobjects.CatalogLayout, blobs ports.BlobStore, logger *zap.Logger) *services.RecordService[*entities.Offer] {
	return services.NewRecordService("offers", store, layout, blobs, func() *entities.Offer { return &entities.Offer{} }, logger)
}

// ProvideCatalogRecords creates the brochure record service
func ProvideCatalogRecords(store ports.DocumentStore, layout valueobjects.CatalogLayout, blobs ports.BlobStore, logger *zap.Logger) *services.RecordService[*entities.Catalog] {
	return services.NewRecordService("catalogs", store, layout, blobs, func() *entities.Catalog { return &entities.Catalog{} }, logger)
}

// ProvideAppointmentRecords creates the appointment record service
func ProvideAppointmentRecords(store ports.DocumentStore, layout valueobjects.CatalogLayout, blobs ports.BlobStore, logger *zap.Logger) *services.RecordService[*entities.Appointment] {
	return services.NewRecordService("appointments", store, layout, blobs, func() *entities.Appointment { return &entities.Appointment{} }, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	products *services.ProductService,
	importer *services.BulkImporter,
	deleter *services.SubtreeDeleter,
	migrator *services.FlatMigrator,
	reader *services.CatalogReader,
	layout valueobjects.CatalogLayout,
	publisher ports.EventPublisher,
	locker ports.Locker,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)

	if err := commandhandlers.NewProductCommandHandlers(products, publisher, logger).Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register product commands: %w", err)
	}
	catalog := commandhandlers.NewCatalogCommandHandlers(
		importer, deleter, migrator, products, reader, layout, publisher, locker, metrics, logger,
	)
	if err := catalog.Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register catalog commands: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	reader *services.CatalogReader,
	products *services.ProductService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.LoggingMiddleware(logger),
		querybus.MetricsMiddleware(metrics),
	)
	if err := queryhandlers.NewCatalogQueryHandlers(reader, products, logger).Register(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register catalog queries: %w", err)
	}
	return queryBus, nil
}

// ProvideErrorHandler renders API errors; outside production messages and
// stack traces are included
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, !cfg.IsProduction())
}

// ProvideTokenService creates the admin token service. Without a configured
// secret a random one is used, so tokens do not survive a restart.
func ProvideTokenService(cfg *config.Config, logger *zap.Logger) (*auth.TokenService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET is not set; using a random per-process secret")
		secret = uuid.NewString() + uuid.NewString()
	}
	return auth.NewTokenService(auth.TokenConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		TTL:       cfg.TokenTTL,
	})
}

// ProvideHandlers creates every HTTP handler
func ProvideHandlers(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens *auth.TokenService,
	employees *services.RecordService[*entities.Employee],
	offers *services.RecordService[*entities.Offer],
	catalogs *services.RecordService[*entities.Catalog],
	appointments *services.RecordService[*entities.Appointment],
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) rest.Handlers {
	return rest.Handlers{
		Auth: handlers.NewAuthHandler(
			auth.AdminCredentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
			tokens,
			auth.NewIPRateLimiter(handlers.LoginAttemptsPerMinute),
			errHandler,
			logger,
		),
		Products:     handlers.NewProductHandler(commandBus, queryBus, errHandler, logger),
		Hierarchy:    handlers.NewHierarchyHandler(commandBus, queryBus, errHandler, logger),
		Imports:      handlers.NewImportHandler(commandBus, errHandler, logger),
		Employees:    handlers.NewRecordHandler(employees, errHandler, logger),
		Offers:       handlers.NewRecordHandler(offers, errHandler, logger),
		Catalogs:     handlers.NewRecordHandler(catalogs, errHandler, logger),
		Appointments: handlers.NewRecordHandler(appointments, errHandler, logger),
	}
}

// ProvideReadinessCheck probes the document store. A missing catalog root
// still proves the store answers.
func ProvideReadinessCheck(store ports.DocumentStore, layout valueobjects.CatalogLayout) rest.ReadinessCheck {
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, layout.Root())
		if err != nil && !errors.IsNotFound(err) {
			return err
		}
		return nil
	}
}

// ProvideHTTPHandler builds the routed HTTP handler
func ProvideHTTPHandler(
	cfg *config.Config,
	h rest.Handlers,
	tokens *auth.TokenService,
	errHandler *errors.ErrorHandler,
	ready rest.ReadinessCheck,
	logger *zap.Logger,
) http.Handler {
	router := rest.NewRouter(h, tokens, errHandler, ready, rest.RouterConfig{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)
	return router.Setup()
}
