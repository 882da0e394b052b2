package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store and blob backends
const (
	BackendDynamoDB = "dynamodb"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress      string
	Environment        string
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string

	// AWS configuration
	AWSRegion string

	// Document store
	StoreBackend        string
	TableName           string
	CollectionIndexName string // GSI1 - collection-group scans
	CatalogRoot         string
	MaxBatchOps         int // 0 derives the limit from the store
	BatchSafetyMargin   int // percent

	// Blob storage
	BlobBackend       string
	BlobBucket        string
	BlobPublicBaseURL string

	// Events
	EventBusName string
	EnableEvents bool

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Logging
	LogLevel string

	// Authentication
	AdminUsername string
	AdminPassword string
	JWTSecret     string
	JWTIssuer     string
	TokenTTL      time.Duration

	// Reads
	ProductsCacheTTL time.Duration

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables. Values from
// the given .env files fill in variables the environment does not set;
// missing files are ignored.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		// Imports of large workbooks run well past a normal request
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 300)) * time.Second,
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		AWSRegion: getEnv("AWS_REGION", "ap-south-1"),

		StoreBackend:        getEnv("STORE_BACKEND", BackendDynamoDB),
		TableName:           getEnv("TABLE_NAME", "salesadmin"),
		CollectionIndexName: getEnv("COLLECTION_INDEX_NAME", "CollectionIndex"),
		CatalogRoot:         getEnv("CATALOG_ROOT", "admin-data/root"),
		MaxBatchOps:         getEnvInt("MAX_BATCH_OPS", 0),
		BatchSafetyMargin:   getEnvInt("BATCH_SAFETY_MARGIN", 10),

		BlobBackend:       getEnv("BLOB_BACKEND", BackendS3),
		BlobBucket:        getEnv("BLOB_BUCKET", ""),
		BlobPublicBaseURL: getEnv("BLOB_PUBLIC_BASE_URL", ""),

		EventBusName: getEnv("EVENT_BUS_NAME", "salesadmin-events"),
		EnableEvents: getEnvBool("ENABLE_EVENTS", false),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// Authentication
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTIssuer:     getEnv("JWT_ISSUER", "salesadmin"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 720)) * time.Minute,

		ProductsCacheTTL: time.Duration(getEnvInt("PRODUCTS_CACHE_TTL", 30)) * time.Second,

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	// A Lambda runtime always announces its function name
	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb store")
		}
		if c.CollectionIndexName == "" {
			return fmt.Errorf("COLLECTION_INDEX_NAME is required for the dynamodb store")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.BlobBackend {
	case BackendS3, BackendMemory:
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	if c.MaxBatchOps < 0 {
		return fmt.Errorf("MAX_BATCH_OPS cannot be negative")
	}
	if c.BatchSafetyMargin < 0 || c.BatchSafetyMargin >= 100 {
		return fmt.Errorf("BATCH_SAFETY_MARGIN must be within [0, 100)")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.AdminPassword == "" {
			return fmt.Errorf("ADMIN_PASSWORD is required in production")
		}
		if c.StoreBackend != BackendDynamoDB {
			return fmt.Errorf("production requires the dynamodb store")
		}
		if c.BlobBackend == BackendS3 && c.BlobBucket == "" {
			return fmt.Errorf("BLOB_BUCKET is required in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
