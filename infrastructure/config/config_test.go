package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, cfg.StoreBackend)
	assert.Equal(t, "admin-data/root", cfg.CatalogRoot)
	assert.Equal(t, 0, cfg.MaxBatchOps)
	assert.Equal(t, 10, cfg.BatchSafetyMargin)
	assert.Equal(t, 30*time.Second, cfg.ProductsCacheTTL)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.IsLambda)
}

func TestLoadConfig_EnvFileFillsGaps(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CATALOG_ROOT=tenants/acme\nMAX_BATCH_OPS=90\n"), 0o600))
	t.Setenv("MAX_BATCH_OPS", "45")
	t.Setenv("CATALOG_ROOT", "")
	require.NoError(t, os.Unsetenv("CATALOG_ROOT"))

	// Act
	cfg, err := LoadConfig(envFile, filepath.Join(dir, "missing.env"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "tenants/acme", cfg.CatalogRoot)
	assert.Equal(t, 45, cfg.MaxBatchOps, "the real environment wins over the file")
}

func TestLoadConfig_LambdaDetected(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "salesadmin-api")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.IsLambda)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Environment:         "development",
			StoreBackend:        BackendDynamoDB,
			TableName:           "t",
			CollectionIndexName: "i",
			BlobBackend:         BackendMemory,
			BatchSafetyMargin:   10,
			TokenTTL:            time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"memory store", func(c *Config) { c.StoreBackend = BackendMemory; c.TableName = "" }, false},
		{"unknown store", func(c *Config) { c.StoreBackend = "sqlite" }, true},
		{"unknown blob backend", func(c *Config) { c.BlobBackend = "gcs" }, true},
		{"missing table", func(c *Config) { c.TableName = "" }, true},
		{"negative batch ops", func(c *Config) { c.MaxBatchOps = -1 }, true},
		{"margin too large", func(c *Config) { c.BatchSafetyMargin = 100 }, true},
		{"production without secret", func(c *Config) { c.Environment = "production"; c.AdminPassword = "x" }, true},
		{"production without password", func(c *Config) { c.Environment = "production"; c.JWTSecret = "s" }, true},
		{"production ready", func(c *Config) { c.Environment = "production"; c.JWTSecret = "s"; c.AdminPassword = "p" }, false},
		{"production on memory", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s"
			c.AdminPassword = "p"
			c.StoreBackend = BackendMemory
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com, ,http://localhost:3000")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://admin.example.com", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.RequestTimeout)
}
