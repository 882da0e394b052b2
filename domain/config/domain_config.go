package config

import (
	"fmt"
	"time"
)

// MinOpsPerRow is the largest number of writes one imported row can stage:
// three container merges plus the leaf itself.
const MinOpsPerRow = 4

// DomainConfig holds the catalog's business rules and limits
type DomainConfig struct {
	// Path resolution
	FallbackSegment string

	// Batch sizing
	SafetyMarginPercent int
	MaxBatchOpsOverride int

	// Product constraints
	MaxNameLength      int
	EnforceMinPriceCap bool

	// Migration
	LegacyIndicatorFields []string
	MigrationStepRetries  int
	MigrationRetryDelay   time.Duration

	// Reads
	ProductsCacheTTL time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		FallbackSegment: "Unknown",

		SafetyMarginPercent: 10,
		MaxBatchOpsOverride: 0,

		MaxNameLength:      200,
		EnforceMinPriceCap: true,

		LegacyIndicatorFields: []string{
			"price", "productName", "bottomPrice", "minPrice", "bestPrice", "incentive", "mrp", "discount",
		},
		MigrationStepRetries: 1,
		MigrationRetryDelay:  200 * time.Millisecond,

		ProductsCacheTTL: 30 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.MigrationStepRetries = 3
	config.MigrationRetryDelay = time.Second
	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.ProductsCacheTTL = 0
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// ResolveMaxBatchOps derives the per-batch ceiling from a store's hard limit.
// An explicit override wins but may never exceed the hard limit.
func (c *DomainConfig) ResolveMaxBatchOps(hardLimit int) (int, error) {
	if hardLimit < MinOpsPerRow {
		return 0, fmt.Errorf("store batch limit %d is below the %d writes a single row needs", hardLimit, MinOpsPerRow)
	}

	if c.MaxBatchOpsOverride > 0 {
		if c.MaxBatchOpsOverride > hardLimit {
			return 0, fmt.Errorf("max batch ops %d exceeds store limit %d", c.MaxBatchOpsOverride, hardLimit)
		}
		if c.MaxBatchOpsOverride < MinOpsPerRow {
			return 0, fmt.Errorf("max batch ops %d is below the minimum of %d", c.MaxBatchOpsOverride, MinOpsPerRow)
		}
		return c.MaxBatchOpsOverride, nil
	}

	ops := hardLimit - hardLimit*c.SafetyMarginPercent/100
	if ops < MinOpsPerRow {
		ops = MinOpsPerRow
	}
	return ops, nil
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.FallbackSegment == "" {
		return fmt.Errorf("fallback segment cannot be empty")
	}
	if c.SafetyMarginPercent < 0 || c.SafetyMarginPercent >= 100 {
		return fmt.Errorf("safety margin must be within [0, 100): got %d", c.SafetyMarginPercent)
	}
	if c.MaxBatchOpsOverride < 0 {
		return fmt.Errorf("max batch ops override cannot be negative")
	}
	if len(c.LegacyIndicatorFields) == 0 {
		return fmt.Errorf("at least one legacy indicator field is required")
	}
	return nil
}
