// Package config defines the unified configuration for the extraction,
// storage, and analytics layers, with YAML loading and ${ENV_VAR}
// substitution.
//
// Example usage:
//
//	cfg := config.Default()
//	if err := config.Load("tt-search.yaml", cfg); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration document.
type Config struct {
	Extract   ExtractConfig   `yaml:"extract" json:"extract"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Analytics AnalyticsConfig `yaml:"analytics" json:"analytics"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ExtractConfig tunes extraction runs.
type ExtractConfig struct {
	// RequestsPerSecond is the process-wide fetch budget shared by
	// all concurrent runs.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	// Burst is the token bucket capacity.
	Burst int `yaml:"burst" json:"burst"`
	// AdaptiveRate backs the fetch budget off when the source slows
	// down or errors, and grows it back on a healthy window.
	AdaptiveRate bool `yaml:"adaptive_rate" json:"adaptive_rate"`
	// MaxPages caps pagination per run.
	MaxPages int `yaml:"max_pages" json:"max_pages"`
	// DefaultLimit applies when a query carries no limit.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// Retry settings for failed page fetches
	RetryAttempts   int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry_delay"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay" json:"retry_max_delay"`
	RetryMultiplier float64       `yaml:"retry_multiplier" json:"retry_multiplier"`

	// Circuit breaker settings for a persistently blocked source
	BreakerFailureThreshold int           `yaml:"breaker_failure_threshold" json:"breaker_failure_threshold"`
	BreakerSuccessThreshold int           `yaml:"breaker_success_threshold" json:"breaker_success_threshold"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout" json:"breaker_timeout"`
}

// StorageConfig tunes the columnar store.
type StorageConfig struct {
	// BasePath is the dataset root directory.
	BasePath string `yaml:"base_path" json:"base_path"`
	// Compression preset: none, fast, balanced, high.
	Compression string `yaml:"compression" json:"compression"`
	// PartitionBy optionally names a schema field to partition on.
	PartitionBy string `yaml:"partition_by" json:"partition_by"`
	// RowGroupSize bounds rows per row group.
	RowGroupSize int `yaml:"row_group_size" json:"row_group_size"`
}

// AnalyticsConfig tunes the analytics engine.
type AnalyticsConfig struct {
	// Clusters is the default content cluster count.
	Clusters int `yaml:"clusters" json:"clusters"`
	// MaxFeatures caps the TF-IDF vocabulary.
	MaxFeatures int `yaml:"max_features" json:"max_features"`
	// TopLimit is the default size of rankings.
	TopLimit int `yaml:"top_limit" json:"top_limit"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
	Encoding    string `yaml:"encoding" json:"encoding"`
}

// Default returns a configuration with production-ready values.
func Default() *Config {
	return &Config{
		Extract: ExtractConfig{
			RequestsPerSecond:       0.5,
			Burst:                   3,
			MaxPages:                50,
			DefaultLimit:            100,
			RetryAttempts:           3,
			RetryDelay:              time.Second,
			RetryMaxDelay:           30 * time.Second,
			RetryMultiplier:         2.0,
			BreakerFailureThreshold: 5,
			BreakerSuccessThreshold: 2,
			BreakerTimeout:          30 * time.Second,
		},
		Storage: StorageConfig{
			BasePath:     "data",
			Compression:  "balanced",
			RowGroupSize: 10000,
		},
		Analytics: AnalyticsConfig{
			Clusters:    5,
			MaxFeatures: 100,
			TopLimit:    10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Extract.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.Extract.Burst <= 0 {
		return fmt.Errorf("burst must be positive")
	}
	if c.Extract.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive")
	}
	if c.Extract.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	switch c.Storage.Compression {
	case "none", "fast", "balanced", "high":
	default:
		return fmt.Errorf("unknown compression preset %q", c.Storage.Compression)
	}
	if c.Storage.RowGroupSize <= 0 {
		return fmt.Errorf("row_group_size must be positive")
	}
	if c.Analytics.Clusters <= 0 {
		return fmt.Errorf("clusters must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
