// Package config provides configuration management for the Formcast pipeline.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Documents DocumentsConfig `mapstructure:"documents" validate:"required"`
	Predictor PredictorConfig `mapstructure:"predictor" validate:"required"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" validate:"required"`
	Results   ResultsConfig   `mapstructure:"results"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration. The database
// stores per-race decisions and settled results for the box-bias lookup; it
// is optional for rule-only runs.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// DocumentsConfig configures where raw form-document text comes from.
type DocumentsConfig struct {
	Source         string  `mapstructure:"source" validate:"required,oneof=files remote"`
	Dir            string  `mapstructure:"dir"`
	Pattern        string  `mapstructure:"pattern"`
	RemoteURL      string  `mapstructure:"remote_url" validate:"omitempty,url"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// PredictorConfig represents the external ML predictor service configuration.
type PredictorConfig struct {
	URL                   string `mapstructure:"url" validate:"required,url"`
	APIKey                string `mapstructure:"api_key"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	CacheTTLSeconds       int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize          int    `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// AnalysisConfig tunes scoring, tier gating and hybrid reconciliation.
type AnalysisConfig struct {
	Workers              int      `mapstructure:"workers" validate:"required,gt=0,lte=64"`
	HybridMarginPercent  float64  `mapstructure:"hybrid_margin_percent" validate:"gte=0,lte=100"`
	HybridMLConfidence   float64  `mapstructure:"hybrid_ml_confidence" validate:"gte=0,lte=100"`
	VolatileVenues       []string `mapstructure:"volatile_venues"`
	BoxBiasLookupEnabled bool     `mapstructure:"box_bias_lookup_enabled"`
}

// ResultsConfig configures the live race-result stream feeding the results
// store.
type ResultsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	StreamURL string `mapstructure:"stream_url" validate:"omitempty,url|startswith=ws"`
}

// ScheduleConfig configures periodic batch runs.
type ScheduleConfig struct {
	AnalysisCron        string `mapstructure:"analysis_cron"`
	SyncIntervalSeconds int    `mapstructure:"sync_interval_seconds" validate:"omitempty,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DatabaseEnabled reports whether a database connection is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != "" && c.Database.Name != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
