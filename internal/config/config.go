// Package config provides configuration management for the gap scanner.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	MarketData MarketDataConfig `mapstructure:"market_data" validate:"required"`
	Scanner    ScannerConfig    `mapstructure:"scanner" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// MarketDataConfig represents the Polygon data provider configuration
type MarketDataConfig struct {
	APIURL            string  `mapstructure:"api_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	RateLimitPerSec   float64 `mapstructure:"rate_limit_per_sec" validate:"required,gt=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RefCacheTTLMinutes int    `mapstructure:"ref_cache_ttl_minutes" validate:"required,gt=0"`
}

// ScannerConfig represents gap scan configuration
type ScannerConfig struct {
	MinGapUpPercentage  float64 `mapstructure:"min_gap_up_percentage" validate:"required,gt=0"`
	ProgressDelayMillis int     `mapstructure:"progress_delay_millis" validate:"gte=0"`
	StreamPort          int     `mapstructure:"stream_port" validate:"omitempty,min=1,max=65535"`
}

// BacktestConfig represents backtest configuration
type BacktestConfig struct {
	StrategyName         string  `mapstructure:"strategy_name" validate:"required"`
	CommissionEnabled    bool    `mapstructure:"commission_enabled"`
	CommissionPercentage float64 `mapstructure:"commission_percentage" validate:"gte=0,lte=100"`
	OutputPath           string  `mapstructure:"output_path" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// ScheduleConfig represents the nightly scan schedule
type ScheduleConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	NightlyScan   string `mapstructure:"nightly_scan"`
	SaveToDataset string `mapstructure:"save_to_dataset"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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
