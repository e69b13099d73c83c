package config

import (
	"os"
	"strings"
	"testing"
)

const (
	validConfigPath     = "testdata/valid_config.yaml"
	expansionConfigPath = "testdata/expansion_config.yaml"
)

func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.App.Name != "gap-scanner" {
		t.Errorf("expected app name 'gap-scanner', got '%s'", cfg.App.Name)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got '%s'", cfg.App.Environment)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("expected database host 'localhost', got '%s'", cfg.Database.Host)
	}
	if cfg.Scanner.MinGapUpPercentage != 70.0 {
		t.Errorf("expected min gap 70.0, got %f", cfg.Scanner.MinGapUpPercentage)
	}
	if cfg.Backtest.StrategyName != "death-candle" {
		t.Errorf("expected strategy 'death-candle', got '%s'", cfg.Backtest.StrategyName)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load("testdata/nonexistent_config.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	t.Setenv("TEST_POLYGON_KEY", "expanded_api_key")

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Database.Password != "expanded_secret_value" {
		t.Errorf("expected expanded password, got '%s'", cfg.Database.Password)
	}
	if cfg.MarketData.APIKey != "expanded_api_key" {
		t.Errorf("expected expanded api key, got '%s'", cfg.MarketData.APIKey)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults("testdata/nonexistent_config.yaml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.Name != "gap-scanner" {
		t.Errorf("expected default app name, got '%s'", cfg.App.Name)
	}
	if cfg.Scanner.MinGapUpPercentage != 70.0 {
		t.Errorf("expected default min gap 70.0, got %f", cfg.Scanner.MinGapUpPercentage)
	}
	if cfg.Backtest.CommissionPercentage != 3.0 {
		t.Errorf("expected default commission 3.0, got %f", cfg.Backtest.CommissionPercentage)
	}
	if cfg.MarketData.APIURL != "https://api.polygon.io" {
		t.Errorf("expected default api url, got '%s'", cfg.MarketData.APIURL)
	}
}

func TestValidateValidConfig(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	cfg.App.Environment = "invalid"
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
	if !strings.Contains(err.Error(), "environment") {
		t.Errorf("expected environment in error, got: %v", err)
	}
}

func TestValidateRejectsCommissionWithoutPercentage(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	cfg.Backtest.CommissionEnabled = true
	cfg.Backtest.CommissionPercentage = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected cross-field validation error")
	}
}

func TestValidateRejectsScheduleWithoutCron(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	cfg.Schedule.Enabled = true
	cfg.Schedule.NightlyScan = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected cross-field validation error")
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("expected postgres:// DSN, got '%s'", dsn)
	}
	if !strings.Contains(dsn, "localhost:5432") {
		t.Errorf("expected host and port in DSN, got '%s'", dsn)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	if os.Getenv("GAP_SCANNER_APP_NAME") != "" {
		t.Skip("GAP_SCANNER_APP_NAME already set")
	}
	t.Setenv("GAP_SCANNER_APP_NAME", "overridden")

	cfg, err := LoadWithDefaults("testdata/nonexistent_config.yaml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.App.Name != "overridden" {
		t.Errorf("expected env override to win, got '%s'", cfg.App.Name)
	}
}
