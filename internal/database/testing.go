package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/gap-scanner/internal/config"
)

// SetupTestDB connects to the database described by the
// GAP_SCANNER_TEST_DB_* environment variables and ensures the result store
// schema exists. Tests calling it are skipped when GAP_SCANNER_TEST_DB_HOST
// is unset, so the suite stays green without a database.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv("GAP_SCANNER_TEST_DB_HOST")
	if host == "" {
		t.Skip("set GAP_SCANNER_TEST_DB_HOST to run database integration tests")
	}

	cfg := &config.DatabaseConfig{
		Host:           host,
		Port:           testEnvInt("GAP_SCANNER_TEST_DB_PORT", 5432),
		Name:           testEnvString("GAP_SCANNER_TEST_DB_NAME", "gap_scanner_test"),
		User:           testEnvString("GAP_SCANNER_TEST_DB_USER", "postgres"),
		Password:       os.Getenv("GAP_SCANNER_TEST_DB_PASSWORD"),
		SSLMode:        testEnvString("GAP_SCANNER_TEST_DB_SSLMODE", "disable"),
		MaxConnections: 5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		TeardownTestDB(t, db)
		t.Fatalf("failed to prepare test database schema: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Close(ctx); err != nil {
		t.Logf("warning: failed to close test database: %v", err)
	}
}

func testEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
