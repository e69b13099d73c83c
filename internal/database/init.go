package database

import (
	"context"
	"fmt"

	"github.com/yourusername/gap-scanner/internal/config"
)

// Schema statements for the result store. stock_results carries the
// (date, ticker) uniqueness backing the scanner's insert-or-ignore
// semantics; backtest_results rows are scoped by (dataset, strategy).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stock_results (
		date DATE NOT NULL,
		ticker TEXT NOT NULL,
		gap_up_percentage NUMERIC(10,2) NOT NULL,
		open NUMERIC(12,2) NOT NULL,
		close NUMERIC(12,2) NOT NULL,
		high NUMERIC(12,2) NOT NULL,
		low NUMERIC(12,2) NOT NULL,
		spike_percentage NUMERIC(10,2) NOT NULL,
		o2c_percentage NUMERIC(10,2) NOT NULL,
		volume BIGINT NOT NULL,
		float BIGINT,
		market_cap BIGINT,
		PRIMARY KEY (date, ticker)
	)`,
	`CREATE TABLE IF NOT EXISTS dataset (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		strategy_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS dataset_candidates (
		dataset_id UUID NOT NULL REFERENCES dataset(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		ticker TEXT NOT NULL,
		gap_up_percentage NUMERIC(10,2) NOT NULL,
		open NUMERIC(12,2) NOT NULL,
		close NUMERIC(12,2) NOT NULL,
		high NUMERIC(12,2) NOT NULL,
		low NUMERIC(12,2) NOT NULL,
		spike_percentage NUMERIC(10,2) NOT NULL,
		o2c_percentage NUMERIC(10,2) NOT NULL,
		volume BIGINT NOT NULL,
		float BIGINT,
		market_cap BIGINT,
		PRIMARY KEY (dataset_id, date, ticker)
	)`,
	`CREATE TABLE IF NOT EXISTS backtest_results (
		dataset_id UUID NOT NULL REFERENCES dataset(id) ON DELETE CASCADE,
		strategy_name TEXT NOT NULL,
		date DATE NOT NULL,
		ticker TEXT NOT NULL,
		entry_price NUMERIC(12,2),
		exit_price NUMERIC(12,2),
		entry_time TIMESTAMPTZ,
		profit NUMERIC(10,2),
		stop_loss_time TIMESTAMPTZ,
		gap_up_percentage NUMERIC(10,2),
		open NUMERIC(12,2),
		close NUMERIC(12,2),
		high NUMERIC(12,2),
		low NUMERIC(12,2),
		spike_percentage NUMERIC(10,2),
		o2c_percentage NUMERIC(10,2),
		volume BIGINT,
		float BIGINT,
		market_cap BIGINT,
		PRIMARY KEY (dataset_id, strategy_name, date, ticker)
	)`,
}

// Initialize creates a database connection pool and ensures the result
// store schema exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db); err != nil {
		closeErr := db.Close(ctx)
		if closeErr != nil {
			return nil, fmt.Errorf("%w (close failed: %v)", err, closeErr)
		}
		return nil, err
	}

	return db, nil
}

func ensureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema init failed: %w", err)
		}
	}
	return nil
}
