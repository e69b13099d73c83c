// Package repository implements the PostgreSQL result store for scan and
// backtest output.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/gap-scanner/internal/models"
)

// CandidateRepository persists gap-up scan results keyed by (date, ticker).
type CandidateRepository interface {
	// Save inserts candidates, ignoring rows whose (date, ticker) key
	// already exists. Rows are never overwritten once saved.
	Save(ctx context.Context, candidates []models.GapUpCandidate) error
	GetByDateRange(ctx context.Context, from, to time.Time) ([]models.GapUpCandidate, error)
	// ExistsForDate reports whether any rows were saved for the date.
	ExistsForDate(ctx context.Context, date time.Time) (bool, error)
}

// DatasetRepository manages named candidate snapshots for backtests.
type DatasetRepository interface {
	// CreateSnapshot creates (or transactionally replaces) a named dataset
	// and freezes the given candidates under it.
	CreateSnapshot(ctx context.Context, name, strategyName string, candidates []models.GapUpCandidate) (*models.Dataset, error)
	GetByName(ctx context.Context, name string) (*models.Dataset, error)
	List(ctx context.Context) ([]*models.Dataset, error)
	GetCandidates(ctx context.Context, datasetID uuid.UUID) ([]models.GapUpCandidate, error)
	// Delete removes a dataset and its dependent rows in one transaction.
	Delete(ctx context.Context, name string) error
}

// TradeRepository persists simulated trades scoped by (dataset, strategy).
type TradeRepository interface {
	// ReplaceForDataset deletes existing trades for the (dataset, strategy)
	// pair and inserts the given set in one transaction.
	ReplaceForDataset(ctx context.Context, datasetID uuid.UUID, strategyName string, trades []models.Trade) error
	GetByDataset(ctx context.Context, datasetID uuid.UUID, strategyName string) ([]models.Trade, error)
}
