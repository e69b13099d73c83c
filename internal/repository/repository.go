package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/gap-scanner/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Candidate CandidateRepository
	Dataset   DatasetRepository
	Trade     TradeRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Candidate: NewPostgresCandidateRepository(db),
		Dataset:   NewPostgresDatasetRepository(db),
		Trade:     NewPostgresTradeRepository(db),
	}, nil
}

// round2 normalizes a value to two decimal places at the persistence
// boundary, so storage casing and precision never leak into core logic.
func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
