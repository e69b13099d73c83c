package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yourusername/gap-scanner/internal/database"
	"github.com/yourusername/gap-scanner/internal/models"
)

const errScanCandidate = "failed to scan candidate: %w"

const candidateColumns = `date, ticker, gap_up_percentage, open, close, high, low,
	       spike_percentage, o2c_percentage, volume, float, market_cap`

// PostgresCandidateRepository implements CandidateRepository for PostgreSQL
type PostgresCandidateRepository struct {
	db *database.DB
}

// NewPostgresCandidateRepository creates a new candidate repository
func NewPostgresCandidateRepository(db *database.DB) CandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

// Save inserts candidates with insert-or-ignore semantics on (date, ticker)
func (r *PostgresCandidateRepository) Save(ctx context.Context, candidates []models.GapUpCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	query := `
		INSERT INTO stock_results (
			date, ticker, gap_up_percentage, open, close, high, low,
			spike_percentage, o2c_percentage, volume, float, market_cap
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (date, ticker) DO NOTHING
	`

	for _, c := range candidates {
		_, err := r.db.GetPool().Exec(ctx, query,
			c.Date, c.Ticker,
			round2(c.GapUpPercentage), round2(c.Open), round2(c.Close),
			round2(c.High), round2(c.Low),
			round2(c.SpikePercentage), round2(c.O2CPercentage),
			int64(math.Round(c.Volume)), c.Float, c.MarketCap,
		)
		if err != nil {
			return fmt.Errorf("failed to save candidate %s/%s: %w", c.Ticker, c.Date.Format("2006-01-02"), err)
		}
	}

	return nil
}

// GetByDateRange retrieves candidates within a date range ordered by date, ticker
func (r *PostgresCandidateRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]models.GapUpCandidate, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM stock_results
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, ticker
	`, candidateColumns)

	rows, err := r.db.GetPool().Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.GapUpCandidate
	for rows.Next() {
		var c models.GapUpCandidate
		var volume int64
		err := rows.Scan(
			&c.Date, &c.Ticker, &c.GapUpPercentage, &c.Open, &c.Close,
			&c.High, &c.Low, &c.SpikePercentage, &c.O2CPercentage,
			&volume, &c.Float, &c.MarketCap,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanCandidate, err)
		}
		c.Volume = float64(volume)
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// ExistsForDate reports whether any candidate rows were saved for the date
func (r *PostgresCandidateRepository) ExistsForDate(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.db.GetPool().QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM stock_results WHERE date = $1)`, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing results: %w", err)
	}
	return exists, nil
}
