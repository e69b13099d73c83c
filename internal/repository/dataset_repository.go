package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/gap-scanner/internal/database"
	"github.com/yourusername/gap-scanner/internal/models"
)

// PostgresDatasetRepository implements DatasetRepository for PostgreSQL
type PostgresDatasetRepository struct {
	db *database.DB
}

// NewPostgresDatasetRepository creates a new dataset repository
func NewPostgresDatasetRepository(db *database.DB) DatasetRepository {
	return &PostgresDatasetRepository{db: db}
}

// CreateSnapshot creates or replaces a named dataset and freezes the given
// candidates under it. The whole operation runs in one transaction so a
// mid-batch failure leaves no partial dataset.
func (r *PostgresDatasetRepository) CreateSnapshot(ctx context.Context, name, strategyName string, candidates []models.GapUpCandidate) (*models.Dataset, error) {
	ds := &models.Dataset{
		ID:           uuid.New(),
		Name:         name,
		StrategyName: strategyName,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// Replace any existing dataset of the same name; dependent rows go
		// with it via ON DELETE CASCADE.
		if _, err := tx.Exec(ctx, `DELETE FROM dataset WHERE name = $1`, name); err != nil {
			return fmt.Errorf("failed to drop existing dataset: %w", err)
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO dataset (id, name, strategy_name, created_at) VALUES ($1, $2, $3, $4)`,
			ds.ID, ds.Name, ds.StrategyName, ds.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create dataset: %w", err)
		}

		insert := `
			INSERT INTO dataset_candidates (
				dataset_id, date, ticker, gap_up_percentage, open, close, high, low,
				spike_percentage, o2c_percentage, volume, float, market_cap
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		for _, c := range candidates {
			_, err := tx.Exec(ctx, insert,
				ds.ID, c.Date, c.Ticker,
				round2(c.GapUpPercentage), round2(c.Open), round2(c.Close),
				round2(c.High), round2(c.Low),
				round2(c.SpikePercentage), round2(c.O2CPercentage),
				int64(math.Round(c.Volume)), c.Float, c.MarketCap,
			)
			if err != nil {
				return fmt.Errorf("failed to insert dataset candidate %s/%s: %w",
					c.Ticker, c.Date.Format("2006-01-02"), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// GetByName retrieves a dataset by its unique name
func (r *PostgresDatasetRepository) GetByName(ctx context.Context, name string) (*models.Dataset, error) {
	ds := &models.Dataset{}
	err := r.db.GetPool().QueryRow(ctx,
		`SELECT id, name, strategy_name, created_at FROM dataset WHERE name = $1`, name,
	).Scan(&ds.ID, &ds.Name, &ds.StrategyName, &ds.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, models.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// List retrieves all datasets ordered by name
func (r *PostgresDatasetRepository) List(ctx context.Context) ([]*models.Dataset, error) {
	rows, err := r.db.GetPool().Query(ctx,
		`SELECT id, name, strategy_name, created_at FROM dataset ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*models.Dataset
	for rows.Next() {
		ds := &models.Dataset{}
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.StrategyName, &ds.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}

	return datasets, rows.Err()
}

// GetCandidates retrieves the frozen candidate rows of a dataset
func (r *PostgresDatasetRepository) GetCandidates(ctx context.Context, datasetID uuid.UUID) ([]models.GapUpCandidate, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM dataset_candidates
		WHERE dataset_id = $1
		ORDER BY date, ticker
	`, candidateColumns)

	rows, err := r.db.GetPool().Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset candidates: %w", err)
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

// Delete removes a dataset and its dependent rows transactionally
func (r *PostgresDatasetRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM dataset WHERE name = $1`, name).Scan(&id)
		if err == pgx.ErrNoRows {
			return models.ErrDatasetNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to find dataset: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM dataset WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete dataset: %w", err)
		}
		return nil
	})
}
