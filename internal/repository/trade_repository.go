package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/gap-scanner/internal/database"
	"github.com/yourusername/gap-scanner/internal/models"
)

// PostgresTradeRepository implements TradeRepository for PostgreSQL
type PostgresTradeRepository struct {
	db *database.DB
}

// NewPostgresTradeRepository creates a new trade repository
func NewPostgresTradeRepository(db *database.DB) TradeRepository {
	return &PostgresTradeRepository{db: db}
}

// ReplaceForDataset replaces all trades for a (dataset, strategy) pair in
// one transaction
func (r *PostgresTradeRepository) ReplaceForDataset(ctx context.Context, datasetID uuid.UUID, strategyName string, trades []models.Trade) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM backtest_results WHERE dataset_id = $1 AND strategy_name = $2`,
			datasetID, strategyName,
		)
		if err != nil {
			return fmt.Errorf("failed to clear existing trades: %w", err)
		}

		insert := `
			INSERT INTO backtest_results (
				dataset_id, strategy_name, date, ticker,
				entry_price, exit_price, entry_time, profit, stop_loss_time,
				gap_up_percentage, open, close, high, low,
				spike_percentage, o2c_percentage, volume, float, market_cap
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`

		for _, t := range trades {
			_, err := tx.Exec(ctx, insert,
				datasetID, strategyName, t.Date, t.Ticker,
				round2(t.EntryPrice), round2(t.ExitPrice), t.EntryTime,
				round2(t.Profit), t.StopLossTime,
				round2(t.GapUpPercentage), round2(t.Open), round2(t.Close),
				round2(t.High), round2(t.Low),
				round2(t.SpikePercentage), round2(t.O2CPercentage),
				int64(math.Round(t.Volume)), t.Float, t.MarketCap,
			)
			if err != nil {
				return fmt.Errorf("failed to insert trade %s/%s: %w",
					t.Ticker, t.Date.Format("2006-01-02"), err)
			}
		}
		return nil
	})
}

// GetByDataset retrieves trades for a (dataset, strategy) pair ordered by
// date ascending
func (r *PostgresTradeRepository) GetByDataset(ctx context.Context, datasetID uuid.UUID, strategyName string) ([]models.Trade, error) {
	query := `
		SELECT date, ticker, entry_price, exit_price, entry_time, profit, stop_loss_time,
		       gap_up_percentage, open, close, high, low,
		       spike_percentage, o2c_percentage, volume, float, market_cap
		FROM backtest_results
		WHERE dataset_id = $1 AND strategy_name = $2
		ORDER BY date ASC, ticker ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, datasetID, strategyName)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var volume int64
		err := rows.Scan(
			&t.Date, &t.Ticker, &t.EntryPrice, &t.ExitPrice, &t.EntryTime,
			&t.Profit, &t.StopLossTime,
			&t.GapUpPercentage, &t.Open, &t.Close, &t.High, &t.Low,
			&t.SpikePercentage, &t.O2CPercentage, &volume, &t.Float, &t.MarketCap,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Volume = float64(volume)
		trades = append(trades, t)
	}

	return trades, rows.Err()
}
