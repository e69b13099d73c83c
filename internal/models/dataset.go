package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset names a frozen snapshot of gap-up candidates used as backtest
// input. Trades are scoped by (dataset, strategy).
type Dataset struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name" validate:"required"`
	StrategyName string    `db:"strategy_name" json:"strategy_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
