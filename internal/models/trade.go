package models

import (
	"encoding/json"
	"math"
	"time"
)

// Trade is one simulated short trade produced by the backtest engine.
// EntryPrice is the death candle's close; ExitPrice is the stop-loss price
// when the stop was hit, otherwise the session close. Profit is the
// percentage gain of the short position, net of commission when enabled.
type Trade struct {
	Ticker       string     `db:"ticker" json:"ticker" validate:"required"`
	Date         time.Time  `db:"date" json:"date" validate:"required"`
	EntryPrice   float64    `db:"entry_price" json:"entry_price"`
	ExitPrice    float64    `db:"exit_price" json:"exit_price"`
	EntryTime    time.Time  `db:"entry_time" json:"entry_time"`
	Profit       float64    `db:"profit" json:"profit"`
	StopLossTime *time.Time `db:"stop_loss_time" json:"stop_loss_time"`

	// Candidate columns carried alongside for the result table.
	GapUpPercentage float64 `db:"gap_up_percentage" json:"gap_up_percentage"`
	Open            float64 `db:"open" json:"open"`
	Close           float64 `db:"close" json:"close"`
	High            float64 `db:"high" json:"high"`
	Low             float64 `db:"low" json:"low"`
	SpikePercentage float64 `db:"spike_percentage" json:"spike_percentage"`
	O2CPercentage   float64 `db:"o2c_percentage" json:"o2c_percentage"`
	Volume          float64 `db:"volume" json:"volume"`
	Float           *int64  `db:"float" json:"float"`
	MarketCap       *int64  `db:"market_cap" json:"market_cap"`
}

// StopLossTriggered reports whether the trade exited on its stop.
func (t *Trade) StopLossTriggered() bool {
	return t.StopLossTime != nil
}

// PortfolioStats aggregates an ordered-by-date trade sequence. It is a
// view-level artifact, recomputed on every change to the trade set or the
// commission settings, and never persisted.
type PortfolioStats struct {
	TotalTrades       int     `json:"total_trades"`
	PercentProfitable float64 `json:"percent_profitable"`
	ProfitFactor      float64 `json:"profit_factor"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	AvgTrade          float64 `json:"avg_trade"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
}

// MarshalJSON encodes an infinite profit factor as null, since JSON has no
// representation for infinity.
func (s PortfolioStats) MarshalJSON() ([]byte, error) {
	type alias PortfolioStats
	out := struct {
		alias
		ProfitFactor *float64 `json:"profit_factor"`
	}{alias: alias(s)}
	if !math.IsInf(s.ProfitFactor, 0) {
		out.ProfitFactor = &s.ProfitFactor
	}
	return json.Marshal(out)
}
