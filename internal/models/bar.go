package models

import (
	"time"
)

// DailyBar represents a single daily OHLCV aggregate for one ticker.
type DailyBar struct {
	Ticker string    `db:"ticker" json:"ticker" validate:"required"`
	Date   time.Time `db:"date" json:"date" validate:"required"`
	Open   float64   `db:"open" json:"open"`
	High   float64   `db:"high" json:"high"`
	Low    float64   `db:"low" json:"low"`
	Close  float64   `db:"close" json:"close"`
	Volume float64   `db:"volume" json:"volume"`
}

// IntradayBar represents a single 1-minute OHLCV aggregate for one ticker.
// Timestamp is the bar's start time in UTC; the sequence for a (ticker, date)
// is chronological but not guaranteed contiguous, since no-trade minutes are
// omitted by the data provider.
type IntradayBar struct {
	Ticker    string    `db:"ticker" json:"ticker"`
	Date      time.Time `db:"date" json:"date"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Open      float64   `db:"open" json:"open"`
	High      float64   `db:"high" json:"high"`
	Low       float64   `db:"low" json:"low"`
	Close     float64   `db:"close" json:"close"`
	Volume    float64   `db:"volume" json:"volume"`
}

// Valid reports whether the bar carries all required numeric fields.
// Malformed bars are dropped from their sequence before any
// index-relative classification.
func (b IntradayBar) Valid() bool {
	if b.Timestamp.IsZero() {
		return false
	}
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0
}

// ReferenceDetails holds per-ticker reference data used to enrich scan
// results. Both fields are optional; a failed lookup yields the zero value.
type ReferenceDetails struct {
	Float     *int64 `json:"float"`
	MarketCap *int64 `json:"market_cap"`
}
