package models

import (
	"time"
)

// Gap-up retention thresholds. A daily bar only becomes a candidate when
// the overnight gap exceeds the minimum, the open is at least one dollar
// and the symbol is at most four characters (filters warrants and units).
const (
	MinGapUpPercentage = 70.0
	MinCandidateOpen   = 1.0
	MaxTickerLength    = 4
)

// GapUpCandidate is one retained row from the daily gap-up screen.
// Immutable once computed; persisted keyed by (date, ticker) with
// insert-or-ignore semantics.
type GapUpCandidate struct {
	Ticker          string    `db:"ticker" json:"ticker" validate:"required,max=4"`
	Date            time.Time `db:"date" json:"date" validate:"required"`
	GapUpPercentage float64   `db:"gap_up_percentage" json:"gap_up_percentage"`
	Open            float64   `db:"open" json:"open"`
	Close           float64   `db:"close" json:"close"`
	High            float64   `db:"high" json:"high"`
	Low             float64   `db:"low" json:"low"`
	SpikePercentage float64   `db:"spike_percentage" json:"spike_percentage"`
	O2CPercentage   float64   `db:"o2c_percentage" json:"o2c_percentage"`
	Volume          float64   `db:"volume" json:"volume"`
	Float           *int64    `db:"float" json:"float"`
	MarketCap       *int64    `db:"market_cap" json:"market_cap"`
}

// NewGapUpCandidate derives a candidate from a (today, previous trading day)
// bar pair, or returns false when the pair does not meet the retention
// criteria.
func NewGapUpCandidate(today, prev DailyBar) (GapUpCandidate, bool) {
	if len(today.Ticker) > MaxTickerLength {
		return GapUpCandidate{}, false
	}
	if today.Open < MinCandidateOpen {
		return GapUpCandidate{}, false
	}
	if prev.Close <= 0 {
		return GapUpCandidate{}, false
	}

	gapUp := (today.Open - prev.Close) / prev.Close * 100
	if gapUp <= MinGapUpPercentage {
		return GapUpCandidate{}, false
	}

	return GapUpCandidate{
		Ticker:          today.Ticker,
		Date:            today.Date,
		GapUpPercentage: gapUp,
		Open:            today.Open,
		Close:           today.Close,
		High:            today.High,
		Low:             today.Low,
		SpikePercentage: (today.High - today.Open) / today.Open * 100,
		O2CPercentage:   (today.Close - today.Open) / today.Open * 100,
		Volume:          today.Volume,
	}, true
}
