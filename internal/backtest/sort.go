package backtest

import (
	"sort"
	"strings"

	"github.com/yourusername/gap-scanner/internal/models"
)

// Field names a sortable trade column.
type Field string

const (
	FieldDate       Field = "date"
	FieldTicker     Field = "ticker"
	FieldEntryPrice Field = "entry_price"
	FieldExitPrice  Field = "exit_price"
	FieldProfit     Field = "profit"
	FieldGapUp      Field = "gap_up_percentage"
	FieldSpike      Field = "spike_percentage"
	FieldO2C        Field = "o2c_percentage"
	FieldVolume     Field = "volume"
	FieldFloat      Field = "float"
	FieldMarketCap  Field = "market_cap"
)

// SortTrades stably sorts trades in place by the given field. Dates compare
// as timestamps, tickers lexicographically, everything else numerically
// with absent values treated as zero. Unknown fields leave the order
// untouched, which the stable sort guarantees.
func SortTrades(trades []models.Trade, field Field, ascending bool) {
	if field == FieldTicker {
		sort.SliceStable(trades, func(i, j int) bool {
			less := strings.Compare(trades[i].Ticker, trades[j].Ticker) < 0
			if ascending {
				return less
			}
			return !less && trades[i].Ticker != trades[j].Ticker
		})
		return
	}

	sort.SliceStable(trades, func(i, j int) bool {
		a, b := numericValue(&trades[i], field), numericValue(&trades[j], field)
		if ascending {
			return a < b
		}
		return a > b
	})
}

func numericValue(t *models.Trade, field Field) float64 {
	switch field {
	case FieldDate:
		return float64(t.Date.Unix())
	case FieldEntryPrice:
		return t.EntryPrice
	case FieldExitPrice:
		return t.ExitPrice
	case FieldProfit:
		return t.Profit
	case FieldGapUp:
		return t.GapUpPercentage
	case FieldSpike:
		return t.SpikePercentage
	case FieldO2C:
		return t.O2CPercentage
	case FieldVolume:
		return t.Volume
	case FieldFloat:
		if t.Float == nil {
			return 0
		}
		return float64(*t.Float)
	case FieldMarketCap:
		if t.MarketCap == nil {
			return 0
		}
		return float64(*t.MarketCap)
	default:
		return 0
	}
}
