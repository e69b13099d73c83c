package backtest

import (
	"math"

	"github.com/yourusername/gap-scanner/internal/models"
)

// tradingDaysPerYear annualizes the per-trade Sharpe ratio.
const tradingDaysPerYear = 252

// ComputeStats aggregates a date-ordered trade sequence into portfolio
// statistics. An empty sequence yields all zeros.
func ComputeStats(trades []models.Trade) models.PortfolioStats {
	stats := models.PortfolioStats{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return stats
	}

	var (
		wins         int
		sumPositive  float64
		sumNegative  float64
		accumulative float64
		peak         float64
		maxDrawdown  float64
	)
	accumSeries := make([]float64, len(trades))
	for i, t := range trades {
		if t.Profit > 0 {
			wins++
			sumPositive += t.Profit
		} else if t.Profit < 0 {
			sumNegative += t.Profit
		}

		accumulative += t.Profit
		accumSeries[i] = accumulative
		// The curve starts at 0 before any trade, so the initial peak is 0
		// and a losing opening run counts as drawdown.
		if accumulative > peak {
			peak = accumulative
		}
		if drawdown := peak - accumulative; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	stats.PercentProfitable = 100 * float64(wins) / float64(len(trades))
	stats.MaxDrawdown = maxDrawdown
	stats.AvgTrade = accumulative / float64(len(trades))
	stats.ProfitFactor = profitFactor(sumPositive, sumNegative, wins)
	stats.SharpeRatio = sharpeRatio(accumSeries)
	return stats
}

// profitFactor is gross profit over gross loss. With wins but no losses it
// is positive infinity.
func profitFactor(sumPositive, sumNegative float64, wins int) float64 {
	if sumNegative == 0 {
		if wins > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return sumPositive / math.Abs(sumNegative)
}

// sharpeRatio annualizes the mean per-trade change of the accumulative
// profit series over its population standard deviation. A flat series
// yields zero.
func sharpeRatio(accumSeries []float64) float64 {
	deltas := make([]float64, len(accumSeries))
	prev := 0.0
	for i, v := range accumSeries {
		deltas[i] = v - prev
		prev = v
	}

	mean := 0.0
	for _, d := range deltas {
		mean += d
	}
	mean /= float64(len(deltas))

	variance := 0.0
	for _, d := range deltas {
		diff := d - mean
		variance += diff * diff
	}
	variance /= float64(len(deltas))

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return mean / stddev * math.Sqrt(tradingDaysPerYear)
}
