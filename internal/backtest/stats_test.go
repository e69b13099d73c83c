package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/gap-scanner/internal/models"
)

func tradesWithProfits(profits ...float64) []models.Trade {
	trades := make([]models.Trade, len(profits))
	for i, p := range profits {
		trades[i] = models.Trade{Profit: p}
	}
	return trades
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, 0, stats.TotalTrades)
	assert.Zero(t, stats.PercentProfitable)
	assert.Zero(t, stats.ProfitFactor)
	assert.Zero(t, stats.MaxDrawdown)
	assert.Zero(t, stats.AvgTrade)
	assert.Zero(t, stats.SharpeRatio)
}

func TestComputeStatsDrawdown(t *testing.T) {
	stats := ComputeStats(tradesWithProfits(5, -2, 3))

	assert.Equal(t, 3, stats.TotalTrades)
	// Accumulative profit runs 5, 3, 6; the dip from the peak of 5 to 3 is
	// the deepest decline.
	assert.InDelta(t, 2.0, stats.MaxDrawdown, 1e-9)
	assert.InDelta(t, 100.0*2/3, stats.PercentProfitable, 1e-9)
	assert.InDelta(t, 2.0, stats.AvgTrade, 1e-9)
	assert.InDelta(t, 8.0/2.0, stats.ProfitFactor, 1e-9)
}

func TestComputeStatsDrawdownFromOpeningLoss(t *testing.T) {
	// The curve starts at 0, so a series opening with losses draws down
	// from that origin before any peak is made.
	stats := ComputeStats(tradesWithProfits(-3))
	assert.InDelta(t, 3.0, stats.MaxDrawdown, 1e-9)

	stats = ComputeStats(tradesWithProfits(-3, -1, 5))
	assert.InDelta(t, 4.0, stats.MaxDrawdown, 1e-9)

	curve := BuildProfitCurve(tradesWithProfits(-3, -1, 5))
	assert.InDelta(t, 4.0, curve.MaxDrawdown(), 1e-9)
	assert.InDelta(t, 3.0, curve[0].Drawdown, 1e-9)
}

func TestComputeStatsSharpeRatio(t *testing.T) {
	stats := ComputeStats(tradesWithProfits(5, -2, 3))

	// Per-trade deltas are the profits themselves; population stddev over
	// mean 2 is sqrt(26/3).
	expected := 2.0 / math.Sqrt(26.0/3.0) * math.Sqrt(252)
	assert.InDelta(t, expected, stats.SharpeRatio, 1e-9)
}

func TestComputeStatsSharpeFlatSeries(t *testing.T) {
	stats := ComputeStats(tradesWithProfits(1, 1, 1))
	assert.Zero(t, stats.SharpeRatio)
}

func TestComputeStatsProfitFactorNoLosses(t *testing.T) {
	stats := ComputeStats(tradesWithProfits(4, 2))
	assert.True(t, math.IsInf(stats.ProfitFactor, 1))
}

func TestComputeStatsProfitFactorOnlyLosses(t *testing.T) {
	stats := ComputeStats(tradesWithProfits(-4, -2))
	assert.Zero(t, stats.ProfitFactor)
	assert.Zero(t, stats.PercentProfitable)
	assert.InDelta(t, 6.0, stats.MaxDrawdown, 1e-9)
}

func TestBuildProfitCurve(t *testing.T) {
	curve := BuildProfitCurve(tradesWithProfits(5, -2, 3))

	assert.Len(t, curve, 3)
	assert.InDelta(t, 5.0, curve[0].Value, 1e-9)
	assert.InDelta(t, 3.0, curve[1].Value, 1e-9)
	assert.InDelta(t, 2.0, curve[1].Drawdown, 1e-9)
	assert.InDelta(t, 6.0, curve[2].Value, 1e-9)
	assert.InDelta(t, 2.0, curve.MaxDrawdown(), 1e-9)
}
