package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/yourusername/gap-scanner/internal/models"
)

// ProfitPoint represents a point in the accumulative profit curve
type ProfitPoint struct {
	Date     time.Time `json:"date"`
	Ticker   string    `json:"ticker"`
	Profit   float64   `json:"profit"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// ProfitCurve represents the trade-by-trade accumulative profit series
type ProfitCurve []ProfitPoint

// BuildProfitCurve folds a date-ordered trade sequence into its
// accumulative profit curve.
func BuildProfitCurve(trades []models.Trade) ProfitCurve {
	curve := make(ProfitCurve, 0, len(trades))
	accumulative := 0.0
	// Peak starts at the curve's 0 origin, matching ComputeStats.
	peak := 0.0
	for _, t := range trades {
		accumulative += t.Profit
		if accumulative > peak {
			peak = accumulative
		}
		curve = append(curve, ProfitPoint{
			Date:     t.Date,
			Ticker:   t.Ticker,
			Profit:   t.Profit,
			Value:    accumulative,
			Drawdown: peak - accumulative,
		})
	}
	return curve
}

// MaxDrawdown returns the deepest peak-to-trough decline on the curve.
func (c ProfitCurve) MaxDrawdown() float64 {
	maxDrawdown := 0.0
	for _, point := range c {
		if point.Drawdown > maxDrawdown {
			maxDrawdown = point.Drawdown
		}
	}
	return maxDrawdown
}

// ToCSV exports the curve to a CSV string
func (c ProfitCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,ticker,profit,value,drawdown\n")
	for _, point := range c {
		buf.WriteString(point.Date.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(point.Ticker)
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Profit))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the curve to a JSON string
func (c ProfitCurve) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
