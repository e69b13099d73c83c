package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats a simulation result for terminal output
func GenerateConsoleReport(result *Result) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Total Trades: %d\n", result.Stats.TotalTrades))
	builder.WriteString(fmt.Sprintf("Percent Profitable: %.2f%%\n", result.Stats.PercentProfitable))
	builder.WriteString(fmt.Sprintf("Profit Factor: %s\n", formatProfitFactor(result.Stats.ProfitFactor)))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", result.Stats.MaxDrawdown))
	builder.WriteString(fmt.Sprintf("Avg Trade: %.2f%%\n", result.Stats.AvgTrade))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", result.Stats.SharpeRatio))
	return builder.String()
}

// WriteJSONReport writes the full result, trades and curve included, to
// outputPath.
func WriteJSONReport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// WriteCurveCSV exports the accumulative profit curve for spreadsheets.
func WriteCurveCSV(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(result.Curve.ToCSV()), 0o644)
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
