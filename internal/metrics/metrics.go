// Package metrics provides the centralized Prometheus metrics registry for
// the gap scanner.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ScanDatesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gap_scanner",
		Name:      "scan_dates_processed_total",
		Help:      "Total number of trading dates processed by the scanner",
	})
	ScanDateErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gap_scanner",
		Name:      "scan_date_errors_total",
		Help:      "Total number of per-date scan failures",
	})
	CandidatesFoundTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gap_scanner",
		Name:      "candidates_found_total",
		Help:      "Total number of gap-up candidates retained",
	})
	EnrichmentFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gap_scanner",
		Name:      "enrichment_failures_total",
		Help:      "Total number of best-effort reference lookups that failed",
	})
	TradesSimulatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gap_scanner",
		Name:      "trades_simulated_total",
		Help:      "Total number of trades produced by backtest runs",
	})
	DetectorRowsExcludedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gap_scanner",
		Name:      "detector_rows_excluded_total",
		Help:      "Total number of backtest rows excluded by detector failures",
	})
)

// Gauge metrics
var (
	LastScanCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gap_scanner",
		Name:      "last_scan_candidates",
		Help:      "Number of candidates found by the most recent scan",
	})
	LastBacktestTrades = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gap_scanner",
		Name:      "last_backtest_trades",
		Help:      "Number of trades in the most recent backtest run",
	})
)

// Histogram metrics
var (
	DetectorDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gap_scanner",
		Name:      "detector_duration_seconds",
		Help:      "Duration of one death-candle detection in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ScanDateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gap_scanner",
		Name:      "scan_date_duration_seconds",
		Help:      "Duration of one scanned trading date in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ScanDatesProcessedTotal)
		registry.MustRegister(ScanDateErrorsTotal)
		registry.MustRegister(CandidatesFoundTotal)
		registry.MustRegister(EnrichmentFailuresTotal)
		registry.MustRegister(TradesSimulatedTotal)
		registry.MustRegister(DetectorRowsExcludedTotal)

		registry.MustRegister(LastScanCandidates)
		registry.MustRegister(LastBacktestTrades)

		registry.MustRegister(DetectorDuration)
		registry.MustRegister(ScanDateDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordDateProcessed records a completed scan date.
func RecordDateProcessed(durationSeconds float64) {
	ScanDatesProcessedTotal.Inc()
	ScanDateDuration.Observe(durationSeconds)
}

// RecordDateError records a per-date scan failure.
func RecordDateError() {
	ScanDateErrorsTotal.Inc()
}

// RecordCandidates records the retained candidates of a finished scan.
func RecordCandidates(count int) {
	CandidatesFoundTotal.Add(float64(count))
	LastScanCandidates.Set(float64(count))
}

// RecordEnrichmentFailure records a failed reference lookup.
func RecordEnrichmentFailure() {
	EnrichmentFailuresTotal.Inc()
}

// RecordDetection records one detector invocation.
func RecordDetection(durationSeconds float64) {
	DetectorDuration.Observe(durationSeconds)
}

// RecordRowExcluded records a candidate row dropped from a backtest run.
func RecordRowExcluded() {
	DetectorRowsExcludedTotal.Inc()
}

// RecordTrades records the outcome of a backtest run.
func RecordTrades(count int) {
	TradesSimulatedTotal.Add(float64(count))
	LastBacktestTrades.Set(float64(count))
}
