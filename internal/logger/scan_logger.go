package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ScanLogger provides dedicated logging for gap scan runs.
type ScanLogger struct {
	*logrus.Entry
}

// NewScanLogger creates a new scan logger.
func NewScanLogger(baseLogger *logrus.Logger) *ScanLogger {
	return &ScanLogger{
		Entry: baseLogger.WithField("component", "scanner"),
	}
}

// LogDateProcessed logs the completion of one trading day in a scan.
func (sl *ScanLogger) LogDateProcessed(date time.Time, barsScanned, candidatesFound int, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"date":             date.Format("2006-01-02"),
		"bars_scanned":     barsScanned,
		"candidates_found": candidatesFound,
		"duration_ms":      durationMs,
	}).Info("Scan date completed")
}

// LogDateSkipped logs a non-trading date skipped by the scan.
func (sl *ScanLogger) LogDateSkipped(date time.Time, reason string) {
	sl.WithFields(logrus.Fields{
		"date":   date.Format("2006-01-02"),
		"reason": reason,
	}).Debug("Scan date skipped")
}

// LogDateError logs a per-date failure that did not abort the scan.
func (sl *ScanLogger) LogDateError(date time.Time, err error) {
	sl.WithFields(logrus.Fields{
		"date":  date.Format("2006-01-02"),
		"error": err.Error(),
	}).Warn("Scan date failed, continuing")
}

// LogEnrichmentFailure logs a best-effort reference lookup failure.
func (sl *ScanLogger) LogEnrichmentFailure(ticker string, date time.Time, err error) {
	sl.WithFields(logrus.Fields{
		"ticker": ticker,
		"date":   date.Format("2006-01-02"),
		"error":  err.Error(),
	}).Debug("Reference enrichment failed for ticker")
}
