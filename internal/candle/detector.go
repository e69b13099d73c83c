// Package candle implements the death-candle pattern detector over
// 1-minute intraday bars.
package candle

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/calendar"
	"github.com/yourusername/gap-scanner/internal/marketdata"
	"github.com/yourusername/gap-scanner/internal/metrics"
	"github.com/yourusername/gap-scanner/internal/models"
)

// Classification thresholds. A death candle is a sharply bearish 1-minute
// candle; within the opening window a bare open-to-close drop suffices,
// afterwards the two preceding candles must show a positive run-up whose
// midpoint the current candle undercuts.
const (
	openingWindow      = 10 * time.Minute
	maxOpenToClosePct  = -5.0
	stopLossMultiplier = 1.02
)

// Classification is the per-bar result of the session-relative rules.
// Ephemeral: recomputed on every detection request, never persisted.
type Classification struct {
	Time                  time.Time `json:"time"`
	Open                  float64   `json:"open"`
	Close                 float64   `json:"close"`
	High                  float64   `json:"high"`
	Low                   float64   `json:"low"`
	Volume                float64   `json:"volume"`
	OpenToClosePercentage float64   `json:"open_to_close_percentage"`
	IsDeathCandle         bool      `json:"is_death_candle"`
}

// Event is the first death candle of a session, augmented with the
// stop-loss scan over the remainder of the session.
type Event struct {
	Classification
	StopLossPrice     float64    `json:"stop_loss_price"`
	StopLossTriggered bool       `json:"stop_loss_triggered"`
	StopLossTime      *time.Time `json:"stop_loss_time"`
	SessionClose      float64    `json:"session_close"`
}

// Detector finds death-candle events for one (ticker, date) at a time.
// Safe for concurrent use; all state lives on the stack of Detect.
type Detector struct {
	bars   marketdata.BarSource
	cal    *calendar.Calendar
	logger *logrus.Logger
}

// NewDetector creates a new death-candle detector
func NewDetector(bars marketdata.BarSource, cal *calendar.Calendar, logger *logrus.Logger) (*Detector, error) {
	if bars == nil {
		return nil, fmt.Errorf("bar source is required")
	}
	if cal == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Detector{bars: bars, cal: cal, logger: logger}, nil
}

// Detect fetches the 1-minute bars for (ticker, date) and returns the
// session's death-candle event. found is false when the session has no
// death candle or the provider has no data; only transport and data-source
// failures surface as errors.
func (d *Detector) Detect(ctx context.Context, ticker string, date time.Time) (event *Event, found bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDetection(time.Since(start).Seconds())
	}()

	bars, err := d.bars.Aggregates(ctx, ticker, date)
	if err != nil {
		if marketdata.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to fetch intraday bars: %w", err)
	}

	session := d.cal.SessionBounds(date)
	filtered := filterSessionBars(bars, session, d.cal.Location())
	if len(filtered) == 0 {
		return nil, false, nil
	}

	classifications := Classify(filtered, session.Start)

	idx := -1
	for i, c := range classifications {
		if c.IsDeathCandle {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, nil
	}

	ev := &Event{
		Classification: classifications[idx],
		StopLossPrice:  classifications[idx].High * stopLossMultiplier,
		SessionClose:   filtered[len(filtered)-1].Close,
	}

	// Post-entry stop-loss scan over the rest of the session.
	for _, bar := range filtered[idx+1:] {
		if bar.High > ev.StopLossPrice {
			t := bar.Timestamp
			ev.StopLossTriggered = true
			ev.StopLossTime = &t
			break
		}
	}

	d.logger.WithFields(logrus.Fields{
		"ticker":              ticker,
		"date":                date.Format("2006-01-02"),
		"entry_time":          ev.Time,
		"stop_loss_triggered": ev.StopLossTriggered,
	}).Debug("Death candle detected")

	return ev, true, nil
}

// Classify applies the session-relative rules to trading-hours bars. The
// rules address the two preceding candles by relative offset within the
// filtered sequence, never by raw provider index, so missing or dropped
// minutes cannot shift the window.
func Classify(bars []models.IntradayBar, sessionOpen time.Time) []Classification {
	out := make([]Classification, 0, len(bars))

	var prev1, prev2 *models.IntradayBar
	for i := range bars {
		bar := bars[i]
		c := Classification{
			Time:                  bar.Timestamp,
			Open:                  bar.Open,
			Close:                 bar.Close,
			High:                  bar.High,
			Low:                   bar.Low,
			Volume:                bar.Volume,
			OpenToClosePercentage: (bar.Close - bar.Open) / bar.Open * 100,
		}

		bearish := bar.Close < bar.Open && c.OpenToClosePercentage < maxOpenToClosePct
		if bar.Timestamp.Sub(sessionOpen) < openingWindow {
			// Inside the opening window the candle is judged on its own.
			c.IsDeathCandle = bearish
		} else if prev1 != nil && prev2 != nil {
			prevTwoChange := (prev1.Close - prev2.Open) / prev2.Open * 100
			midpoint := (prev2.Low + prev1.High) / 2
			c.IsDeathCandle = bearish && prevTwoChange > 0 && midpoint >= bar.Low
		}

		out = append(out, c)
		prev2 = prev1
		prev1 = &bars[i]
	}

	return out
}

// filterSessionBars drops invalid bars and bars outside trading hours
// before any classification, so index-relative lookups only ever see the
// session sequence.
func filterSessionBars(bars []models.IntradayBar, session calendar.SessionBounds, loc *time.Location) []models.IntradayBar {
	filtered := make([]models.IntradayBar, 0, len(bars))
	for _, bar := range bars {
		if !bar.Valid() {
			continue
		}
		if !session.Contains(bar.Timestamp.In(loc)) {
			continue
		}
		filtered = append(filtered, bar)
	}
	return filtered
}
