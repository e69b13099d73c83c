// Package scanner implements the daily gap-up screen over a grouped-daily
// bar source.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/calendar"
	"github.com/yourusername/gap-scanner/internal/config"
	"github.com/yourusername/gap-scanner/internal/logger"
	"github.com/yourusername/gap-scanner/internal/marketdata"
	"github.com/yourusername/gap-scanner/internal/metrics"
	"github.com/yourusername/gap-scanner/internal/models"
	"github.com/yourusername/gap-scanner/internal/repository"
)

const dateLayout = "2006-01-02"

// ProgressSink receives progress events during a scan. StreamHub satisfies
// it; a nil sink disables streaming.
type ProgressSink interface {
	Broadcast(event ProgressEvent)
}

// GapScanner walks a date range and retains tickers whose open gapped up
// against the previous trading day's close. Results are persisted through
// the candidate repository when one is configured.
type GapScanner struct {
	bars     marketdata.BarSource
	cal      *calendar.Calendar
	repo     repository.CandidateRepository
	cfg      config.ScannerConfig
	logger   *logrus.Logger
	scanLog  *logger.ScanLogger
	progress ProgressSink

	// SkipExistingDates short-circuits dates that already have persisted
	// rows, so a rescan of an overlapping range only pays for new dates.
	SkipExistingDates bool
}

// NewGapScanner creates a gap-up scanner. repo and progress may be nil.
func NewGapScanner(
	bars marketdata.BarSource,
	cal *calendar.Calendar,
	repo repository.CandidateRepository,
	cfg config.ScannerConfig,
	log *logrus.Logger,
	progress ProgressSink,
) (*GapScanner, error) {
	if bars == nil {
		return nil, fmt.Errorf("bar source is required")
	}
	if cal == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &GapScanner{
		bars:              bars,
		cal:               cal,
		repo:              repo,
		cfg:               cfg,
		logger:            log,
		scanLog:           logger.NewScanLogger(log),
		progress:          progress,
		SkipExistingDates: repo != nil,
	}, nil
}

// Scan screens every trading date in [from, to] and returns all retained
// candidates in date order. A single date failing is logged and skipped;
// only an unusable range or context cancellation aborts the scan.
func (s *GapScanner) Scan(ctx context.Context, from, to time.Time) ([]models.GapUpCandidate, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		err := fmt.Errorf("%w: from=%s to=%s", models.ErrMissingDateRange, from.Format(dateLayout), to.Format(dateLayout))
		s.emit(newErrorEvent(err))
		return nil, err
	}

	dates := s.tradingDates(from, to)
	s.logger.WithFields(logrus.Fields{
		"from":          from.Format(dateLayout),
		"to":            to.Format(dateLayout),
		"trading_dates": len(dates),
	}).Info("Starting gap-up scan")

	results := make([]models.GapUpCandidate, 0)
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			s.emit(newErrorEvent(err))
			return nil, err
		}

		s.emit(newProgressEvent(i, len(dates), date.Format(dateLayout)))
		if s.cfg.ProgressDelayMillis > 0 {
			select {
			case <-time.After(time.Duration(s.cfg.ProgressDelayMillis) * time.Millisecond):
			case <-ctx.Done():
				s.emit(newErrorEvent(ctx.Err()))
				return nil, ctx.Err()
			}
		}

		if s.SkipExistingDates && s.repo != nil {
			exists, err := s.repo.ExistsForDate(ctx, date)
			if err != nil {
				s.scanLog.LogDateError(date, err)
				metrics.RecordDateError()
				continue
			}
			if exists {
				// Persisted rows are authoritative; read them back
				// instead of refetching the date.
				saved, err := s.repo.GetByDateRange(ctx, date, date)
				if err != nil {
					s.scanLog.LogDateError(date, err)
					metrics.RecordDateError()
					continue
				}
				results = append(results, saved...)
				s.scanLog.LogDateSkipped(date, "results already persisted")
				continue
			}
		}

		start := time.Now()
		candidates, barsScanned, err := s.scanDate(ctx, date)
		if err != nil {
			s.scanLog.LogDateError(date, err)
			metrics.RecordDateError()
			continue
		}

		if s.repo != nil && len(candidates) > 0 {
			if err := s.repo.Save(ctx, candidates); err != nil {
				s.scanLog.LogDateError(date, fmt.Errorf("failed to persist candidates: %w", err))
				metrics.RecordDateError()
				continue
			}
		}

		results = append(results, candidates...)
		s.scanLog.LogDateProcessed(date, barsScanned, len(candidates), float64(time.Since(start).Milliseconds()))
		metrics.RecordDateProcessed(time.Since(start).Seconds())
	}

	metrics.RecordCandidates(len(results))
	s.emit(newFinishedEvent(results))
	s.logger.WithField("candidates", len(results)).Info("Gap-up scan finished")
	return results, nil
}

// PersistedCandidates returns previously saved candidates in [from, to],
// in date order.
func (s *GapScanner) PersistedCandidates(ctx context.Context, from, to time.Time) ([]models.GapUpCandidate, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("no candidate repository configured")
	}
	return s.repo.GetByDateRange(ctx, from, to)
}

// scanDate screens one trading date against its previous trading day.
func (s *GapScanner) scanDate(ctx context.Context, date time.Time) ([]models.GapUpCandidate, int, error) {
	prevDate := s.cal.PreviousTradingDate(date)

	var (
		wg                  sync.WaitGroup
		todayBars, prevBars []models.DailyBar
		todayErr, prevErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		todayBars, todayErr = s.bars.GroupedDaily(ctx, date)
	}()
	go func() {
		defer wg.Done()
		prevBars, prevErr = s.bars.GroupedDaily(ctx, prevDate)
	}()
	wg.Wait()

	if todayErr != nil {
		return nil, 0, fmt.Errorf("failed to fetch bars for %s: %w", date.Format(dateLayout), todayErr)
	}
	if prevErr != nil {
		return nil, 0, fmt.Errorf("failed to fetch bars for %s: %w", prevDate.Format(dateLayout), prevErr)
	}

	prevByTicker := make(map[string]models.DailyBar, len(prevBars))
	for _, bar := range prevBars {
		prevByTicker[bar.Ticker] = bar
	}

	candidates := make([]models.GapUpCandidate, 0)
	for _, bar := range todayBars {
		prev, ok := prevByTicker[bar.Ticker]
		if !ok {
			continue
		}
		candidate, ok := models.NewGapUpCandidate(bar, prev)
		if !ok {
			continue
		}
		if candidate.GapUpPercentage <= s.cfg.MinGapUpPercentage {
			continue
		}
		s.enrich(ctx, &candidate)
		candidates = append(candidates, candidate)
	}

	return candidates, len(todayBars), nil
}

// enrich attaches share float and market cap to the candidate. Lookups are
// best effort; on failure the fields stay null and the scan moves on.
func (s *GapScanner) enrich(ctx context.Context, candidate *models.GapUpCandidate) {
	details, err := s.bars.TickerDetails(ctx, candidate.Ticker, candidate.Date)
	if err != nil {
		s.scanLog.LogEnrichmentFailure(candidate.Ticker, candidate.Date, err)
		metrics.RecordEnrichmentFailure()
		return
	}
	candidate.Float = details.Float
	candidate.MarketCap = details.MarketCap
}

// tradingDates expands [from, to] into its trading dates, logging what is
// skipped and why.
func (s *GapScanner) tradingDates(from, to time.Time) []time.Time {
	dates := make([]time.Time, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !s.cal.IsTradingDate(d) {
			s.scanLog.LogDateSkipped(d, "not a trading date")
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func (s *GapScanner) emit(event ProgressEvent) {
	if s.progress != nil {
		s.progress.Broadcast(event)
	}
}
