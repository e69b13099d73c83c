package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/gap-scanner/internal/calendar"
	"github.com/yourusername/gap-scanner/internal/config"
	"github.com/yourusername/gap-scanner/internal/models"
)

type stubBarSource struct {
	daily      map[string][]models.DailyBar
	details    map[string]models.ReferenceDetails
	detailsErr error
	dailyErr   error
}

func (s *stubBarSource) GroupedDaily(ctx context.Context, date time.Time) ([]models.DailyBar, error) {
	if s.dailyErr != nil {
		return nil, s.dailyErr
	}
	return s.daily[date.Format("2006-01-02")], nil
}

func (s *stubBarSource) Aggregates(ctx context.Context, ticker string, date time.Time) ([]models.IntradayBar, error) {
	return nil, nil
}

func (s *stubBarSource) TickerDetails(ctx context.Context, ticker string, date time.Time) (models.ReferenceDetails, error) {
	if s.detailsErr != nil {
		return models.ReferenceDetails{}, s.detailsErr
	}
	return s.details[ticker], nil
}

type captureSink struct {
	events []ProgressEvent
}

func (c *captureSink) Broadcast(event ProgressEvent) {
	c.events = append(c.events, event)
}

var (
	scanDate = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	prevDate = time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
)

func newTestScanner(t *testing.T, src *stubBarSource, sink ProgressSink) *GapScanner {
	t.Helper()
	cal, err := calendar.New()
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)

	cfg := config.ScannerConfig{MinGapUpPercentage: 70.0}
	s, err := NewGapScanner(src, cal, nil, cfg, log, sink)
	require.NoError(t, err)
	return s
}

func TestScanComputesGapMetrics(t *testing.T) {
	src := &stubBarSource{
		daily: map[string][]models.DailyBar{
			prevDate.Format("2006-01-02"): {
				{Ticker: "GAPU", Date: prevDate, Open: 4.8, High: 5.1, Low: 4.7, Close: 5.0, Volume: 100000},
			},
			scanDate.Format("2006-01-02"): {
				{Ticker: "GAPU", Date: scanDate, Open: 10.0, High: 12.0, Low: 9.0, Close: 9.5, Volume: 250000},
			},
		},
	}

	s := newTestScanner(t, src, nil)
	results, err := s.Scan(context.Background(), scanDate, scanDate)
	require.NoError(t, err)
	require.Len(t, results, 1)

	c := results[0]
	assert.Equal(t, "GAPU", c.Ticker)
	assert.InDelta(t, 100.0, c.GapUpPercentage, 1e-9)
	assert.InDelta(t, 20.0, c.SpikePercentage, 1e-9)
	assert.InDelta(t, -5.0, c.O2CPercentage, 1e-9)
}

func TestScanRetentionRules(t *testing.T) {
	src := &stubBarSource{
		daily: map[string][]models.DailyBar{
			prevDate.Format("2006-01-02"): {
				{Ticker: "LONGX", Date: prevDate, Close: 5.0},
				{Ticker: "PENY", Date: prevDate, Close: 0.4},
				{Ticker: "FLAT", Date: prevDate, Close: 10.0},
				{Ticker: "KEEP", Date: prevDate, Close: 5.0},
			},
			scanDate.Format("2006-01-02"): {
				// Ticker longer than four characters.
				{Ticker: "LONGX", Date: scanDate, Open: 10.0, High: 11.0, Low: 9.0, Close: 10.0, Volume: 1000},
				// Opens below one dollar.
				{Ticker: "PENY", Date: scanDate, Open: 0.9, High: 1.0, Low: 0.8, Close: 0.9, Volume: 1000},
				// Gap of 50% does not clear the threshold.
				{Ticker: "FLAT", Date: scanDate, Open: 15.0, High: 16.0, Low: 14.0, Close: 15.0, Volume: 1000},
				// No previous-day bar at all.
				{Ticker: "NEW", Date: scanDate, Open: 10.0, High: 11.0, Low: 9.0, Close: 10.0, Volume: 1000},
				{Ticker: "KEEP", Date: scanDate, Open: 10.0, High: 11.0, Low: 9.0, Close: 10.5, Volume: 1000},
			},
		},
	}

	s := newTestScanner(t, src, nil)
	results, err := s.Scan(context.Background(), scanDate, scanDate)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "KEEP", results[0].Ticker)
}

func TestScanEnrichment(t *testing.T) {
	flt := int64(1_500_000)
	mktCap := int64(20_000_000)
	src := &stubBarSource{
		daily: map[string][]models.DailyBar{
			prevDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: prevDate, Close: 5.0}},
			scanDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: scanDate, Open: 10.0, High: 12.0, Low: 9.0, Close: 9.5, Volume: 1000}},
		},
		details: map[string]models.ReferenceDetails{
			"GAPU": {Float: &flt, MarketCap: &mktCap},
		},
	}

	s := newTestScanner(t, src, nil)
	results, err := s.Scan(context.Background(), scanDate, scanDate)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Float)
	assert.Equal(t, flt, *results[0].Float)
	require.NotNil(t, results[0].MarketCap)
	assert.Equal(t, mktCap, *results[0].MarketCap)
}

func TestScanEnrichmentFailureLeavesFieldsNull(t *testing.T) {
	src := &stubBarSource{
		daily: map[string][]models.DailyBar{
			prevDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: prevDate, Close: 5.0}},
			scanDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: scanDate, Open: 10.0, High: 12.0, Low: 9.0, Close: 9.5, Volume: 1000}},
		},
		detailsErr: errors.New("reference endpoint unavailable"),
	}

	s := newTestScanner(t, src, nil)
	results, err := s.Scan(context.Background(), scanDate, scanDate)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Float)
	assert.Nil(t, results[0].MarketCap)
}

func TestScanInvalidRange(t *testing.T) {
	s := newTestScanner(t, &stubBarSource{}, nil)

	_, err := s.Scan(context.Background(), scanDate, scanDate.AddDate(0, 0, -7))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMissingDateRange)

	_, err = s.Scan(context.Background(), time.Time{}, scanDate)
	assert.ErrorIs(t, err, models.ErrMissingDateRange)
}

func TestScanPerDateFailureContinues(t *testing.T) {
	src := &stubBarSource{dailyErr: errors.New("upstream timeout")}

	s := newTestScanner(t, src, nil)
	// Thursday and Friday; both dates fail to fetch but the scan finishes.
	results, err := s.Scan(context.Background(), scanDate, scanDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScanProgressEvents(t *testing.T) {
	src := &stubBarSource{
		daily: map[string][]models.DailyBar{
			prevDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: prevDate, Close: 5.0}},
			scanDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: scanDate, Open: 10.0, High: 12.0, Low: 9.0, Close: 9.5, Volume: 1000}},
		},
	}
	sink := &captureSink{}

	s := newTestScanner(t, src, sink)
	// Thursday through Saturday; the weekend day contributes no event.
	_, err := s.Scan(context.Background(), scanDate, scanDate.AddDate(0, 0, 2))
	require.NoError(t, err)

	require.Len(t, sink.events, 3)
	assert.Equal(t, EventProgress, sink.events[0].Type)
	assert.Equal(t, scanDate.Format("2006-01-02"), sink.events[0].CurrentDate)
	assert.InDelta(t, 0.0, sink.events[0].Progress, 1e-9)

	assert.Equal(t, EventProgress, sink.events[1].Type)
	assert.InDelta(t, 50.0, sink.events[1].Progress, 1e-9)

	last := sink.events[2]
	assert.Equal(t, EventFinished, last.Type)
	assert.InDelta(t, 100.0, last.Progress, 1e-9)
	require.Len(t, last.Results, 1)
	assert.Equal(t, "GAPU", last.Results[0].Ticker)
}

type stubCandidateRepo struct {
	saved map[string][]models.GapUpCandidate
}

func (r *stubCandidateRepo) Save(ctx context.Context, candidates []models.GapUpCandidate) error {
	if r.saved == nil {
		r.saved = make(map[string][]models.GapUpCandidate)
	}
	for _, c := range candidates {
		key := c.Date.Format("2006-01-02")
		r.saved[key] = append(r.saved[key], c)
	}
	return nil
}

func (r *stubCandidateRepo) GetByDateRange(ctx context.Context, from, to time.Time) ([]models.GapUpCandidate, error) {
	var out []models.GapUpCandidate
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, r.saved[d.Format("2006-01-02")]...)
	}
	return out, nil
}

func (r *stubCandidateRepo) ExistsForDate(ctx context.Context, date time.Time) (bool, error) {
	return len(r.saved[date.Format("2006-01-02")]) > 0, nil
}

func TestScanReadsBackPersistedDates(t *testing.T) {
	cal, err := calendar.New()
	require.NoError(t, err)
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)

	src := &stubBarSource{
		daily: map[string][]models.DailyBar{
			prevDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: prevDate, Close: 5.0}},
			scanDate.Format("2006-01-02"): {{Ticker: "GAPU", Date: scanDate, Open: 10.0, High: 12.0, Low: 9.0, Close: 9.5, Volume: 1000}},
		},
	}
	repo := &stubCandidateRepo{}

	s, err := NewGapScanner(src, cal, repo, config.ScannerConfig{MinGapUpPercentage: 70.0}, log, nil)
	require.NoError(t, err)

	first, err := s.Scan(context.Background(), scanDate, scanDate)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, repo.saved[scanDate.Format("2006-01-02")], 1)

	// Drop the upstream data; the rescan must serve the persisted rows.
	src.daily = map[string][]models.DailyBar{}
	second, err := s.Scan(context.Background(), scanDate, scanDate)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "GAPU", second[0].Ticker)
}

func TestScanSkipsNonTradingDates(t *testing.T) {
	holiday := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	src := &stubBarSource{daily: map[string][]models.DailyBar{}}
	sink := &captureSink{}

	s := newTestScanner(t, src, sink)
	results, err := s.Scan(context.Background(), holiday, holiday)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Only the terminal event; the holiday produced no progress event.
	require.Len(t, sink.events, 1)
	assert.Equal(t, EventFinished, sink.events[0].Type)
}
