// Package backtest simulates the short-the-death-candle strategy over
// persisted gap-up candidates and aggregates portfolio statistics.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/candle"
	"github.com/yourusername/gap-scanner/internal/metrics"
	"github.com/yourusername/gap-scanner/internal/models"
	"github.com/yourusername/gap-scanner/internal/repository"
)

// Detector yields the death-candle event for one (ticker, date) row.
type Detector interface {
	Detect(ctx context.Context, ticker string, date time.Time) (*candle.Event, bool, error)
}

// Result bundles one completed simulation run.
type Result struct {
	Trades []models.Trade        `json:"trades"`
	Stats  models.PortfolioStats `json:"stats"`
	Curve  ProfitCurve           `json:"curve"`
}

// Engine orchestrates simulation runs over dataset snapshots.
type Engine struct {
	config       EngineConfig
	repositories *repository.Repositories
	detector     Detector
	logger       *logrus.Logger
}

// NewEngine creates a new simulation engine. repos may be nil for ad-hoc
// runs that neither load datasets nor persist trades.
func NewEngine(cfg EngineConfig, repos *repository.Repositories, detector Detector, logger *logrus.Logger) (*Engine, error) {
	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		config:       cfg,
		repositories: repos,
		detector:     detector,
		logger:       logger,
	}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Run simulates the configured strategy over a named dataset, replaces the
// dataset's persisted trades for this strategy, and returns the result.
func (e *Engine) Run(ctx context.Context, datasetName string) (*Result, error) {
	if e.repositories == nil {
		return nil, fmt.Errorf("repositories are required to run against a dataset")
	}

	dataset, err := e.repositories.Dataset.GetByName(ctx, datasetName)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %q: %w", datasetName, err)
	}

	candidates, err := e.repositories.Dataset.GetCandidates(ctx, dataset.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset candidates: %w", err)
	}

	result, err := e.Simulate(ctx, candidates)
	if err != nil {
		return nil, err
	}

	if err := e.repositories.Trade.ReplaceForDataset(ctx, dataset.ID, e.config.StrategyName, result.Trades); err != nil {
		return nil, fmt.Errorf("failed to persist trades: %w", err)
	}

	return result, nil
}

// Simulate runs the strategy over the given candidate rows. Rows whose
// session has no death candle, and rows whose detection fails, are excluded
// from the trade set; exclusions never abort the run.
func (e *Engine) Simulate(ctx context.Context, candidates []models.GapUpCandidate) (*Result, error) {
	e.logger.WithFields(logrus.Fields{
		"strategy":   e.config.StrategyName,
		"candidates": len(candidates),
	}).Info("Starting simulation run")

	trades := make([]models.Trade, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		event, found, err := e.detector.Detect(ctx, c.Ticker, c.Date)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"ticker": c.Ticker,
				"date":   c.Date.Format("2006-01-02"),
			}).Warn("Excluding row, detection failed")
			metrics.RecordRowExcluded()
			continue
		}
		if !found {
			e.logger.WithFields(logrus.Fields{
				"ticker": c.Ticker,
				"date":   c.Date.Format("2006-01-02"),
			}).Debug("Excluding row, no death candle")
			metrics.RecordRowExcluded()
			continue
		}

		trades = append(trades, e.buildTrade(c, event))
	}

	// Stats assume chronological order regardless of dataset row order.
	SortTrades(trades, FieldDate, true)

	result := &Result{
		Trades: trades,
		Stats:  ComputeStats(trades),
		Curve:  BuildProfitCurve(trades),
	}

	metrics.RecordTrades(len(trades))
	e.logger.WithFields(logrus.Fields{
		"trades":   len(trades),
		"excluded": len(candidates) - len(trades),
	}).Info("Simulation run finished")

	return result, nil
}

// buildTrade converts a death-candle event into a simulated short trade.
func (e *Engine) buildTrade(c models.GapUpCandidate, event *candle.Event) models.Trade {
	entry := event.Classification.Close
	exit := event.SessionClose
	var stopTime *time.Time
	if event.StopLossTriggered {
		exit = event.StopLossPrice
		stopTime = event.StopLossTime
	}

	// Short position: profit is the negated long return, net of commission.
	profit := -(exit - entry) / entry * 100
	profit -= e.config.commission()

	return models.Trade{
		Ticker:       c.Ticker,
		Date:         c.Date,
		EntryPrice:   entry,
		ExitPrice:    exit,
		EntryTime:    event.Classification.Time,
		Profit:       profit,
		StopLossTime: stopTime,

		GapUpPercentage: c.GapUpPercentage,
		Open:            c.Open,
		Close:           c.Close,
		High:            c.High,
		Low:             c.Low,
		SpikePercentage: c.SpikePercentage,
		O2CPercentage:   c.O2CPercentage,
		Volume:          c.Volume,
		Float:           c.Float,
		MarketCap:       c.MarketCap,
	}
}
