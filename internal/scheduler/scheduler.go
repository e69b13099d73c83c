// Package scheduler runs the recurring nightly scan.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/models"
	"github.com/yourusername/gap-scanner/internal/repository"
	"github.com/yourusername/gap-scanner/internal/scanner"
)

// nightlyScanWindow bounds how far a scheduled scan looks back, so a scan
// that missed a few nights still catches up.
const nightlyScanWindow = 7 * 24 * time.Hour

// Scheduler manages the recurring scan job
type Scheduler struct {
	cron        *cron.Cron
	gapScanner  *scanner.GapScanner
	datasetRepo repository.DatasetRepository
	logger      *logrus.Logger
	mu          sync.RWMutex
	isRunning   bool
	jobIDs      []cron.EntryID
}

// NewScheduler creates a new scheduler. datasetRepo may be nil when scan
// results are not frozen into a dataset.
func NewScheduler(gapScanner *scanner.GapScanner, datasetRepo repository.DatasetRepository, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		gapScanner:  gapScanner,
		datasetRepo: datasetRepo,
		logger:      logger,
		jobIDs:      make([]cron.EntryID, 0),
	}
}

// ScheduleNightlyScan schedules a recurring scan of the trailing week.
// When datasetName is set, each run refreshes that dataset snapshot with
// the full persisted result range.
func (s *Scheduler) ScheduleNightlyScan(cronExpression, datasetName, strategyName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
		defer cancel()

		to := time.Now().UTC().Truncate(24 * time.Hour)
		from := to.Add(-nightlyScanWindow)

		s.logger.WithFields(logrus.Fields{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		}).Info("Starting scheduled scan")

		results, err := s.gapScanner.Scan(ctx, from, to)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled scan failed")
			return
		}
		s.logger.WithField("candidates", len(results)).Info("Scheduled scan completed")

		if s.datasetRepo != nil && datasetName != "" {
			s.refreshDataset(ctx, datasetName, strategyName)
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled nightly scan")

	return nil
}

// refreshDataset rebuilds the named dataset snapshot from the persisted
// candidates of the scan window, preserving older rows already frozen in
// the snapshot.
func (s *Scheduler) refreshDataset(ctx context.Context, datasetName, strategyName string) {
	existing := make([]models.GapUpCandidate, 0)
	if ds, err := s.datasetRepo.GetByName(ctx, datasetName); err == nil {
		if rows, err := s.datasetRepo.GetCandidates(ctx, ds.ID); err == nil {
			existing = rows
		}
	}

	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[c.Date.Format("2006-01-02")+":"+c.Ticker] = struct{}{}
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	recent, err := s.gapScanner.PersistedCandidates(ctx, to.Add(-nightlyScanWindow), to)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load persisted candidates for dataset refresh")
		return
	}
	for _, c := range recent {
		key := c.Date.Format("2006-01-02") + ":" + c.Ticker
		if _, ok := seen[key]; ok {
			continue
		}
		existing = append(existing, c)
	}

	if _, err := s.datasetRepo.CreateSnapshot(ctx, datasetName, strategyName, existing); err != nil {
		s.logger.WithError(err).Error("Failed to refresh dataset snapshot")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"dataset": datasetName,
		"rows":    len(existing),
	}).Info("Refreshed dataset snapshot")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}
