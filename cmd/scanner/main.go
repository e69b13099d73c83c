// Package main provides the entry point for the gap-up scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/calendar"
	"github.com/yourusername/gap-scanner/internal/config"
	"github.com/yourusername/gap-scanner/internal/database"
	"github.com/yourusername/gap-scanner/internal/health"
	"github.com/yourusername/gap-scanner/internal/logger"
	"github.com/yourusername/gap-scanner/internal/marketdata"
	"github.com/yourusername/gap-scanner/internal/metrics"
	"github.com/yourusername/gap-scanner/internal/repository"
	"github.com/yourusername/gap-scanner/internal/scanner"
	"github.com/yourusername/gap-scanner/internal/scheduler"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to config file")
		fromDate    = flag.String("from", "", "Scan start date (YYYY-MM-DD)")
		toDate      = flag.String("to", "", "Scan end date (YYYY-MM-DD)")
		datasetName = flag.String("dataset", "", "Freeze scan results into this dataset")
		daemon      = flag.Bool("daemon", false, "Run the nightly scan schedule instead of a one-shot scan")
	)
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(ctx)

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to build repositories: %v", err)
	}

	metrics.InitRegistry()
	hub := scanner.NewStreamHub(log)
	defer hub.Close()

	opsServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Port:        healthPort(cfg),
		Logger:      log,
		DB:          db,
		Metrics:     metrics.Handler(),
		Stream:      hub,
	})
	if err := opsServer.Start(ctx); err != nil {
		log.Fatalf("Failed to start operational server: %v", err)
	}

	gapScanner, err := scanner.NewGapScanner(newBarSource(cfg, log), newCalendar(log), repos.Candidate, cfg.Scanner, log, hub)
	if err != nil {
		log.Fatalf("Failed to build scanner: %v", err)
	}
	opsServer.SetReady(true)

	if *daemon {
		runDaemon(ctx, cfg, gapScanner, repos, log)
		return
	}

	runOnce(ctx, cfg, gapScanner, repos, log, *fromDate, *toDate, *datasetName)
}

func runOnce(
	ctx context.Context,
	cfg *config.Config,
	gapScanner *scanner.GapScanner,
	repos *repository.Repositories,
	log *logrus.Logger,
	fromDate, toDate, datasetName string,
) {
	from := parseDate(fromDate, log, "from")
	to := parseDate(toDate, log, "to")

	results, err := gapScanner.Scan(ctx, from, to)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	log.WithField("candidates", len(results)).Info("Scan complete")

	if datasetName != "" {
		dataset, err := repos.Dataset.CreateSnapshot(ctx, datasetName, cfg.Backtest.StrategyName, results)
		if err != nil {
			log.Fatalf("Failed to create dataset snapshot: %v", err)
		}
		log.WithFields(logrus.Fields{
			"dataset": dataset.Name,
			"id":      dataset.ID,
			"rows":    len(results),
		}).Info("Dataset snapshot created")
	}
}

func runDaemon(
	ctx context.Context,
	cfg *config.Config,
	gapScanner *scanner.GapScanner,
	repos *repository.Repositories,
	log *logrus.Logger,
) {
	if !cfg.Schedule.Enabled {
		log.Fatal("Daemon mode requires schedule.enabled in config")
	}

	sched := scheduler.NewScheduler(gapScanner, repos.Dataset, log)
	if err := sched.ScheduleNightlyScan(cfg.Schedule.NightlyScan, cfg.Schedule.SaveToDataset, cfg.Backtest.StrategyName); err != nil {
		log.Fatalf("Failed to schedule nightly scan: %v", err)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.WithField("next_run", sched.NextRun()).Info("Scanner daemon running")

	<-ctx.Done()
	if err := sched.Stop(); err != nil {
		log.WithError(err).Error("Scheduler shutdown failed")
	}
}

func newBarSource(cfg *config.Config, log *logrus.Logger) marketdata.BarSource {
	httpCfg := marketdata.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.MarketData.RetryAttempts
	httpCfg.RateLimit = cfg.MarketData.RateLimitPerSec

	client := marketdata.NewRateLimitedHTTPClient(httpCfg, log)
	polygon := marketdata.NewPolygonClient(&cfg.MarketData, client, log)
	ttl := time.Duration(cfg.MarketData.RefCacheTTLMinutes) * time.Minute
	return marketdata.NewCachedBarSource(polygon, ttl, log)
}

func newCalendar(log *logrus.Logger) *calendar.Calendar {
	cal, err := calendar.New()
	if err != nil {
		log.Fatalf("Failed to load trading calendar: %v", err)
	}
	return cal
}

func loadConfigWithSecrets(path string) *config.Config {
	bootstrap := logrus.New()

	cfg, err := config.Load(path)
	if err != nil {
		bootstrap.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			bootstrap.Fatal("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			bootstrap.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		bootstrap.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func parseDate(value string, log *logrus.Logger, name string) time.Time {
	if value == "" {
		log.Fatalf("Missing required -%s date", name)
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		log.Fatalf("Invalid -%s date %q: %v", name, value, err)
	}
	return parsed
}

func healthPort(cfg *config.Config) string {
	if cfg.Scanner.StreamPort > 0 {
		return fmt.Sprintf("%d", cfg.Scanner.StreamPort)
	}
	return ""
}
