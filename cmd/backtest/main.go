// Package main provides the entry point for the backtest CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gap-scanner/internal/backtest"
	"github.com/yourusername/gap-scanner/internal/calendar"
	"github.com/yourusername/gap-scanner/internal/candle"
	"github.com/yourusername/gap-scanner/internal/config"
	"github.com/yourusername/gap-scanner/internal/database"
	"github.com/yourusername/gap-scanner/internal/marketdata"
	"github.com/yourusername/gap-scanner/internal/metrics"
	"github.com/yourusername/gap-scanner/internal/repository"
)

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to config file")
		datasetName = flag.String("dataset", "", "Dataset to simulate (required)")
		output      = flag.String("output", "", "Override output path for the JSON report")
		curveCSV    = flag.Bool("curve-csv", false, "Also write the profit curve as CSV next to the report")
	)
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)
	log := newLogger(cfg)
	ctx := context.Background()

	if *datasetName == "" {
		log.Fatal("Missing required -dataset name")
	}

	engineCfg, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		log.Fatalf("Invalid backtest config: %v", err)
	}
	if *output != "" {
		engineCfg.OutputPath = *output
	}

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
	engine := buildEngine(cfg, engineCfg, repos, log)

	result, err := engine.Run(ctx, *datasetName)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	fmt.Print(backtest.GenerateConsoleReport(result))

	if engineCfg.OutputPath != "" {
		if err := backtest.WriteJSONReport(result, engineCfg.OutputPath); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		log.WithField("path", engineCfg.OutputPath).Info("Report written")

		if *curveCSV {
			csvPath := curvePath(engineCfg.OutputPath)
			if err := backtest.WriteCurveCSV(result, csvPath); err != nil {
				log.Fatalf("Failed to write profit curve: %v", err)
			}
			log.WithField("path", csvPath).Info("Profit curve written")
		}
	}
}

func buildEngine(cfg *config.Config, engineCfg backtest.EngineConfig, repos *repository.Repositories, log *logrus.Logger) *backtest.Engine {
	cal, err := calendar.New()
	if err != nil {
		log.Fatalf("Failed to load trading calendar: %v", err)
	}

	httpCfg := marketdata.DefaultHTTPClientConfig()
	client := marketdata.NewRateLimitedHTTPClient(httpCfg, log)
	polygon := marketdata.NewPolygonClient(&cfg.MarketData, client, log)

	detector, err := candle.NewDetector(polygon, cal, log)
	if err != nil {
		log.Fatalf("Failed to build detector: %v", err)
	}

	engine, err := backtest.NewEngine(engineCfg, repos, detector, log)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	return engine
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
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

func curvePath(reportPath string) string {
	ext := filepath.Ext(reportPath)
	return reportPath[:len(reportPath)-len(ext)] + "_curve.csv"
}
