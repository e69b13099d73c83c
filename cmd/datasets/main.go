// Package main provides the dataset management CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gap-scanner/internal/config"
	"github.com/yourusername/gap-scanner/internal/database"
	"github.com/yourusername/gap-scanner/internal/models"
	"github.com/yourusername/gap-scanner/internal/repository"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
}

var rootCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage gap-up candidate datasets",
	Long:  `Lists, inspects, deletes and exports the named candidate snapshots used by backtest runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupDependencies(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			_ = db.Close(context.Background())
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := opContext()
		defer cancel()

		datasets, err := repos.Dataset.List(ctx)
		if err != nil {
			return err
		}
		if len(datasets) == 0 {
			fmt.Println("No datasets.")
			return nil
		}
		for _, ds := range datasets {
			fmt.Printf("%-36s  %-24s  %-16s  %s\n", ds.ID, ds.Name, ds.StrategyName, ds.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a dataset's candidate rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := opContext()
		defer cancel()

		ds, err := repos.Dataset.GetByName(ctx, args[0])
		if err != nil {
			return err
		}
		candidates, err := repos.Dataset.GetCandidates(ctx, ds.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Dataset %s (%s), %d rows\n", ds.Name, ds.ID, len(candidates))
		for _, c := range candidates {
			fmt.Printf("%s  %-5s  gap %7.2f%%  spike %7.2f%%  o2c %7.2f%%\n",
				c.Date.Format("2006-01-02"), c.Ticker, c.GapUpPercentage, c.SpikePercentage, c.O2CPercentage)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a dataset and its trades",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := opContext()
		defer cancel()

		if err := repos.Dataset.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted dataset %q\n", args[0])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <name> <path>",
	Short: "Export a dataset's candidates as CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := opContext()
		defer cancel()

		ds, err := repos.Dataset.GetByName(ctx, args[0])
		if err != nil {
			return err
		}
		candidates, err := repos.Dataset.GetCandidates(ctx, ds.ID)
		if err != nil {
			return err
		}

		if err := os.WriteFile(args[1], []byte(candidatesCSV(candidates)), 0o644); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		fmt.Printf("Exported %d rows to %s\n", len(candidates), args[1])
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setupDependencies() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger = logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err = database.NewDB(context.Background(), &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func candidatesCSV(candidates []models.GapUpCandidate) string {
	var b strings.Builder
	b.WriteString("date,ticker,gap_up_percentage,open,close,high,low,spike_percentage,o2c_percentage,volume,float,market_cap\n")
	for _, c := range candidates {
		b.WriteString(fmt.Sprintf("%s,%s,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.0f,%s,%s\n",
			c.Date.Format("2006-01-02"), c.Ticker,
			c.GapUpPercentage, c.Open, c.Close, c.High, c.Low,
			c.SpikePercentage, c.O2CPercentage, c.Volume,
			optionalInt(c.Float), optionalInt(c.MarketCap)))
	}
	return b.String()
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
