// Package main provides a status tool for the ML predictor integration.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/formcast/internal/config"
	"github.com/yourusername/formcast/internal/database"
	"github.com/yourusername/formcast/internal/evaluation"
	"github.com/yourusername/formcast/internal/ml"
	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	evaluateCmd.Flags().IntVar(&evaluateDays, "days", 7, "Settlement window in days")
	rootCmd.AddCommand(evaluateCmd)
}

var evaluateDays int

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Settle recorded tips against stored race results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd.Context())
	},
}

var rootCmd = &cobra.Command{
	Use:   "ml-status",
	Short: "Check predictor service and pipeline status",
	Long:  `Displays health status, model version and recent decision activity for the ML predictor integration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		displayStatus(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func displayStatus(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	fmt.Println("\nPredictor Integration Status")
	fmt.Println("============================")

	client := ml.NewClient(&cfg.Predictor, logger)

	fmt.Print("Predictor health:  ")
	if err := client.HealthCheck(ctx); err != nil {
		fmt.Println("UNAVAILABLE")
		fmt.Printf("  error: %v\n", err)
	} else {
		fmt.Println("ONLINE")

		if version, err := client.ModelVersion(ctx); err == nil {
			fmt.Printf("Model version:     %s\n", version)
		} else {
			fmt.Printf("Model version:     unknown (%v)\n", err)
		}
	}

	fmt.Println("\nConfiguration")
	fmt.Println("-------------")
	fmt.Printf("  Predictor URL:  %s\n", cfg.Predictor.URL)
	fmt.Printf("  Timeout:        %d seconds\n", cfg.Predictor.RequestTimeoutSeconds)
	fmt.Printf("  Cache TTL:      %d seconds\n", cfg.Predictor.CacheTTLSeconds)
	fmt.Printf("  Cache max size: %d\n", cfg.Predictor.CacheMaxSize)
	fmt.Printf("  ML confidence:  %.1f\n", cfg.Analysis.HybridMLConfidence)
	fmt.Printf("  Margin:         %.1f%%\n", cfg.Analysis.HybridMarginPercent)

	if cfg.DatabaseEnabled() {
		fmt.Println("\nRecent Decisions")
		fmt.Println("----------------")
		displayRecentDecisions(ctx)
	}

	fmt.Println()
}

func runEvaluate(ctx context.Context) error {
	if !cfg.DatabaseEnabled() {
		return fmt.Errorf("evaluation requires a configured database")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -evaluateDays)

	evaluator := evaluation.NewEvaluator(repos.Decision, repos.Result, logger)
	report, err := evaluator.Evaluate(ctx, start, end)
	if err != nil {
		return err
	}

	fmt.Printf("\nTip Performance (last %d days)\n", evaluateDays)
	fmt.Println("==============================")
	fmt.Printf("  Tips:      %d\n", report.Tips)
	fmt.Printf("  Settled:   %d\n", report.Settled)
	fmt.Printf("  Unsettled: %d\n", report.Unsettled)
	fmt.Printf("  Hit rate:  %.1f%% (%d/%d)\n", report.HitRate()*100, report.Hits, report.Settled)

	for _, tier := range []models.Tier{models.Tier0, models.Tier1, models.Tier2, models.Tier3} {
		stats, ok := report.ByTier[tier]
		if !ok {
			continue
		}
		fmt.Printf("  %-7s %.1f%% (%d/%d)\n", tier, stats.HitRate()*100, stats.Hits, stats.Settled)
	}
	fmt.Println()

	return nil
}

func displayRecentDecisions(ctx context.Context) {
	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		fmt.Printf("  database unavailable: %v\n", err)
		return
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		fmt.Printf("  %v\n", err)
		return
	}

	decisions, err := repos.Decision.GetRecent(ctx, 10)
	if err != nil {
		fmt.Printf("  failed to load decisions: %v\n", err)
		return
	}
	if len(decisions) == 0 {
		fmt.Println("  none recorded")
		return
	}

	for _, d := range decisions {
		conf := "n/a"
		if d.MLConfidence != nil {
			conf = fmt.Sprintf("%.1f", *d.MLConfidence)
		}
		pick := "-"
		if d.Recommended() {
			pick = fmt.Sprintf("box %d", d.RecommendedBox)
		}
		fmt.Printf("  %-28s %-7s %-7s ml %s\n", d.Key.String(), d.Tier, pick, conf)
	}
}
