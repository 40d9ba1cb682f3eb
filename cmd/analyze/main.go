// Package main provides the rule-only batch analysis tool. It parses every
// form document from the configured source, scores the races and prints the
// tier assignments without consulting the ML predictor.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/formcast/internal/boxbias"
	"github.com/yourusername/formcast/internal/config"
	"github.com/yourusername/formcast/internal/database"
	"github.com/yourusername/formcast/internal/features"
	"github.com/yourusername/formcast/internal/hybrid"
	"github.com/yourusername/formcast/internal/logger"
	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/parser"
	"github.com/yourusername/formcast/internal/pipeline"
	"github.com/yourusername/formcast/internal/repository"
	"github.com/yourusername/formcast/internal/scoring"
	"github.com/yourusername/formcast/internal/source"
	"github.com/yourusername/formcast/internal/tiers"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	workers    int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (overrides configuration)")
}

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a rule-only batch analysis over form documents",
	Long: `Parses every form document from the configured source, derives
features, scores the entrants and prints per-race tier assignments. The ML
predictor is never consulted; every decision is rule-only.`,
	RunE: run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Formcast analyze starting")

	metrics.InitRegistry()

	ctx := cmd.Context()

	srcLog := log.New(os.Stdout, "documents: ", log.LstdFlags)
	src, err := source.NewDocumentSource(cfg.Documents, srcLog)
	if err != nil {
		return fmt.Errorf("failed to create document source: %w", err)
	}

	// Box bias lookups need the results store; without a database the
	// deriver falls back to the constant factor.
	var biasSource features.BoxBiasSource
	if cfg.Analysis.BoxBiasLookupEnabled && cfg.DatabaseEnabled() {
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}
		biasSource = boxbias.New(repos.Result, appLog)
		appLog.Info("Box bias lookup enabled")
	}

	analyzer := pipeline.NewAnalyzer(
		parser.New(appLog),
		features.NewDeriver(biasSource, appLog),
		scoring.NewScorer(scoring.DefaultRegistry()),
		tiers.NewClassifier(cfg.Analysis.VolatileVenues, appLog),
		hybrid.NewReconciler(thresholdsFromConfig(cfg), appLog),
		nil,
		appLog,
	)

	poolSize := workers
	if poolSize <= 0 {
		poolSize = cfg.Analysis.Workers
	}
	runner := pipeline.NewBatchRunner(analyzer, nil, poolSize, appLog)

	docs, err := src.FetchDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch documents: %w", err)
	}
	if len(docs) == 0 {
		appLog.WithField("source", src.Name()).Warn("No documents found")
		return nil
	}

	report, err := runner.Run(ctx, docs)
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	printReport(report)
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func thresholdsFromConfig(cfg *config.Config) hybrid.Thresholds {
	th := hybrid.DefaultThresholds()
	if cfg.Analysis.HybridMarginPercent > 0 {
		th.MarginPercent = cfg.Analysis.HybridMarginPercent
	}
	if cfg.Analysis.HybridMLConfidence > 0 {
		th.MLConfidence = cfg.Analysis.HybridMLConfidence
	}
	return th
}

func printReport(report *pipeline.BatchReport) {
	keys := make([]models.RaceKey, 0, len(report.Outcomes))
	for key := range report.Outcomes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Track != keys[j].Track {
			return keys[i].Track < keys[j].Track
		}
		return keys[i].RaceNumber < keys[j].RaceNumber
	})

	tierCounts := make(map[models.Tier]int)

	fmt.Println("\nRace Assessments")
	fmt.Println("================")
	for _, key := range keys {
		outcome := report.Outcomes[key]
		a := outcome.Assessment
		tierCounts[a.Tier]++

		margin := "n/a"
		if a.MarginPercent != nil {
			margin = fmt.Sprintf("%.1f%%", *a.MarginPercent)
		}
		fmt.Printf("%-28s %-7s box %d  score %.2f  margin %s\n",
			key.String(), a.Tier, a.TopBox, a.TopScore, margin)
	}

	fmt.Println("\nTier Summary")
	fmt.Println("============")
	for _, tier := range []models.Tier{models.Tier0, models.Tier1, models.Tier2, models.Tier3, models.NoBet} {
		fmt.Printf("%-7s %d\n", tier, tierCounts[tier])
	}

	if len(report.Collisions) > 0 {
		fmt.Printf("\nKey collisions: %d\n", len(report.Collisions))
		for _, key := range report.Collisions {
			fmt.Printf("  %s\n", key.String())
		}
	}

	fmt.Printf("\n%s\n", report.Metrics.String())
}
