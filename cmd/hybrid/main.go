// Package main provides the hybrid analysis service. It runs the full
// pipeline with ML reconciliation: batch analysis over the configured
// document source, decision persistence, and in serve mode the scheduler,
// result stream and health endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/formcast/internal/boxbias"
	"github.com/yourusername/formcast/internal/config"
	"github.com/yourusername/formcast/internal/database"
	"github.com/yourusername/formcast/internal/features"
	"github.com/yourusername/formcast/internal/health"
	"github.com/yourusername/formcast/internal/hybrid"
	"github.com/yourusername/formcast/internal/logger"
	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/ml"
	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/parser"
	"github.com/yourusername/formcast/internal/pipeline"
	"github.com/yourusername/formcast/internal/repository"
	"github.com/yourusername/formcast/internal/results"
	"github.com/yourusername/formcast/internal/scheduler"
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
	serve      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&serve, "serve", false, "Run as a long-lived service with scheduled batches")
}

var rootCmd = &cobra.Command{
	Use:   "hybrid",
	Short: "Run hybrid rule and ML race analysis",
	Long: `Runs the full analysis pipeline: parses form documents, scores and
tiers every race, fetches ML confidences and reconciles both signals into
per-race decisions. With --serve it stays up and re-runs batches on the
configured schedule, ingesting settled results from the live stream.`,
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
		"serve":       serve,
	}).Info("Formcast hybrid service starting")

	metrics.InitRegistry()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srcLog := log.New(os.Stdout, "documents: ", log.LstdFlags)
	src, err := source.NewDocumentSource(cfg.Documents, srcLog)
	if err != nil {
		return fmt.Errorf("failed to create document source: %w", err)
	}

	var (
		db    *database.DB
		repos *repository.Repositories
	)
	if cfg.DatabaseEnabled() {
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
		appLog.Info("Database connection established")
	} else {
		appLog.Warn("No database configured; decisions will not be persisted")
	}

	var biasSource features.BoxBiasSource
	if cfg.Analysis.BoxBiasLookupEnabled && repos != nil {
		biasSource = boxbias.New(repos.Result, appLog)
	}

	predictor := ml.NewCachedClient(&cfg.Predictor, appLog)
	appLog.WithField("predictor_url", cfg.Predictor.URL).Info("Predictor client initialized")

	analyzer := pipeline.NewAnalyzer(
		parser.New(appLog),
		features.NewDeriver(biasSource, appLog),
		scoring.NewScorer(scoring.DefaultRegistry()),
		tiers.NewClassifier(cfg.Analysis.VolatileVenues, appLog),
		hybrid.NewReconciler(thresholdsFromConfig(cfg), appLog),
		predictor,
		appLog,
	)

	var decisions repository.DecisionRepository
	if repos != nil {
		decisions = repos.Decision
	}
	runner := pipeline.NewBatchRunner(analyzer, decisions, cfg.Analysis.Workers, appLog)

	if !serve {
		return runOnce(ctx, src, runner, appLog)
	}
	return runService(ctx, cancel, cfg, src, runner, db, repos, predictor, appLog)
}

// runOnce fetches the documents, runs a single batch and prints the decisions.
func runOnce(ctx context.Context, src source.DocumentSource, runner *pipeline.BatchRunner, appLog *logrus.Logger) error {
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

	printDecisions(report)
	return nil
}

// runService runs the long-lived mode: scheduled batches, health and metrics
// endpoints and the settled-result stream.
func runService(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	src source.DocumentSource,
	runner *pipeline.BatchRunner,
	db *database.DB,
	repos *repository.Repositories,
	predictor *ml.CachedClient,
	appLog *logrus.Logger,
) error {
	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		Predictor:   predictor,
	}
	if db != nil {
		healthCfg.DB = db
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	sched := scheduler.NewScheduler(runner, src, appLog)
	scheduled := 0
	if cfg.Schedule.AnalysisCron != "" {
		if err := sched.ScheduleAnalysis(cfg.Schedule.AnalysisCron); err != nil {
			return fmt.Errorf("failed to schedule analysis: %w", err)
		}
		scheduled++
	}
	if cfg.Schedule.SyncIntervalSeconds > 0 {
		if err := sched.ScheduleSync(cfg.Schedule.SyncIntervalSeconds); err != nil {
			return fmt.Errorf("failed to schedule sync: %w", err)
		}
		scheduled++
	}
	if scheduled > 0 {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		appLog.Warn("No schedule configured; service will only serve health and metrics")
	}

	if cfg.Results.Enabled && repos != nil {
		streamLog := log.New(os.Stdout, "results-stream: ", log.LstdFlags)
		stream := results.NewStreamClient(cfg.Results.StreamURL, cfg.Documents.APIKey, streamLog)
		stream.AddHandler(func(result *models.RaceResult) error {
			return repos.Result.Insert(ctx, result)
		})
		go func() {
			if err := stream.RunWithReconnect(ctx); err != nil && ctx.Err() == nil {
				appLog.WithError(err).Error("Result stream terminated")
			}
		}()
		appLog.WithField("stream_url", cfg.Results.StreamURL).Info("Result stream started")
	}

	healthServer.SetReady(true)
	appLog.Info("Hybrid service running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error stopping scheduler")
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Error stopping metrics server")
		}
	}

	appLog.Info("Hybrid service shut down")
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

func printDecisions(report *pipeline.BatchReport) {
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

	recommended := 0

	fmt.Println("\nHybrid Decisions")
	fmt.Println("================")
	for _, key := range keys {
		outcome := report.Outcomes[key]
		d := outcome.Decision

		conf := "n/a"
		if d.MLConfidence != nil {
			conf = fmt.Sprintf("%.1f", *d.MLConfidence)
		}
		pick := "-"
		if d.Recommended() {
			recommended++
			pick = fmt.Sprintf("box %d", d.RecommendedBox)
		}
		fmt.Printf("%-28s %-7s %-7s margin %.1f%%  ml %s  %s\n",
			key.String(), d.Tier, pick, d.MarginPercent, conf, d.Reason)
	}

	fmt.Printf("\nRecommendations: %d of %d races\n", recommended, len(keys))
	fmt.Printf("%s\n", report.Metrics.String())
}
