package pipeline

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/logger"
	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/repository"
	"github.com/yourusername/formcast/internal/source"
)

// BatchReport is the merged outcome of analysing a set of documents.
type BatchReport struct {
	Outcomes   map[models.RaceKey]RaceOutcome
	Documents  []DocumentReport
	Collisions []models.RaceKey // keys claimed by more than one document
	Metrics    *BatchMetrics
}

// BatchRunner fans documents out across a worker pool and merges the results
// by race key. The decision repository is optional; when present every
// decision is persisted.
type BatchRunner struct {
	analyzer  *Analyzer
	decisions repository.DecisionRepository
	workers   int
	log       *logrus.Logger
	plog      *logger.PipelineLogger
	alog      *logger.AuditLogger
}

// NewBatchRunner creates a batch runner
func NewBatchRunner(analyzer *Analyzer, decisions repository.DecisionRepository, workers int, log *logrus.Logger) *BatchRunner {
	if workers <= 0 {
		workers = 4
	}
	return &BatchRunner{
		analyzer:  analyzer,
		decisions: decisions,
		workers:   workers,
		log:       log,
		plog:      logger.NewPipelineLogger(log),
		alog:      logger.NewAuditLogger(log),
	}
}

// Run analyses every document concurrently and merges the per-race outcomes.
// A race key seen in more than one document is reported as a collision and
// the first document's outcome is kept.
func (b *BatchRunner) Run(ctx context.Context, docs []source.Document) (*BatchReport, error) {
	batchMetrics := NewBatchMetrics()
	batchMetrics.TotalDocuments = len(docs)
	start := time.Now()

	jobs := make(chan source.Document)
	reports := make(chan DocumentReport)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				reports <- b.analyzer.AnalyzeDocument(ctx, doc)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, doc := range docs {
			select {
			case <-ctx.Done():
				return
			case jobs <- doc:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(reports)
	}()

	report := &BatchReport{
		Outcomes: make(map[models.RaceKey]RaceOutcome),
		Metrics:  batchMetrics,
	}

	for docReport := range reports {
		report.Documents = append(report.Documents, docReport)
		batchMetrics.RecordDocument(docReport.Err != nil)
		batchMetrics.RecordSkipped(len(docReport.Skipped))
		if docReport.Err != nil {
			b.plog.LogDocumentFailed(docReport.Document, docReport.Err.Error())
			metrics.DocumentsProcessedTotal.WithLabelValues("failure").Inc()
			continue
		}
		b.merge(ctx, report, docReport)
	}

	batchMetrics.Duration = time.Since(start)
	metrics.LastBatchRaces.Set(float64(batchMetrics.RacesAssessed))
	b.plog.LogBatchCompleted(
		batchMetrics.SuccessfulDocs, batchMetrics.FailedDocs,
		batchMetrics.RacesAssessed, batchMetrics.Recommendations,
		float64(batchMetrics.Duration.Milliseconds()),
	)

	return report, ctx.Err()
}

// merge folds one document's outcomes into the batch, detecting race key
// collisions across documents.
func (b *BatchRunner) merge(ctx context.Context, report *BatchReport, docReport DocumentReport) {
	for _, outcome := range docReport.Outcomes {
		key := outcome.Assessment.Key
		if _, exists := report.Outcomes[key]; exists {
			report.Collisions = append(report.Collisions, key)
			report.Metrics.RecordCollision()
			b.log.WithError(models.ErrRaceKeyCollision).WithFields(logrus.Fields{
				"track":       key.Track,
				"race_number": key.RaceNumber,
				"document":    docReport.Document,
			}).Warn("Race key collision across documents, keeping first outcome")
			continue
		}

		report.Outcomes[key] = outcome
		report.Metrics.RecordRace(outcome.Decision.Recommended())
		metrics.HybridRecommendationsTotal.WithLabelValues(strconv.FormatBool(outcome.Decision.Recommended())).Inc()

		b.alog.LogTierAssignment(
			key.Track, key.RaceNumber, string(outcome.Assessment.Tier),
			outcome.Assessment.TopBox, outcome.Assessment.TopScore,
			outcome.Assessment.MarginPercent,
		)

		if b.decisions != nil {
			if err := b.decisions.Save(ctx, outcome.Decision); err != nil {
				b.log.WithError(err).WithField("race", key).Error("Failed to persist decision")
			}
		}
	}
}
