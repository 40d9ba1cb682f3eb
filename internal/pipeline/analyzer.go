// Package pipeline orchestrates parsing, feature derivation, scoring, tier
// classification and hybrid reconciliation for race form documents.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/features"
	"github.com/yourusername/formcast/internal/hybrid"
	"github.com/yourusername/formcast/internal/logger"
	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/ml"
	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/parser"
	"github.com/yourusername/formcast/internal/scoring"
	"github.com/yourusername/formcast/internal/source"
	"github.com/yourusername/formcast/internal/tiers"
)

// RaceOutcome is the full analysis output for one race.
type RaceOutcome struct {
	Parsed     *models.ParsedRace
	Assessment *models.RaceAssessment
	Decision   *models.HybridDecision
}

// DocumentReport collects per-document analysis results.
type DocumentReport struct {
	Document string
	Outcomes []RaceOutcome
	Skipped  []string // validation failures, one message per skipped race
	Err      error    // fatal document-level failure
}

// Analyzer runs the full analysis chain for parsed races. The predictor is
// optional; without one every decision falls back to rule-only
// reconciliation.
type Analyzer struct {
	parser     *parser.Parser
	validator  *RaceValidator
	deriver    *features.Deriver
	scorer     *scoring.Scorer
	classifier *tiers.Classifier
	reconciler *hybrid.Reconciler
	predictor  ml.Predictor
	log        *logrus.Logger
	plog       *logger.PipelineLogger
	mlog       *logger.MLLogger
}

// NewAnalyzer creates an analyzer from its stages
func NewAnalyzer(
	p *parser.Parser,
	deriver *features.Deriver,
	scorer *scoring.Scorer,
	classifier *tiers.Classifier,
	reconciler *hybrid.Reconciler,
	predictor ml.Predictor,
	log *logrus.Logger,
) *Analyzer {
	return &Analyzer{
		parser:     p,
		validator:  NewRaceValidator(),
		deriver:    deriver,
		scorer:     scorer,
		classifier: classifier,
		reconciler: reconciler,
		predictor:  predictor,
		log:        log,
		plog:       logger.NewPipelineLogger(log),
		mlog:       logger.NewMLLogger(log),
	}
}

// AnalyzeDocument parses a document and analyses every race in it. Races
// failing validation are skipped with a diagnostic, not fatal.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, doc source.Document) DocumentReport {
	report := DocumentReport{Document: doc.Name}
	if doc.Err != nil {
		report.Err = fmt.Errorf("document unavailable: %w", doc.Err)
		return report
	}
	start := time.Now()

	parsed := a.parser.Parse(doc.Text)

	entrantCount := 0
	for _, pr := range parsed {
		entrantCount += len(pr.Entrants)

		if errs := a.validator.ValidateRace(pr); len(errs) > 0 {
			msg := fmt.Sprintf("%s race %d: %s", pr.Race.Track, pr.Race.RaceNumber, strings.Join(errs, "; "))
			report.Skipped = append(report.Skipped, msg)
			a.log.WithField("race", pr.Race.Key()).Warn("Skipping invalid race: " + strings.Join(errs, "; "))
			continue
		}

		outcome, err := a.AnalyzeRace(ctx, pr)
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s race %d: %v", pr.Race.Track, pr.Race.RaceNumber, err))
			continue
		}
		report.Outcomes = append(report.Outcomes, *outcome)
	}

	elapsed := time.Since(start)
	metrics.DocumentParseDuration.Observe(elapsed.Seconds())
	metrics.RacesParsedTotal.Add(float64(len(parsed)))
	metrics.EntrantsParsedTotal.Add(float64(entrantCount))
	a.plog.LogDocumentParsed(doc.Name, len(parsed), entrantCount, float64(elapsed.Milliseconds()))

	if len(parsed) == 0 {
		metrics.DocumentsProcessedTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.DocumentsProcessedTotal.WithLabelValues("success").Inc()
	}

	return report
}

// AnalyzeRace runs one race through derivation, scoring, classification and
// reconciliation.
func (a *Analyzer) AnalyzeRace(ctx context.Context, pr *models.ParsedRace) (*RaceOutcome, error) {
	sets, err := a.deriver.DeriveRace(pr.Entrants)
	if err != nil {
		return nil, fmt.Errorf("feature derivation failed: %w", err)
	}

	scored := a.scorer.ScoreRace(pr.Entrants, sets)
	assessment := a.classifier.Classify(pr.Race.Key(), scored)

	confidence := a.fetchConfidence(ctx, pr, assessment)
	decision := a.reconciler.Reconcile(assessment, confidence)

	return &RaceOutcome{Parsed: pr, Assessment: assessment, Decision: decision}, nil
}

// fetchConfidence asks the predictor for the top pick's confidence. Any
// predictor failure degrades to rule-only reconciliation.
func (a *Analyzer) fetchConfidence(ctx context.Context, pr *models.ParsedRace, assessment *models.RaceAssessment) *float64 {
	if a.predictor == nil || len(assessment.Ranked) == 0 {
		return nil
	}

	// The reconciler judges the ranked leader even when the tier gate zeroed
	// TopBox, so the confidence lookup follows the ranking, not the tier.
	topBox := assessment.TopBox
	if topBox == 0 {
		topBox = assessment.Ranked[0].Entrant.Box
	}

	confidences, err := a.predictor.PredictRace(ctx, pr.Race, pr.Entrants)
	if err != nil {
		metrics.PredictorErrorsTotal.WithLabelValues("predict").Inc()
		a.mlog.LogPredictorUnavailable(err.Error(), "rule-only")
		return nil
	}

	conf, ok := confidences[topBox]
	if !ok {
		metrics.PredictorErrorsTotal.WithLabelValues("missing_box").Inc()
		a.mlog.LogPredictionError(pr.Race.Track, pr.Race.RaceNumber, fmt.Sprintf("no confidence for box %d", topBox))
		return nil
	}
	return &conf
}
