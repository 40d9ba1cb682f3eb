// Package evaluation measures recorded tips against settled race results.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	applog "github.com/yourusername/formcast/internal/logger"
	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/repository"
)

// TierStats aggregates settlement outcomes for a single tier.
type TierStats struct {
	Tips    int `json:"tips"`
	Settled int `json:"settled"`
	Hits    int `json:"hits"`
}

// HitRate returns the fraction of settled tips whose pick won.
func (s TierStats) HitRate() float64 {
	if s.Settled == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Settled)
}

// Report summarises tip performance over a settlement window.
type Report struct {
	Start     time.Time                  `json:"start"`
	End       time.Time                  `json:"end"`
	Tips      int                        `json:"tips"`
	Settled   int                        `json:"settled"`
	Unsettled int                        `json:"unsettled"`
	Hits      int                        `json:"hits"`
	ByTier    map[models.Tier]*TierStats `json:"by_tier"`
}

// HitRate returns the overall hit rate across settled tips.
func (r *Report) HitRate() float64 {
	if r.Settled == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Settled)
}

// Evaluator joins stored decisions against settled results.
type Evaluator struct {
	decisions repository.DecisionRepository
	results   repository.ResultRepository
	audit     *applog.AuditLogger
	logger    *logrus.Logger
}

// NewEvaluator creates an evaluator over the given repositories.
func NewEvaluator(decisions repository.DecisionRepository, results repository.ResultRepository, logger *logrus.Logger) *Evaluator {
	return &Evaluator{
		decisions: decisions,
		results:   results,
		audit:     applog.NewAuditLogger(logger),
		logger:    logger,
	}
}

// Evaluate settles every recommended decision in [start, end] against stored
// results. Decisions with no result yet are counted as unsettled, not misses.
func (e *Evaluator) Evaluate(ctx context.Context, start, end time.Time) (*Report, error) {
	decisions, err := e.decisions.GetRecommended(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}

	results, err := e.results.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	byKey := make(map[models.RaceKey]*models.RaceResult, len(results))
	for _, result := range results {
		byKey[result.Key()] = result
	}

	report := &Report{
		Start:  start,
		End:    end,
		ByTier: make(map[models.Tier]*TierStats),
	}

	for _, decision := range decisions {
		report.Tips++
		stats := report.ByTier[decision.Tier]
		if stats == nil {
			stats = &TierStats{}
			report.ByTier[decision.Tier] = stats
		}
		stats.Tips++

		result, ok := byKey[decision.Key]
		if !ok {
			report.Unsettled++
			continue
		}

		report.Settled++
		stats.Settled++

		hit := result.WinningBox == decision.RecommendedBox
		if hit {
			report.Hits++
			stats.Hits++
		}
		e.audit.LogResultSettlement(decision.Key.Track, decision.Key.RaceNumber, result.WinningBox, decision.RecommendedBox, hit)
	}

	e.logger.WithFields(logrus.Fields{
		"tips":     report.Tips,
		"settled":  report.Settled,
		"hits":     report.Hits,
		"hit_rate": report.HitRate(),
	}).Info("Tip evaluation complete")

	return report, nil
}
