package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/repository"
)

type stubDecisionRepo struct {
	decisions []*models.HybridDecision
}

func (s *stubDecisionRepo) Save(ctx context.Context, decision *models.HybridDecision) error {
	s.decisions = append(s.decisions, decision)
	return nil
}

func (s *stubDecisionRepo) GetByKey(ctx context.Context, key models.RaceKey) (*models.HybridDecision, error) {
	for _, d := range s.decisions {
		if d.Key == key {
			return d, nil
		}
	}
	return nil, nil
}

func (s *stubDecisionRepo) GetRecent(ctx context.Context, limit int) ([]*models.HybridDecision, error) {
	return s.decisions, nil
}

func (s *stubDecisionRepo) GetRecommended(ctx context.Context, start, end time.Time) ([]*models.HybridDecision, error) {
	var recommended []*models.HybridDecision
	for _, d := range s.decisions {
		if d.Recommended() {
			recommended = append(recommended, d)
		}
	}
	return recommended, nil
}

type stubResultRepo struct {
	results []*models.RaceResult
}

func (s *stubResultRepo) Insert(ctx context.Context, result *models.RaceResult) error {
	s.results = append(s.results, result)
	return nil
}

func (s *stubResultRepo) InsertBatch(ctx context.Context, results []*models.RaceResult) error {
	s.results = append(s.results, results...)
	return nil
}

func (s *stubResultRepo) GetByKey(ctx context.Context, key models.RaceKey) (*models.RaceResult, error) {
	for _, r := range s.results {
		if r.Key() == key {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubResultRepo) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RaceResult, error) {
	return s.results, nil
}

func (s *stubResultRepo) BoxWinStats(ctx context.Context, track string) ([]repository.BoxStat, error) {
	return nil, nil
}

func decision(track string, race, box int, tier models.Tier) *models.HybridDecision {
	return &models.HybridDecision{
		Key:            models.RaceKey{Track: models.NormalizeVenue(track), RaceNumber: race},
		RecommendedBox: box,
		Tier:           tier,
	}
}

func result(track string, race, winningBox int) *models.RaceResult {
	return &models.RaceResult{
		Track:      track,
		RaceNumber: race,
		WinningBox: winningBox,
		SettledAt:  time.Now(),
	}
}

func newTestEvaluator(decisions *stubDecisionRepo, results *stubResultRepo) *Evaluator {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewEvaluator(decisions, results, logger)
}

func TestEvaluateHitsAndMisses(t *testing.T) {
	decisions := &stubDecisionRepo{decisions: []*models.HybridDecision{
		decision("Sandown", 1, 3, models.Tier0),
		decision("Sandown", 2, 5, models.Tier0),
		decision("Angle Park", 4, 1, models.Tier2),
	}}
	results := &stubResultRepo{results: []*models.RaceResult{
		result("Sandown", 1, 3),
		result("Sandown", 2, 7),
		result("Angle Park", 4, 1),
	}}

	report, err := newTestEvaluator(decisions, results).Evaluate(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Tips)
	assert.Equal(t, 3, report.Settled)
	assert.Equal(t, 0, report.Unsettled)
	assert.Equal(t, 2, report.Hits)
	assert.InDelta(t, 2.0/3.0, report.HitRate(), 1e-9)

	tier0 := report.ByTier[models.Tier0]
	require.NotNil(t, tier0)
	assert.Equal(t, 2, tier0.Tips)
	assert.Equal(t, 1, tier0.Hits)
	assert.InDelta(t, 0.5, tier0.HitRate(), 1e-9)
}

func TestEvaluateUnsettledNotCountedAsMiss(t *testing.T) {
	decisions := &stubDecisionRepo{decisions: []*models.HybridDecision{
		decision("Sandown", 1, 3, models.Tier0),
		decision("Sandown", 9, 2, models.Tier0),
	}}
	results := &stubResultRepo{results: []*models.RaceResult{
		result("Sandown", 1, 3),
	}}

	report, err := newTestEvaluator(decisions, results).Evaluate(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Tips)
	assert.Equal(t, 1, report.Settled)
	assert.Equal(t, 1, report.Unsettled)
	assert.Equal(t, 1, report.Hits)
	assert.InDelta(t, 1.0, report.HitRate(), 1e-9)
}

func TestEvaluateEmptyWindow(t *testing.T) {
	report, err := newTestEvaluator(&stubDecisionRepo{}, &stubResultRepo{}).Evaluate(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)

	assert.Zero(t, report.Tips)
	assert.Zero(t, report.Settled)
	assert.Zero(t, report.HitRate())
	assert.Empty(t, report.ByTier)
}

func TestVenueNormalizationJoinsResultToDecision(t *testing.T) {
	decisions := &stubDecisionRepo{decisions: []*models.HybridDecision{
		decision("  angle   park ", 4, 1, models.Tier0),
	}}
	results := &stubResultRepo{results: []*models.RaceResult{
		result("Angle Park", 4, 1),
	}}

	report, err := newTestEvaluator(decisions, results).Evaluate(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Settled)
	assert.Equal(t, 1, report.Hits)
}
