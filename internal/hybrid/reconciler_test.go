package hybrid

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/formcast/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func floatPtr(v float64) *float64 { return &v }

func assessment(topBox int, marginPct float64) *models.RaceAssessment {
	a := &models.RaceAssessment{
		Key:           models.RaceKey{Track: "ANGLE PARK", RaceNumber: 3},
		Tier:          models.Tier1,
		TopBox:        topBox,
		TopScore:      50.0,
		MarginPercent: &marginPct,
	}
	if topBox > 0 {
		a.Ranked = []models.ScoredEntrant{
			{Entrant: &models.Entrant{Box: topBox}, Score: 50.0},
			{Entrant: &models.Entrant{Box: 5}, Score: 50.0 * (1 - marginPct/100)},
		}
	}
	return a
}

func newTestReconciler() *Reconciler {
	return NewReconciler(DefaultThresholds(), quietLogger())
}

func TestReconcileBothSignalsAgree(t *testing.T) {
	d := newTestReconciler().Reconcile(assessment(2, 20.0), floatPtr(85.0))

	assert.True(t, d.Recommended())
	assert.Equal(t, 2, d.RecommendedBox)
	assert.Equal(t, ReasonAgreed, d.Reason)
	require.NotNil(t, d.MLConfidence)
	assert.Equal(t, 85.0, *d.MLConfidence)
}

func TestReconcileMLConfidenceInsufficient(t *testing.T) {
	// Strong rule margin vetoed by a weak model signal.
	d := newTestReconciler().Reconcile(assessment(2, 20.0), floatPtr(60.0))

	assert.False(t, d.Recommended())
	assert.Contains(t, d.Reason, ReasonMLInsufficient)
}

func TestReconcileMarginInsufficient(t *testing.T) {
	d := newTestReconciler().Reconcile(assessment(2, 10.0), floatPtr(85.0))

	assert.False(t, d.Recommended())
	assert.Contains(t, d.Reason, ReasonMarginInsufficient)
}

func TestReconcileBothInsufficient(t *testing.T) {
	d := newTestReconciler().Reconcile(assessment(2, 10.0), floatPtr(60.0))

	assert.False(t, d.Recommended())
	assert.Equal(t, ReasonBothInsufficient, d.Reason)
}

func TestReconcileThresholdsAreInclusive(t *testing.T) {
	d := newTestReconciler().Reconcile(assessment(2, 18.0), floatPtr(70.0))
	assert.True(t, d.Recommended())
}

func TestReconcileNilConfidenceFallsBackToRules(t *testing.T) {
	d := newTestReconciler().Reconcile(assessment(2, 20.0), nil)

	assert.True(t, d.Recommended())
	assert.Equal(t, ReasonMLUnavailable, d.Reason)
	assert.Nil(t, d.MLConfidence)
}

func TestReconcileNilConfidenceWeakMargin(t *testing.T) {
	d := newTestReconciler().Reconcile(assessment(2, 10.0), nil)

	assert.False(t, d.Recommended())
	assert.Equal(t, ReasonMLUnavailable, d.Reason)
}

func TestReconcileNoTopPick(t *testing.T) {
	a := &models.RaceAssessment{
		Key:  models.RaceKey{Track: "ANGLE PARK", RaceNumber: 3},
		Tier: models.NoBet,
	}
	d := newTestReconciler().Reconcile(a, floatPtr(90.0))

	assert.False(t, d.Recommended())
	assert.Equal(t, ReasonNoTopPick, d.Reason)
}

func TestReconcileZeroedTopBoxUsesRanking(t *testing.T) {
	// A NO_BET assessment has TopBox zeroed but keeps its ranking; the
	// reconciler still reports which box the rules favored.
	a := assessment(4, 25.0)
	a.TopBox = 0
	a.Tier = models.NoBet

	d := newTestReconciler().Reconcile(a, floatPtr(90.0))
	assert.Equal(t, 4, d.RecommendedBox)
	assert.Equal(t, models.NoBet, d.Tier)
}

func TestReconcileCustomThresholds(t *testing.T) {
	r := NewReconciler(Thresholds{MarginPercent: 5.0, MLConfidence: 50.0}, quietLogger())
	d := r.Reconcile(assessment(2, 6.0), floatPtr(55.0))
	assert.True(t, d.Recommended())
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, 18.0, th.MarginPercent)
	assert.Equal(t, 70.0, th.MLConfidence)
}
