package tiers

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

func scoredEntrant(box int, starts int, score float64) models.ScoredEntrant {
	return models.ScoredEntrant{
		Entrant: &models.Entrant{Name: "Entrant", Box: box, CareerStarts: starts},
		Score:   score,
	}
}

func classify(t *testing.T, volatile []string, entrants ...models.ScoredEntrant) *models.RaceAssessment {
	t.Helper()
	c := NewClassifier(volatile, quietLogger())
	return c.Classify(models.RaceKey{Track: "ANGLE PARK", RaceNumber: 1}, entrants)
}

func TestClassifyTier0(t *testing.T) {
	// 52 vs 40: margin 23.1%, absolute 12, favorable box, experienced pick.
	a := classify(t, nil,
		scoredEntrant(1, 30, 52.0),
		scoredEntrant(4, 30, 40.0),
	)

	assert.Equal(t, models.Tier0, a.Tier)
	assert.Equal(t, 1, a.TopBox)
	require.NotNil(t, a.MarginPercent)
	assert.InDelta(t, 23.0769, *a.MarginPercent, 1e-3)
	require.NotNil(t, a.MarginAbsolute)
	assert.InDelta(t, 12.0, *a.MarginAbsolute, 1e-9)
}

func TestClassifyTier0GateUnfavorableBox(t *testing.T) {
	// Same numbers from box 4 fail the TIER0 gate and fall through to TIER1.
	a := classify(t, nil,
		scoredEntrant(4, 30, 52.0),
		scoredEntrant(1, 30, 40.0),
	)
	assert.Equal(t, models.Tier1, a.Tier)
	assert.Equal(t, 4, a.TopBox)
}

func TestClassifyTier0GateInexperiencedPick(t *testing.T) {
	a := classify(t, nil,
		scoredEntrant(1, 24, 52.0),
		scoredEntrant(4, 30, 40.0),
	)
	assert.Equal(t, models.Tier1, a.Tier)
}

func TestClassifyTier0GateVolatileVenue(t *testing.T) {
	a := classify(t, []string{"Angle Park"},
		scoredEntrant(1, 30, 52.0),
		scoredEntrant(4, 30, 40.0),
	)
	assert.Equal(t, models.Tier1, a.Tier)
}

func TestClassifyCloseRaceIsNoBet(t *testing.T) {
	// 46 vs 44: margin 4.3% and absolute 2 clear no row of the table.
	a := classify(t, nil,
		scoredEntrant(4, 30, 46.0),
		scoredEntrant(2, 30, 44.0),
	)

	assert.Equal(t, models.NoBet, a.Tier)
	assert.Equal(t, 0, a.TopBox)
	assert.InDelta(t, 46.0, a.TopScore, 1e-9)
}

func TestClassifyTier3(t *testing.T) {
	// 36 vs 33: top score only clears the TIER3 row.
	a := classify(t, nil,
		scoredEntrant(3, 10, 36.0),
		scoredEntrant(5, 10, 33.0),
	)

	assert.Equal(t, models.Tier3, a.Tier)
	assert.Equal(t, 3, a.TopBox)
}

func TestClassifySingleEntrant(t *testing.T) {
	a := classify(t, nil, scoredEntrant(1, 30, 60.0))

	assert.Equal(t, models.NoBet, a.Tier)
	assert.Equal(t, 0, a.TopBox)
	assert.Nil(t, a.MarginPercent)
	assert.Nil(t, a.MarginAbsolute)
	require.Len(t, a.Ranked, 1)
}

func TestClassifyNoEntrants(t *testing.T) {
	a := classify(t, nil)

	assert.Equal(t, models.NoBet, a.Tier)
	assert.Equal(t, 0, a.TopBox)
	assert.Nil(t, a.MarginPercent)
}

func TestClassifyRanksDescending(t *testing.T) {
	a := classify(t, nil,
		scoredEntrant(2, 30, 40.0),
		scoredEntrant(1, 30, 52.0),
		scoredEntrant(3, 30, 46.0),
	)

	require.Len(t, a.Ranked, 3)
	assert.Equal(t, 1, a.Ranked[0].Entrant.Box)
	assert.Equal(t, 3, a.Ranked[1].Entrant.Box)
	assert.Equal(t, 2, a.Ranked[2].Entrant.Box)
}

func TestClassifyTiedScoresAreNoBet(t *testing.T) {
	a := classify(t, nil,
		scoredEntrant(1, 30, 45.0),
		scoredEntrant(2, 30, 45.0),
	)

	assert.Equal(t, models.NoBet, a.Tier)
	require.NotNil(t, a.MarginPercent)
	assert.Equal(t, 0.0, *a.MarginPercent)
}

func TestClassifyTierMonotonicInMargin(t *testing.T) {
	// Widening the gap with a fixed top score never weakens the tier.
	top := 52.0
	prev := models.NoBet
	for _, second := range []float64{51, 48, 45, 42, 38, 30} {
		a := classify(t, nil,
			scoredEntrant(1, 30, top),
			scoredEntrant(4, 30, second),
		)
		assert.True(t, a.Tier.AtLeast(prev) || a.Tier == prev,
			"second %.0f gave %s after %s", second, a.Tier, prev)
		prev = a.Tier
	}
	assert.Equal(t, models.Tier0, prev)
}

func TestVolatileVenueNamesNormalized(t *testing.T) {
	c := NewClassifier([]string{"  angle   park "}, quietLogger())
	a := c.Classify(models.RaceKey{Track: "ANGLE PARK", RaceNumber: 1}, []models.ScoredEntrant{
		scoredEntrant(1, 30, 52.0),
		scoredEntrant(4, 30, 40.0),
	})
	assert.Equal(t, models.Tier1, a.Tier)
}
