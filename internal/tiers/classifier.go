// Package tiers classifies races into discrete confidence tiers from the
// composite scores of their entrants.
package tiers

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
)

// tierRule is one row of the threshold table, evaluated in strict
// descending-requirement order; the first matching row wins.
type tierRule struct {
	tier          models.Tier
	minTopScore   float64
	minMarginPct  float64
	minMarginAbs  float64
	requiresGates bool // TIER0 box/starts/venue gates
}

var tierTable = []tierRule{
	{tier: models.Tier0, minTopScore: 50.0, minMarginPct: 18.0, minMarginAbs: 8.0, requiresGates: true},
	{tier: models.Tier1, minTopScore: 45.0, minMarginPct: 12.0, minMarginAbs: 5.0},
	{tier: models.Tier2, minTopScore: 42.0, minMarginPct: 10.0, minMarginAbs: 4.0},
	{tier: models.Tier3, minTopScore: 35.0, minMarginPct: 7.0, minMarginAbs: 3.0},
}

// Boxes with a favorable rail draw; part of the TIER0 gate. The informative
// box weighting itself is folded into BoxBiasFactor upstream, not re-scored
// here.
var favorableBoxes = map[int]bool{1: true, 2: true, 8: true}

// Minimum career starts for a TIER0 top pick.
const tier0MinStarts = 25

// Classifier assigns confidence tiers using the threshold table plus a
// configured set of high-volatility venues that are barred from TIER0.
type Classifier struct {
	volatileVenues map[string]bool
	logger         *logrus.Logger
}

// NewClassifier creates a classifier. volatileVenues is the externally
// maintained list of high-upset tracks; names are normalized before lookup.
func NewClassifier(volatileVenues []string, logger *logrus.Logger) *Classifier {
	set := make(map[string]bool, len(volatileVenues))
	for _, v := range volatileVenues {
		set[models.NormalizeVenue(v)] = true
	}
	return &Classifier{volatileVenues: set, logger: logger}
}

// Classify sorts the scored entrants and assigns one tier for the race. A
// race with fewer than 2 scored entrants cannot produce a margin and is
// NO_BET with nil margin fields.
func (c *Classifier) Classify(key models.RaceKey, scored []models.ScoredEntrant) *models.RaceAssessment {
	ranked := make([]models.ScoredEntrant, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	assessment := &models.RaceAssessment{Key: key, Tier: models.NoBet, Ranked: ranked}
	if len(ranked) > 0 {
		assessment.TopBox = ranked[0].Entrant.Box
		assessment.TopScore = ranked[0].Score
	}
	if len(ranked) < 2 {
		assessment.TopBox = 0
		c.logger.WithField("race", key.String()).Debug("Fewer than 2 scored entrants, NO_BET")
		metrics.TierAssignmentsTotal.WithLabelValues(string(models.NoBet)).Inc()
		return assessment
	}

	top, second := ranked[0].Score, ranked[1].Score
	marginAbs := top - second
	marginPct := 0.0
	if top > 0 {
		marginPct = marginAbs / top * 100
	}
	assessment.MarginAbsolute = &marginAbs
	assessment.MarginPercent = &marginPct

	for _, rule := range tierTable {
		if top < rule.minTopScore || marginPct < rule.minMarginPct || marginAbs < rule.minMarginAbs {
			continue
		}
		if rule.requiresGates && !c.passesTier0Gates(key, ranked[0]) {
			continue
		}
		assessment.Tier = rule.tier
		break
	}
	if !assessment.Tier.Betable() {
		assessment.TopBox = 0
	}

	c.logger.WithFields(logrus.Fields{
		"race":       key.String(),
		"tier":       assessment.Tier,
		"top_score":  top,
		"margin_pct": marginPct,
	}).Debug("Classified race")
	metrics.TierAssignmentsTotal.WithLabelValues(string(assessment.Tier)).Inc()

	return assessment
}

// passesTier0Gates applies the categorical TIER0 gates: favorable box, an
// experienced top pick, and a venue outside the high-volatility set.
func (c *Classifier) passesTier0Gates(key models.RaceKey, top models.ScoredEntrant) bool {
	if !favorableBoxes[top.Entrant.Box] {
		return false
	}
	if top.Entrant.CareerStarts < tier0MinStarts {
		return false
	}
	if c.volatileVenues[key.Track] {
		return false
	}
	return true
}
