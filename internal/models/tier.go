package models

// Tier is the discrete confidence classification assigned to a race once all
// of its entrants have composite scores.
type Tier string

const (
	Tier0 Tier = "TIER0"
	Tier1 Tier = "TIER1"
	Tier2 Tier = "TIER2"
	Tier3 Tier = "TIER3"
	NoBet Tier = "NO_BET"
)

// Betable reports whether the tier carries a recommendation at all.
func (t Tier) Betable() bool {
	return t != NoBet && t != ""
}

// rank orders tiers from strongest to weakest for monotonicity comparisons.
func (t Tier) rank() int {
	switch t {
	case Tier0:
		return 0
	case Tier1:
		return 1
	case Tier2:
		return 2
	case Tier3:
		return 3
	default:
		return 4
	}
}

// AtLeast reports whether t is the same tier as other or stronger.
func (t Tier) AtLeast(other Tier) bool {
	return t.rank() <= other.rank()
}

// ScoredEntrant pairs an entrant with its composite score and feature set.
type ScoredEntrant struct {
	Entrant  *Entrant
	Features FeatureSet
	Score    float64
}

// RaceAssessment is the tier classifier's output for one race.
type RaceAssessment struct {
	Key            RaceKey
	Tier           Tier
	TopBox         int // 0 when no entrant could be ranked
	TopScore       float64
	MarginPercent  *float64 // nil when fewer than 2 scored entrants
	MarginAbsolute *float64
	Ranked         []ScoredEntrant // descending by score
}

// Margin returns the percentage margin or 0 when it could not be computed.
func (a *RaceAssessment) Margin() float64 {
	if a.MarginPercent == nil {
		return 0
	}
	return *a.MarginPercent
}

// HybridDecision reconciles a rule-based assessment with an external
// confidence signal. Recomputed per request, never cached across races.
type HybridDecision struct {
	Key            RaceKey
	RecommendedBox int // 0 means no recommendation
	Tier           Tier
	MarginPercent  float64
	MLConfidence   *float64 // nil when the predictor was unavailable
	Reason         string
}

// Recommended reports whether the decision carries a pick.
func (d *HybridDecision) Recommended() bool {
	return d.RecommendedBox > 0
}
