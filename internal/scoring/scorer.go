package scoring

import (
	"github.com/yourusername/formcast/internal/models"
)

// prizeMoneyScale keeps the raw prize figure comparable to the other
// [0,1]-range features before weighting.
const prizeMoneyScale = 1000.0

// Scorer computes composite scores using an explicit weight registry.
type Scorer struct {
	registry Registry
}

// NewScorer creates a scorer over the given registry.
func NewScorer(registry Registry) *Scorer {
	return &Scorer{registry: registry}
}

// Score computes the composite score for one entrant's feature set at the
// given race distance. The score is purely additive with no cross-entrant
// normalization: relative ranking is meaningful, absolute magnitude is not.
// Missing features contribute zero, so the result is a pure function of the
// feature set and distance.
func (s *Scorer) Score(distance int, fs models.FeatureSet) float64 {
	profile := s.registry[models.CategoryForDistance(distance)]

	total := 0.0
	for feature, weight := range profile {
		value := fs.Get(feature)
		if feature == models.FeaturePrizeMoney {
			value /= prizeMoneyScale
		}
		total += value * weight
	}

	// Penalty terms are additive and unweighted.
	total += fs.Get(models.FeatureOverexposure)
	return total
}

// ScoreRace scores every entrant in a race. Output order follows the input;
// ranking is left to the tier classifier.
func (s *Scorer) ScoreRace(entrants []*models.Entrant, sets []models.FeatureSet) []models.ScoredEntrant {
	scored := make([]models.ScoredEntrant, len(entrants))
	for i, e := range entrants {
		distance := e.Distance
		if distance <= 0 {
			distance = models.DefaultDistanceM
		}
		scored[i] = models.ScoredEntrant{
			Entrant:  e,
			Features: sets[i],
			Score:    s.Score(distance, sets[i]),
		}
	}
	return scored
}
