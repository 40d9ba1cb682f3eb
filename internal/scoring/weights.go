// Package scoring computes distance-conditioned composite scores from derived
// feature sets.
package scoring

import (
	"fmt"

	"github.com/yourusername/formcast/internal/models"
)

// WeightProfile maps weighted features to their coefficients for one distance
// category. The ten weighted terms sum to 1.0; the overexposure penalty is
// additive and unweighted.
type WeightProfile map[models.Feature]float64

// weightedFeatures are the terms each profile must cover. Finish consistency,
// margin average and rest factor are derived for reporting but carry no
// weight, matching the tuned score definition.
var weightedFeatures = []models.Feature{
	models.FeatureEarlySpeed,
	models.FeatureSpeed,
	models.FeatureFormMomentum,
	models.FeatureConsistencyIndex,
	models.FeaturePrizeMoney,
	models.FeatureRecentFormBoost,
	models.FeatureBoxBias,
	models.FeatureTrainerStrike,
	models.FeatureDistanceSuits,
	models.FeatureTrackCondition,
}

// Registry holds one profile per distance category. A single registry is
// passed into the scorer so weight tables cannot drift between modules.
type Registry map[models.DistanceCategory]WeightProfile

// DefaultRegistry returns the tuned weight profiles. Early speed matters most
// over sprints; raw speed takes over as races lengthen.
func DefaultRegistry() Registry {
	return Registry{
		models.Sprint: {
			models.FeatureEarlySpeed:       0.30,
			models.FeatureSpeed:            0.20,
			models.FeatureFormMomentum:     0.08,
			models.FeatureConsistencyIndex: 0.13,
			models.FeaturePrizeMoney:       0.08,
			models.FeatureRecentFormBoost:  0.08,
			models.FeatureBoxBias:          0.05,
			models.FeatureTrainerStrike:    0.03,
			models.FeatureDistanceSuits:    0.02,
			models.FeatureTrackCondition:   0.03,
		},
		models.Middle: {
			models.FeatureEarlySpeed:       0.25,
			models.FeatureSpeed:            0.20,
			models.FeatureFormMomentum:     0.10,
			models.FeatureConsistencyIndex: 0.15,
			models.FeaturePrizeMoney:       0.10,
			models.FeatureRecentFormBoost:  0.10,
			models.FeatureBoxBias:          0.04,
			models.FeatureTrainerStrike:    0.02,
			models.FeatureDistanceSuits:    0.02,
			models.FeatureTrackCondition:   0.02,
		},
		models.Long: {
			models.FeatureEarlySpeed:       0.20,
			models.FeatureSpeed:            0.25,
			models.FeatureFormMomentum:     0.10,
			models.FeatureConsistencyIndex: 0.15,
			models.FeaturePrizeMoney:       0.10,
			models.FeatureRecentFormBoost:  0.08,
			models.FeatureBoxBias:          0.04,
			models.FeatureTrainerStrike:    0.03,
			models.FeatureDistanceSuits:    0.03,
			models.FeatureTrackCondition:   0.02,
		},
	}
}

// Validate checks that every category has a profile, every profile covers all
// weighted features, and each profile's weights sum to 1.0.
func (r Registry) Validate() error {
	const epsilon = 1e-9
	for _, cat := range []models.DistanceCategory{models.Sprint, models.Middle, models.Long} {
		profile, ok := r[cat]
		if !ok {
			return fmt.Errorf("missing weight profile for category %s", cat)
		}
		sum := 0.0
		for _, f := range weightedFeatures {
			w, ok := profile[f]
			if !ok {
				return fmt.Errorf("profile %s missing weight for %s", cat, f)
			}
			if w < 0 || w > 1 {
				return fmt.Errorf("profile %s weight for %s out of [0,1]: %f", cat, f, w)
			}
			sum += w
		}
		if diff := sum - 1.0; diff > epsilon || diff < -epsilon {
			return fmt.Errorf("profile %s weights sum to %f, want 1.0", cat, sum)
		}
	}
	return nil
}
