package models

// Feature names a derived per-entrant predictive signal.
type Feature string

const (
	FeatureSpeed             Feature = "speed_kmh"
	FeatureEarlySpeed        Feature = "early_speed_index"
	FeatureFinishConsistency Feature = "finish_consistency"
	FeatureMarginAverage     Feature = "margin_average"
	FeatureFormMomentum      Feature = "form_momentum"
	FeatureConsistencyIndex  Feature = "consistency_index"
	FeatureRecentFormBoost   Feature = "recent_form_boost"
	FeatureDistanceSuits     Feature = "distance_suitability"
	FeaturePrizeMoney        Feature = "prize_money"
	FeatureBoxBias           Feature = "box_bias_factor"
	FeatureTrackCondition    Feature = "track_condition_adj"
	FeatureTrainerStrike     Feature = "trainer_strike_rate"
	FeatureRestFactor        Feature = "rest_factor"
	FeatureOverexposure      Feature = "overexposure_penalty"
)

// AllFeatures lists every declared feature. A derived set always contains an
// entry for each of these.
var AllFeatures = []Feature{
	FeatureSpeed,
	FeatureEarlySpeed,
	FeatureFinishConsistency,
	FeatureMarginAverage,
	FeatureFormMomentum,
	FeatureConsistencyIndex,
	FeatureRecentFormBoost,
	FeatureDistanceSuits,
	FeaturePrizeMoney,
	FeatureBoxBias,
	FeatureTrackCondition,
	FeatureTrainerStrike,
	FeatureRestFactor,
	FeatureOverexposure,
}

// FeatureSource records where a feature value came from, so a fallback
// substitution is an inspectable fact rather than an invisible default.
type FeatureSource string

const (
	SourceMeasured FeatureSource = "measured"
	SourceFallback FeatureSource = "fallback"
	SourceMissing  FeatureSource = "missing"
)

// FeatureValue is one derived value plus its provenance. A missing raw input
// yields Source == SourceMissing with a zero value rather than an absent key.
type FeatureValue struct {
	Value  float64       `json:"value"`
	Source FeatureSource `json:"source"`
}

// FeatureSet is the complete derived feature mapping for one entrant.
type FeatureSet map[Feature]FeatureValue

// Get returns the value for a feature, 0 if the feature is missing from the
// set (which the deriver never produces).
func (fs FeatureSet) Get(f Feature) float64 {
	return fs[f].Value
}

// Measured reports whether the feature was derived from real input rather
// than a fallback or missing marker.
func (fs FeatureSet) Measured(f Feature) bool {
	return fs[f].Source == SourceMeasured
}

// FallbackCount returns how many features in the set resolved to fallback
// constants or missing markers.
func (fs FeatureSet) FallbackCount() int {
	n := 0
	for _, v := range fs {
		if v.Source != SourceMeasured {
			n++
		}
	}
	return n
}
