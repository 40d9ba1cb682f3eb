// Package features derives the fixed per-entrant predictive feature set from
// parsed records, substituting documented fallback constants when raw inputs
// are absent.
package features

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
)

// Fallback constants applied when no richer source is wired in.
const (
	FallbackBoxBias        = 0.1
	FallbackTrackCondition = 1.0
	FallbackTrainerStrike  = 0.15
	FallbackRestFactor     = 0.8
)

// Distances with a known suitability edge; everything else gets the neutral
// 0.7. The set is a tuned constant, not a curve.
var suitedDistances = map[int]bool{515: true, 595: true}

// BoxBiasSource supplies a per-(track, box) bias delta derived from
// historical results. A nil lookup result falls back to the constant.
type BoxBiasSource interface {
	BiasFor(track string, box int) (float64, bool)
}

// Deriver computes complete feature sets for entrants.
type Deriver struct {
	boxBias BoxBiasSource // optional
	logger  *logrus.Logger
}

// NewDeriver creates a feature deriver. boxBias may be nil, in which case the
// constant fallback is used for every entrant.
func NewDeriver(boxBias BoxBiasSource, logger *logrus.Logger) *Deriver {
	return &Deriver{boxBias: boxBias, logger: logger}
}

// DeriveRace derives feature sets for every entrant in a race. It returns
// models.ErrNoDistance when no entrant's distance resolves to a positive
// value, since no weight profile can be selected for the race; a missing
// distance on an individual entrant is substituted with DefaultDistanceM and
// logged, never aborting the remaining entrants.
func (d *Deriver) DeriveRace(entrants []*models.Entrant) ([]models.FeatureSet, error) {
	anyDistance := false
	for _, e := range entrants {
		if e.Distance > 0 {
			anyDistance = true
			break
		}
	}
	if len(entrants) > 0 && !anyDistance {
		return nil, fmt.Errorf("%w: %d entrants", models.ErrNoDistance, len(entrants))
	}

	sets := make([]models.FeatureSet, len(entrants))
	for i, e := range entrants {
		sets[i] = d.Derive(e)
	}
	return sets, nil
}

// Derive computes the full feature set for one entrant. Every declared
// feature is present afterwards; absent raw inputs resolve to explicit
// fallback or missing markers.
func (d *Deriver) Derive(e *models.Entrant) models.FeatureSet {
	fs := make(models.FeatureSet, len(models.AllFeatures))

	distance := e.Distance
	if distance <= 0 {
		distance = models.DefaultDistanceM
		d.logger.WithFields(logrus.Fields{
			"entrant": e.Name,
			"box":     e.Box,
			"track":   e.Track,
		}).Warnf("Distance unresolvable, substituting %dm", models.DefaultDistanceM)
		metrics.FallbackSubstitutionsTotal.WithLabelValues("distance").Inc()
	}

	// Speed (km/h) from best time over today's distance.
	if e.BestTimeSec != nil && *e.BestTimeSec > 0 {
		fs[models.FeatureSpeed] = measured(float64(distance) / *e.BestTimeSec * 3.6)
	} else {
		fs[models.FeatureSpeed] = missing(models.FeatureSpeed)
	}

	// Early speed from the first sectional.
	if e.SectionalSec != nil && *e.SectionalSec > 0 {
		fs[models.FeatureEarlySpeed] = measured(float64(distance) / *e.SectionalSec)
	} else {
		fs[models.FeatureEarlySpeed] = missing(models.FeatureEarlySpeed)
	}

	// Population std dev of the last three finishing times; 0 with <2 values.
	if len(e.LastThreeSec) >= 2 {
		fs[models.FeatureFinishConsistency] = measured(popStdDev(e.LastThreeSec))
	} else {
		fs[models.FeatureFinishConsistency] = measured(0)
	}

	if len(e.Margins) > 0 {
		fs[models.FeatureMarginAverage] = measured(mean(e.Margins))
	} else {
		fs[models.FeatureMarginAverage] = measured(0)
	}

	// Mean of consecutive margin differences; 0 with <2 values.
	if len(e.Margins) >= 2 {
		fs[models.FeatureFormMomentum] = measured(meanDiff(e.Margins))
	} else {
		fs[models.FeatureFormMomentum] = measured(0)
	}

	fs[models.FeatureConsistencyIndex] = measured(e.WinRate())
	fs[models.FeatureRecentFormBoost] = measured(recentFormBoost(e))

	if suitedDistances[distance] {
		fs[models.FeatureDistanceSuits] = measured(1.0)
	} else {
		fs[models.FeatureDistanceSuits] = measured(0.7)
	}

	fs[models.FeaturePrizeMoney] = measured(e.GetPrizeMoney())

	if e.CareerStarts > 80 {
		fs[models.FeatureOverexposure] = measured(-0.1)
	} else {
		fs[models.FeatureOverexposure] = measured(0)
	}

	fs[models.FeatureBoxBias] = d.boxBiasValue(e)
	fs[models.FeatureTrackCondition] = fallback(models.FeatureTrackCondition, FallbackTrackCondition)

	if e.TrainerStrike != nil {
		fs[models.FeatureTrainerStrike] = measured(*e.TrainerStrike)
	} else {
		fs[models.FeatureTrainerStrike] = fallback(models.FeatureTrainerStrike, FallbackTrainerStrike)
	}

	fs[models.FeatureRestFactor] = fallback(models.FeatureRestFactor, FallbackRestFactor)

	return fs
}

func (d *Deriver) boxBiasValue(e *models.Entrant) models.FeatureValue {
	if d.boxBias != nil {
		if bias, ok := d.boxBias.BiasFor(e.Track, e.Box); ok {
			return measured(bias)
		}
	}
	return fallback(models.FeatureBoxBias, FallbackBoxBias)
}

// recentFormBoost rewards entrants that ran recently: a full boost inside 5
// days for a previous winner, half inside 10 days, nothing otherwise.
func recentFormBoost(e *models.Entrant) float64 {
	dlr := e.GetDaysSinceLastRun()
	switch {
	case dlr <= 5 && e.CareerWins > 0:
		return 1.0
	case dlr <= 10:
		return 0.5
	default:
		return 0
	}
}

func measured(v float64) models.FeatureValue {
	return models.FeatureValue{Value: v, Source: models.SourceMeasured}
}

func fallback(f models.Feature, v float64) models.FeatureValue {
	metrics.FallbackSubstitutionsTotal.WithLabelValues(string(f)).Inc()
	return models.FeatureValue{Value: v, Source: models.SourceFallback}
}

func missing(f models.Feature) models.FeatureValue {
	metrics.FallbackSubstitutionsTotal.WithLabelValues(string(f)).Inc()
	return models.FeatureValue{Value: 0, Source: models.SourceMissing}
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func meanDiff(xs []float64) float64 {
	diffs := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		diffs = append(diffs, xs[i]-xs[i-1])
	}
	return mean(diffs)
}

func popStdDev(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)))
}
