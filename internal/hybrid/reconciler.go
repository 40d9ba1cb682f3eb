// Package hybrid reconciles rule-based tier assessments with an external ML
// confidence signal under an agreement-gated decision rule.
package hybrid

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/models"
)

// Disagreement reasons reported when only one signal clears its threshold.
const (
	ReasonAgreed             = "rule margin and ML confidence agree"
	ReasonMLInsufficient     = "ML confidence insufficient"
	ReasonMarginInsufficient = "rule margin insufficient"
	ReasonBothInsufficient   = "neither signal clears its threshold"
	ReasonNoTopPick          = "no ranked top pick"
	ReasonMLUnavailable      = "ML confidence unavailable, rule-only decision"
)

// Thresholds configure the agreement gate. Both conditions must hold for a
// recommendation; there is no partial-credit weighting between the signals.
type Thresholds struct {
	MarginPercent float64
	MLConfidence  float64
}

// DefaultThresholds mirrors the tuned hybrid gate: an 18% rule margin and 70%
// model confidence.
func DefaultThresholds() Thresholds {
	return Thresholds{MarginPercent: 18.0, MLConfidence: 70.0}
}

// Reconciler merges assessments with external confidence values.
type Reconciler struct {
	thresholds Thresholds
	logger     *logrus.Logger
}

// NewReconciler creates a reconciler with the given thresholds.
func NewReconciler(thresholds Thresholds, logger *logrus.Logger) *Reconciler {
	return &Reconciler{thresholds: thresholds, logger: logger}
}

// Reconcile produces the hybrid decision for one race. confidence is the
// external model's confidence in [0,100] for the top-ranked entrant; pass nil
// when the predictor was unavailable, in which case the decision degrades to
// the rule-only margin gate instead of failing.
func (r *Reconciler) Reconcile(assessment *models.RaceAssessment, confidence *float64) *models.HybridDecision {
	decision := &models.HybridDecision{
		Key:           assessment.Key,
		Tier:          assessment.Tier,
		MarginPercent: assessment.Margin(),
		MLConfidence:  confidence,
	}

	if assessment.TopBox == 0 && len(assessment.Ranked) == 0 {
		decision.Reason = ReasonNoTopPick
		return decision
	}
	topBox := assessment.TopBox
	if topBox == 0 && len(assessment.Ranked) > 0 {
		topBox = assessment.Ranked[0].Entrant.Box
	}

	marginOK := decision.MarginPercent >= r.thresholds.MarginPercent

	if confidence == nil {
		// Collaborator failure: rule-only fallback, never a batch crash.
		if marginOK {
			decision.RecommendedBox = topBox
		}
		decision.Reason = ReasonMLUnavailable
		r.logger.WithField("race", assessment.Key.String()).Warn(ReasonMLUnavailable)
		return decision
	}

	confidenceOK := *confidence >= r.thresholds.MLConfidence

	switch {
	case marginOK && confidenceOK:
		decision.RecommendedBox = topBox
		decision.Reason = ReasonAgreed
	case marginOK && !confidenceOK:
		decision.Reason = fmt.Sprintf("%s (%.1f < %.1f)", ReasonMLInsufficient, *confidence, r.thresholds.MLConfidence)
	case !marginOK && confidenceOK:
		decision.Reason = fmt.Sprintf("%s (%.1f%% < %.1f%%)", ReasonMarginInsufficient, decision.MarginPercent, r.thresholds.MarginPercent)
	default:
		decision.Reason = ReasonBothInsufficient
	}

	r.logger.WithFields(logrus.Fields{
		"race":        assessment.Key.String(),
		"recommended": decision.RecommendedBox,
		"reason":      decision.Reason,
	}).Debug("Reconciled hybrid decision")

	return decision
}
