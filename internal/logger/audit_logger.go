// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for betting decisions.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogTierAssignment logs a rule-based tier assignment for a race.
func (al *AuditLogger) LogTierAssignment(track string, raceNumber int, tier string, topBox int, topScore float64, marginPercent *float64) {
	fields := logrus.Fields{
		"track":       track,
		"race_number": raceNumber,
		"tier":        tier,
		"top_box":     topBox,
		"top_score":   topScore,
	}
	if marginPercent != nil {
		fields["margin_percent"] = *marginPercent
	}
	al.WithFields(fields).Info("Tier assignment recorded")
}

// LogHybridDecision logs a reconciled hybrid decision.
func (al *AuditLogger) LogHybridDecision(track string, raceNumber int, recommendedBox int, reason string, marginPercent float64, mlConfidence *float64, timestamp time.Time) {
	fields := logrus.Fields{
		"track":           track,
		"race_number":     raceNumber,
		"recommended_box": recommendedBox,
		"reason":          reason,
		"margin_percent":  marginPercent,
		"timestamp":       timestamp.Unix(),
	}
	if mlConfidence != nil {
		fields["ml_confidence"] = *mlConfidence
	}
	al.WithFields(fields).Info("Hybrid decision recorded")
}

// LogThresholdChange logs hybrid threshold changes.
func (al *AuditLogger) LogThresholdChange(thresholdName string, oldValue, newValue float64, changedBy string) {
	al.WithFields(logrus.Fields{
		"threshold_name": thresholdName,
		"old_value":      oldValue,
		"new_value":      newValue,
		"changed_by":     changedBy,
	}).Info("Hybrid threshold changed")
}

// LogResultSettlement logs an ingested race result against a prior decision.
func (al *AuditLogger) LogResultSettlement(track string, raceNumber int, winningBox int, recommendedBox int, recommended bool) {
	al.WithFields(logrus.Fields{
		"track":           track,
		"race_number":     raceNumber,
		"winning_box":     winningBox,
		"recommended_box": recommendedBox,
		"recommended":     recommended,
		"hit":             recommended && winningBox == recommendedBox,
	}).Info("Race result settled")
}
