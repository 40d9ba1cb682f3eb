// Package logger provides ML-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// MLLogger provides dedicated logging for ML predictor operations.
type MLLogger struct {
	*logrus.Entry
}

// NewMLLogger creates a new ML logger.
func NewMLLogger(baseLogger *logrus.Logger) *MLLogger {
	return &MLLogger{
		Entry: baseLogger.WithField("component", "ml"),
	}
}

// LogPredictionRequest logs an ML prediction request.
func (ml *MLLogger) LogPredictionRequest(track string, raceNumber int, entrantCount int, cacheHit bool, latencyMs float64) {
	ml.WithFields(logrus.Fields{
		"track":         track,
		"race_number":   raceNumber,
		"entrant_count": entrantCount,
		"cache_hit":     cacheHit,
		"latency_ms":    latencyMs,
	}).Info("ML prediction request completed")
}

// LogPredictionError logs ML prediction errors.
func (ml *MLLogger) LogPredictionError(track string, raceNumber int, errorReason string) {
	ml.WithFields(logrus.Fields{
		"track":        track,
		"race_number":  raceNumber,
		"error_reason": errorReason,
	}).Error("ML prediction failed")
}

// LogPredictorUnavailable logs a predictor outage with the fallback applied.
func (ml *MLLogger) LogPredictorUnavailable(errorReason string, fallback string) {
	ml.WithFields(logrus.Fields{
		"error_reason": errorReason,
		"fallback":     fallback,
	}).Warn("ML predictor unavailable")
}

// LogModelVersion logs the model version reported by the predictor.
func (ml *MLLogger) LogModelVersion(modelVersion string) {
	ml.WithField("model_version", modelVersion).Info("ML predictor model version")
}
