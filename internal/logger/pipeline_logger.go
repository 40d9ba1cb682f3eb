// Package logger provides pipeline-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for document analysis runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogDocumentParsed logs a completed document parse.
func (pl *PipelineLogger) LogDocumentParsed(documentName string, racesParsed, entrantsParsed int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"document":          documentName,
		"races_parsed":      racesParsed,
		"entrants_parsed":   entrantsParsed,
		"parse_duration_ms": durationMs,
	}).Info("Document parse completed")
}

// LogDocumentFailed logs a document that could not be analysed.
func (pl *PipelineLogger) LogDocumentFailed(documentName string, errorReason string) {
	pl.WithFields(logrus.Fields{
		"document":     documentName,
		"error_reason": errorReason,
	}).Error("Document analysis failed")
}

// LogBatchCompleted logs the outcome of a batch analysis run.
func (pl *PipelineLogger) LogBatchCompleted(documentsProcessed, documentsFailed, racesAssessed, recommendations int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"documents_processed": documentsProcessed,
		"documents_failed":    documentsFailed,
		"races_assessed":      racesAssessed,
		"recommendations":     recommendations,
		"batch_duration_ms":   durationMs,
	}).Info("Batch analysis completed")
}

// LogFallbackApplied logs a feature fallback substitution at debug level.
func (pl *PipelineLogger) LogFallbackApplied(entrantName string, feature string, value float64) {
	pl.WithFields(logrus.Fields{
		"entrant": entrantName,
		"feature": feature,
		"value":   value,
	}).Debug("Feature fallback applied")
}
