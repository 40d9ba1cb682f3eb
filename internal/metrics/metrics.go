// Package metrics provides the centralized Prometheus metrics registry for
// the form analysis pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	DocumentsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "documents_processed_total",
		Help:      "Total number of form documents processed, by outcome",
	}, []string{"outcome"})
	RacesParsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "races_parsed_total",
		Help:      "Total number of races recovered from documents",
	})
	EntrantsParsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "entrants_parsed_total",
		Help:      "Total number of entrant records recovered from documents",
	})
	FallbackSubstitutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "fallback_substitutions_total",
		Help:      "Total number of missing-field fallback substitutions, by feature",
	}, []string{"feature"})
	TierAssignmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "tier_assignments_total",
		Help:      "Total number of race tier assignments, by tier",
	}, []string{"tier"})
	HybridRecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "hybrid_recommendations_total",
		Help:      "Total number of hybrid decisions, by whether a pick was made",
	}, []string{"recommended"})
	PredictorErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "predictor_errors_total",
		Help:      "Total number of ML predictor call failures, by kind",
	}, []string{"kind"})
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "predictions_total",
		Help:      "Total number of ML predictions served, by source and cache state",
	}, []string{"source", "cached"})
	ResultsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "formcast",
		Name:      "results_ingested_total",
		Help:      "Total number of settled race results ingested",
	})
)

// Gauge metrics
var (
	PredictionCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "formcast",
		Name:      "prediction_cache_hit_ratio",
		Help:      "Hit ratio of the ML prediction cache",
	})
	LastBatchRaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "formcast",
		Name:      "last_batch_races",
		Help:      "Number of races assessed in the most recent batch run",
	})
)

// Histogram metrics
var (
	DocumentParseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "formcast",
		Name:      "document_parse_duration_seconds",
		Help:      "Duration of single-document parse and score runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	PredictionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "formcast",
		Name:      "prediction_latency_seconds",
		Help:      "Latency of ML predictor calls in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"transport"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(DocumentsProcessedTotal)
		registry.MustRegister(RacesParsedTotal)
		registry.MustRegister(EntrantsParsedTotal)
		registry.MustRegister(FallbackSubstitutionsTotal)
		registry.MustRegister(TierAssignmentsTotal)
		registry.MustRegister(HybridRecommendationsTotal)
		registry.MustRegister(PredictorErrorsTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(ResultsIngestedTotal)

		registry.MustRegister(PredictionCacheHitRatio)
		registry.MustRegister(LastBatchRaces)

		registry.MustRegister(DocumentParseDuration)
		registry.MustRegister(PredictionLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
