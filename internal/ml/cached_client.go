// Package ml provides the cached predictor wrapper.
package ml

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/config"
	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
)

// CachedClient wraps a Predictor with per-race confidence caching. Cached
// entries are keyed by normalized (track, race number), so the same race seen
// from two documents is predicted once.
type CachedClient struct {
	client Predictor
	cache  *PredictionCache
	logger *logrus.Logger
}

// NewCachedClient creates a cached predictor over the HTTP client.
func NewCachedClient(cfg *config.PredictorConfig, logger *logrus.Logger) *CachedClient {
	return &CachedClient{
		client: NewClient(cfg, logger),
		cache: NewPredictionCache(
			time.Duration(cfg.CacheTTLSeconds)*time.Second,
			cfg.CacheMaxSize,
		),
		logger: logger,
	}
}

// WrapPredictor wraps an existing predictor, used by tests to cache a stub.
func WrapPredictor(p Predictor, ttl time.Duration, maxSize int, logger *logrus.Logger) *CachedClient {
	return &CachedClient{
		client: p,
		cache:  NewPredictionCache(ttl, maxSize),
		logger: logger,
	}
}

// PredictRace retrieves per-box confidences with caching.
func (c *CachedClient) PredictRace(ctx context.Context, race *models.Race, entrants []*models.Entrant) (map[int]float64, error) {
	key := race.Key()

	if cached := c.cache.Get(key); cached != nil {
		c.logger.WithField("race", key.String()).Debug("Cache hit for race prediction")
		metrics.PredictionsTotal.WithLabelValues("cache", "true").Inc()
		return cached, nil
	}

	confidences, err := c.client.PredictRace(ctx, race, entrants)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, confidences)
	return confidences, nil
}

// HealthCheck delegates to the underlying client.
func (c *CachedClient) HealthCheck(ctx context.Context) error {
	return c.client.HealthCheck(ctx)
}

// GetCacheStats returns prediction cache hit and miss counts and hit ratio.
func (c *CachedClient) GetCacheStats() (hits, misses uint64, ratio float64) {
	return c.cache.Stats()
}

// FlushCache drops every cached prediction.
func (c *CachedClient) FlushCache() {
	c.cache.Flush()
}
