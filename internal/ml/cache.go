// Package ml provides caching for race predictions.
package ml

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
)

// CacheKey identifies one race's prediction.
type CacheKey struct {
	Track      string
	RaceNumber int
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%d", k.Track, k.RaceNumber)
}

// PredictionCache provides in-memory caching for per-race confidences.
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves cached confidences for a race, nil on miss.
func (pc *PredictionCache) Get(key models.RaceKey) map[int]float64 {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if result, found := pc.cache.Get(cacheKeyFor(key).String()); found {
		pc.hitCount++
		pc.updateMetrics()
		if conf, ok := result.(map[int]float64); ok {
			return conf
		}
	}

	pc.missCount++
	pc.updateMetrics()
	return nil
}

// Set stores confidences for a race.
func (pc *PredictionCache) Set(key models.RaceKey, confidences map[int]float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
	}
	pc.cache.Set(cacheKeyFor(key).String(), confidences, pc.ttl)
}

// Stats returns hit and miss counts along with the hit ratio.
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	total := pc.hitCount + pc.missCount
	if total > 0 {
		ratio = float64(pc.hitCount) / float64(total)
	}
	return pc.hitCount, pc.missCount, ratio
}

// Flush removes every cached prediction.
func (pc *PredictionCache) Flush() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache.Flush()
}

func (pc *PredictionCache) updateMetrics() {
	total := pc.hitCount + pc.missCount
	if total > 0 {
		metrics.PredictionCacheHitRatio.Set(float64(pc.hitCount) / float64(total))
	}
}

func cacheKeyFor(key models.RaceKey) CacheKey {
	return CacheKey{Track: key.Track, RaceNumber: key.RaceNumber}
}
