// Package boxbias derives per-box draw bias factors from settled results.
package boxbias

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/repository"
)

const (
	// baselineFactor anchors the factor scale so an unbiased box scores the
	// same as the no-data fallback.
	baselineFactor = 0.1

	// minSampleRaces is the minimum settled races at a track before its
	// stats are trusted over the fallback.
	minSampleRaces = 40

	maxFactor = 0.25

	defaultRefreshInterval = 30 * time.Minute
)

// Calculator computes draw bias factors from aggregated box win rates. It
// caches per-track stats and refreshes them lazily.
type Calculator struct {
	results repository.ResultRepository
	logger  *logrus.Logger

	mu        sync.RWMutex
	cache     map[string]trackStats
	refreshed map[string]time.Time
	interval  time.Duration
}

type trackStats struct {
	factors map[int]float64
	runs    int
}

// New creates a new box bias calculator
func New(results repository.ResultRepository, logger *logrus.Logger) *Calculator {
	return &Calculator{
		results:   results,
		logger:    logger,
		cache:     make(map[string]trackStats),
		refreshed: make(map[string]time.Time),
		interval:  defaultRefreshInterval,
	}
}

// BiasFor returns the draw bias factor for a box at a track. The second
// return is false when the track's sample is too small or stats could not be
// loaded, in which case the caller applies its fallback.
func (c *Calculator) BiasFor(track string, box int) (float64, bool) {
	key := models.NormalizeVenue(track)

	c.mu.RLock()
	stats, ok := c.cache[key]
	fresh := ok && time.Since(c.refreshed[key]) < c.interval
	c.mu.RUnlock()

	if !fresh {
		var err error
		stats, err = c.refresh(key)
		if err != nil {
			if c.logger != nil {
				c.logger.WithError(err).WithField("track", key).Warn("Box bias stats unavailable")
			}
			return 0, false
		}
	}

	if stats.runs < minSampleRaces {
		return 0, false
	}

	factor, ok := stats.factors[box]
	if !ok {
		return 0, false
	}
	return factor, true
}

// refresh reloads stats for a track from the result store
func (c *Calculator) refresh(track string) (trackStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	boxStats, err := c.results.BoxWinStats(ctx, track)
	if err != nil {
		return trackStats{}, err
	}

	stats := computeFactors(boxStats)

	c.mu.Lock()
	c.cache[track] = stats
	c.refreshed[track] = time.Now()
	c.mu.Unlock()

	return stats, nil
}

// computeFactors centers each box's win rate on the track mean and anchors
// the result at the baseline, so favored boxes score above 0.1 and dead
// boxes below it.
func computeFactors(boxStats []repository.BoxStat) trackStats {
	if len(boxStats) == 0 {
		return trackStats{}
	}

	var sum float64
	runs := 0
	for _, s := range boxStats {
		sum += s.WinRate()
		runs = s.Runs
	}
	mean := sum / float64(len(boxStats))

	factors := make(map[int]float64, len(boxStats))
	for _, s := range boxStats {
		factor := baselineFactor + (s.WinRate() - mean)
		if factor < 0 {
			factor = 0
		}
		if factor > maxFactor {
			factor = maxFactor
		}
		factors[s.Box] = factor
	}

	return trackStats{factors: factors, runs: runs}
}
