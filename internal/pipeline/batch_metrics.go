package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// BatchMetrics tracks statistics about a batch analysis run
type BatchMetrics struct {
	mu              sync.RWMutex
	StartTime       time.Time
	Duration        time.Duration
	TotalDocuments  int
	SuccessfulDocs  int
	FailedDocs      int
	RacesAssessed   int
	RacesSkipped    int
	KeyCollisions   int
	Recommendations int
}

// NewBatchMetrics creates a new metrics tracker
func NewBatchMetrics() *BatchMetrics {
	return &BatchMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *BatchMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.TotalDocuments = 0
	m.SuccessfulDocs = 0
	m.FailedDocs = 0
	m.RacesAssessed = 0
	m.RacesSkipped = 0
	m.KeyCollisions = 0
	m.Recommendations = 0
}

// RecordDocument increments the document counters
func (m *BatchMetrics) RecordDocument(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if failed {
		m.FailedDocs++
	} else {
		m.SuccessfulDocs++
	}
}

// RecordRace increments assessed race count
func (m *BatchMetrics) RecordRace(recommended bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RacesAssessed++
	if recommended {
		m.Recommendations++
	}
}

// RecordSkipped increments the skipped race count
func (m *BatchMetrics) RecordSkipped(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RacesSkipped += n
}

// RecordCollision increments the race key collision count
func (m *BatchMetrics) RecordCollision() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeyCollisions++
}

// String returns a formatted string representation of metrics
func (m *BatchMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.TotalDocuments > 0 {
		successRate = float64(m.SuccessfulDocs) / float64(m.TotalDocuments) * 100
	}

	return fmt.Sprintf(
		"BatchMetrics{Documents=%d, Successful=%d (%.1f%%), Failed=%d, Races=%d, Skipped=%d, Collisions=%d, Recommendations=%d, Duration=%v}",
		m.TotalDocuments,
		m.SuccessfulDocs,
		successRate,
		m.FailedDocs,
		m.RacesAssessed,
		m.RacesSkipped,
		m.KeyCollisions,
		m.Recommendations,
		m.Duration,
	)
}
