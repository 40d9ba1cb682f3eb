// Package repository provides PostgreSQL persistence for decisions and results.
package repository

import (
	"context"
	"time"

	"github.com/yourusername/formcast/internal/models"
)

// DecisionRepository defines the interface for hybrid decision persistence
type DecisionRepository interface {
	Save(ctx context.Context, decision *models.HybridDecision) error
	GetByKey(ctx context.Context, key models.RaceKey) (*models.HybridDecision, error)
	GetRecent(ctx context.Context, limit int) ([]*models.HybridDecision, error)
	GetRecommended(ctx context.Context, start, end time.Time) ([]*models.HybridDecision, error)
}

// ResultRepository defines the interface for settled race result persistence
type ResultRepository interface {
	Insert(ctx context.Context, result *models.RaceResult) error
	InsertBatch(ctx context.Context, results []*models.RaceResult) error
	GetByKey(ctx context.Context, key models.RaceKey) (*models.RaceResult, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RaceResult, error)
	BoxWinStats(ctx context.Context, track string) ([]BoxStat, error)
}

// BoxStat is the per-box aggregate used for draw bias lookups.
type BoxStat struct {
	Track string
	Box   int
	Wins  int
	Runs  int
}

// WinRate returns the box's win rate, or 0 for an empty sample.
func (s BoxStat) WinRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Runs)
}
