package repository

import (
	"context"
	"testing"
	"time"

	"github.com/yourusername/formcast/internal/database"
	"github.com/yourusername/formcast/internal/models"
)

func TestNewRepositoriesRequiresDB(t *testing.T) {
	if _, err := NewRepositories(nil); err == nil {
		t.Fatal("expected error for nil database")
	}
}

func TestBoxStatWinRate(t *testing.T) {
	stat := BoxStat{Track: "SANDOWN", Box: 1, Wins: 30, Runs: 100}
	if got := stat.WinRate(); got != 0.3 {
		t.Errorf("expected win rate 0.3, got %v", got)
	}

	empty := BoxStat{Track: "SANDOWN", Box: 5}
	if got := empty.WinRate(); got != 0 {
		t.Errorf("expected win rate 0 for empty sample, got %v", got)
	}
}

// TestDecisionRepositoryRoundTrip exercises the decision upsert against a real
// database. Skipped unless a test database is configured.
func TestDecisionRepositoryRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conf := 81.0
	decision := &models.HybridDecision{
		Key:            models.RaceKey{Track: "WENTWORTH PARK", RaceNumber: 4},
		RecommendedBox: 1,
		Tier:           models.Tier1,
		MarginPercent:  19.5,
		MLConfidence:   &conf,
		Reason:         "rule and ML thresholds met",
	}

	if err := repos.Decision.Save(ctx, decision); err != nil {
		t.Fatalf("failed to save decision: %v", err)
	}

	retrieved, err := repos.Decision.GetByKey(ctx, decision.Key)
	if err != nil {
		t.Fatalf("failed to retrieve decision: %v", err)
	}
	if retrieved.RecommendedBox != 1 || retrieved.Tier != models.Tier1 {
		t.Errorf("retrieved decision mismatch: %+v", retrieved)
	}
}

// TestResultRepositoryBatch exercises the COPY-based batch insert. Skipped
// unless a test database is configured.
func TestResultRepositoryBatch(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make([]*models.RaceResult, 8)
	for i := range results {
		results[i] = &models.RaceResult{
			Track:      "SANDOWN",
			RaceNumber: i + 1,
			WinningBox: (i % 8) + 1,
			SettledAt:  time.Now(),
		}
	}

	if err := repos.Result.InsertBatch(ctx, results); err != nil {
		t.Fatalf("failed to batch insert results: %v", err)
	}

	stats, err := repos.Result.BoxWinStats(ctx, "SANDOWN")
	if err != nil {
		t.Fatalf("failed to query box win stats: %v", err)
	}
	if len(stats) != 8 {
		t.Errorf("expected stats for 8 boxes, got %d", len(stats))
	}
}
