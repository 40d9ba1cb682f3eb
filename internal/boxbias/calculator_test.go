package boxbias

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/formcast/internal/models"
	"github.com/yourusername/formcast/internal/repository"
)

type stubResultRepo struct {
	stats []repository.BoxStat
	err   error
	calls int
}

func (s *stubResultRepo) Insert(ctx context.Context, result *models.RaceResult) error { return nil }
func (s *stubResultRepo) InsertBatch(ctx context.Context, r []*models.RaceResult) error {
	return nil
}
func (s *stubResultRepo) GetByKey(ctx context.Context, key models.RaceKey) (*models.RaceResult, error) {
	return nil, models.ErrNotFound
}
func (s *stubResultRepo) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RaceResult, error) {
	return nil, nil
}
func (s *stubResultRepo) BoxWinStats(ctx context.Context, track string) ([]repository.BoxStat, error) {
	s.calls++
	return s.stats, s.err
}

func evenStats(track string, runs int) []repository.BoxStat {
	stats := make([]repository.BoxStat, 0, 8)
	for box := 1; box <= 8; box++ {
		stats = append(stats, repository.BoxStat{Track: track, Box: box, Wins: runs / 8, Runs: runs})
	}
	return stats
}

func TestBiasForUnbiasedTrackReturnsBaseline(t *testing.T) {
	repo := &stubResultRepo{stats: evenStats("SANDOWN", 80)}
	calc := New(repo, nil)

	factor, ok := calc.BiasFor("Sandown", 1)
	require.True(t, ok)
	assert.InDelta(t, baselineFactor, factor, 1e-9)
}

func TestBiasForFavoredBoxAboveBaseline(t *testing.T) {
	stats := evenStats("SANDOWN", 80)
	stats[0].Wins = 30 // box 1 wins well above the 10 per box mean
	repo := &stubResultRepo{stats: stats}
	calc := New(repo, nil)

	rail, ok := calc.BiasFor("Sandown", 1)
	require.True(t, ok)
	assert.Greater(t, rail, baselineFactor)

	wide, ok := calc.BiasFor("Sandown", 8)
	require.True(t, ok)
	assert.Less(t, wide, rail)
}

func TestBiasForSmallSampleFallsBack(t *testing.T) {
	repo := &stubResultRepo{stats: evenStats("RICHMOND", 16)}
	calc := New(repo, nil)

	_, ok := calc.BiasFor("Richmond", 1)
	assert.False(t, ok)
}

func TestBiasForRepositoryError(t *testing.T) {
	repo := &stubResultRepo{err: assert.AnError}
	calc := New(repo, nil)

	_, ok := calc.BiasFor("Sandown", 1)
	assert.False(t, ok)
}

func TestBiasForCachesStats(t *testing.T) {
	repo := &stubResultRepo{stats: evenStats("SANDOWN", 80)}
	calc := New(repo, nil)

	_, ok := calc.BiasFor("Sandown", 1)
	require.True(t, ok)
	_, ok = calc.BiasFor("Sandown", 2)
	require.True(t, ok)

	assert.Equal(t, 1, repo.calls)
}

func TestComputeFactorsClamped(t *testing.T) {
	stats := []repository.BoxStat{
		{Track: "T", Box: 1, Wins: 60, Runs: 100},
		{Track: "T", Box: 2, Wins: 0, Runs: 100},
	}
	out := computeFactors(stats)

	assert.Equal(t, maxFactor, out.factors[1])
	assert.Equal(t, 0.0, out.factors[2])
}
