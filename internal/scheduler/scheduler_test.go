package scheduler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/formcast/internal/features"
	"github.com/yourusername/formcast/internal/hybrid"
	"github.com/yourusername/formcast/internal/parser"
	"github.com/yourusername/formcast/internal/pipeline"
	"github.com/yourusername/formcast/internal/scoring"
	"github.com/yourusername/formcast/internal/source"
	"github.com/yourusername/formcast/internal/tiers"
)

type stubSource struct{}

func (s *stubSource) FetchDocuments(ctx context.Context) ([]source.Document, error) {
	return nil, nil
}

func (s *stubSource) FetchDocument(ctx context.Context, name string) (*source.Document, error) {
	return nil, nil
}

func (s *stubSource) Name() string    { return "stub" }
func (s *stubSource) IsEnabled() bool { return true }

func newTestScheduler() *Scheduler {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	analyzer := pipeline.NewAnalyzer(
		parser.New(log),
		features.NewDeriver(nil, log),
		scoring.NewScorer(scoring.DefaultRegistry()),
		tiers.NewClassifier(nil, log),
		hybrid.NewReconciler(hybrid.DefaultThresholds(), log),
		nil,
		log,
	)
	runner := pipeline.NewBatchRunner(analyzer, nil, 1, log)
	return NewScheduler(runner, &stubSource{}, log)
}

func TestSchedulerStartWithoutJobs(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestSchedulerLifecycle(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.ScheduleAnalysis("0 6 * * *"))
	require.NoError(t, s.ScheduleSync(60))
	require.Len(t, s.Entries(), 2)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())

	// Scheduling is rejected while running.
	assert.Error(t, s.ScheduleAnalysis("0 7 * * *"))
	assert.Error(t, s.Start())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())
}

func TestSchedulerBadCronExpression(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.ScheduleAnalysis("not a cron line"))
}

func TestSchedulerSyncIntervalFloor(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.ScheduleSync(1))
	require.NoError(t, s.Start())
	defer s.Stop()

	// The 1s request is raised to the 30s floor, so the next run is not
	// immediate.
	assert.True(t, s.IsRunning())
}