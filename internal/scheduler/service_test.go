package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/azure/answer-engine-bot/internal/config"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunScheduledAnalysis(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRunner) RunRecomputeCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestNewService_InvalidTimeZone(t *testing.T) {
	_, err := NewService(&config.Config{TimeZone: "Mars/Olympus"}, &MockRunner{})
	assert.Error(t, err)
}

func TestStart_SchedulesBothJobs(t *testing.T) {
	s, err := NewService(&config.Config{
		TimeZone:     "Europe/Amsterdam",
		AnalysisCron: "0 0 9 * * *",
	}, &MockRunner{})
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 2, s.Entries())
}

func TestStart_InvalidCron(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{name: "analysis", cfg: &config.Config{AnalysisCron: "every day"}, want: "ANALYSIS_CRON"},
		{name: "recompute", cfg: &config.Config{AnalysisCron: "0 0 9 * * *", RecomputeCron: "0 0 9 * *"}, want: "RECOMPUTE_CRON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewService(tt.cfg, &MockRunner{})
			require.NoError(t, err)

			err = s.Start()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestJobs_CallRunnerWithDeadline(t *testing.T) {
	runner := &MockRunner{}
	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})
	runner.On("RunScheduledAnalysis", hasDeadline).Return(errors.New("no answer engines configured")).Once()
	runner.On("RunRecomputeCheck", hasDeadline).Return(nil).Once()

	s, err := NewService(&config.Config{}, runner)
	require.NoError(t, err)

	// failures are logged, not propagated
	s.runAnalysis()
	s.runRecompute()

	runner.AssertExpectations(t)
}
