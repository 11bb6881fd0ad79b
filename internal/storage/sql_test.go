package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/answer-engine-bot/internal/models"
)

func newTestRepository(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := NewSQLRepository(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewSQLRepository_UnsupportedDriver(t *testing.T) {
	_, err := NewSQLRepository(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?mode=ro", sqliteDSN("file:x.db?mode=ro"))
	assert.Equal(t, "file:data/bot.db?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", sqliteDSN("data/bot.db"))
}

func TestSQLRepository_ExecutionLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	exec := &models.QueryExecution{
		BrandID:    "brand-1",
		QuestionID: "q-1",
		Platform:   "chatgpt",
		ExecutedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveExecution(ctx, exec))

	assert.NotEmpty(t, exec.ID)
	assert.Equal(t, "2024-03-01", exec.Date)
	assert.Equal(t, models.StatusPending, exec.Status)

	exec.Status = models.StatusCompleted
	exec.RawResponse = "Acme is great"
	exec.ResponseMetadata = map[string]interface{}{"model": "gpt-4o"}
	exec.TokensUsed = 42
	require.NoError(t, repo.SaveExecution(ctx, exec))

	analysis := &models.AnalysisResult{
		ExecutionID:    exec.ID,
		BrandID:        "brand-1",
		BrandMentioned: true,
		MentionCount:   1,
	}
	require.NoError(t, repo.SaveAnalysis(ctx, analysis))
	assert.NotEmpty(t, analysis.ID)

	// a second analysis of the same execution is ignored
	require.NoError(t, repo.SaveAnalysis(ctx, &models.AnalysisResult{
		ExecutionID:  exec.ID,
		BrandID:      "brand-1",
		MentionCount: 99,
	}))

	records, err := repo.ListExecutionRecords(ctx, "brand-1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, exec.ID, got.Execution.ID)
	assert.Equal(t, models.StatusCompleted, got.Execution.Status)
	assert.Equal(t, "Acme is great", got.Execution.RawResponse)
	assert.Equal(t, "gpt-4o", got.Execution.ResponseMetadata["model"])
	assert.Equal(t, 42, got.Execution.TokensUsed)
	assert.True(t, got.Execution.ExecutedAt.Equal(exec.ExecutedAt))
	require.NotNil(t, got.Analysis)
	assert.Equal(t, 1, got.Analysis.MentionCount)

	other, err := repo.ListExecutionRecords(ctx, "brand-1", "2024-03-02")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLRepository_SaveAnalysisRequiresExecution(t *testing.T) {
	repo := newTestRepository(t)
	assert.Error(t, repo.SaveAnalysis(context.Background(), &models.AnalysisResult{}))
}

func TestSQLRepository_RecomputeDailyMetrics(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, status := range []string{models.StatusCompleted, models.StatusFailed} {
		require.NoError(t, repo.SaveExecution(ctx, &models.QueryExecution{
			BrandID: "brand-1", QuestionID: "q-1", Platform: "claude", Status: status, Date: "2024-03-01",
		}))
	}

	var seen int
	aggregate := func(records []models.ExecutionRecord) (models.DailyMetrics, bool) {
		seen = len(records)
		return models.DailyMetrics{
			VisibilityScore:        55.5,
			TotalQueries:           len(records),
			CompetitorShareOfVoice: map[string]float64{"Beta": 20},
			PlatformBreakdown: map[string]models.PlatformBreakdown{
				"claude": {Queries: len(records)},
			},
			TopCitations: []models.SourceRank{{Domain: "g2.com", Count: 1, Percentage: 100}},
		}, true
	}

	first, err := repo.RecomputeDailyMetrics(ctx, "brand-1", "2024-03-01", aggregate)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 2, seen)
	assert.Equal(t, "brand-1", first.BrandID)
	assert.Equal(t, "2024-03-01", first.Date)
	assert.Equal(t, 55.5, first.VisibilityScore)
	assert.Equal(t, map[string]float64{"Beta": 20}, first.CompetitorShareOfVoice)
	assert.Equal(t, 2, first.PlatformBreakdown["claude"].Queries)
	assert.Equal(t, []models.SourceRank{{Domain: "g2.com", Count: 1, Percentage: 100}}, first.TopCitations)

	second, err := repo.RecomputeDailyMetrics(ctx, "brand-1", "2024-03-01", aggregate)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := repo.GetDailyMetrics(ctx, "brand-1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestSQLRepository_RecomputeWithoutRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	dm, err := repo.RecomputeDailyMetrics(ctx, "brand-1", "2024-03-01", func(records []models.ExecutionRecord) (models.DailyMetrics, bool) {
		assert.Empty(t, records)
		return models.DailyMetrics{}, false
	})
	require.NoError(t, err)
	assert.Nil(t, dm)

	_, err = repo.GetDailyMetrics(ctx, "brand-1", "2024-03-01")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLRepository_ConcurrentRecompute(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	aggregate := func(records []models.ExecutionRecord) (models.DailyMetrics, bool) {
		return models.DailyMetrics{TotalQueries: len(records)}, len(records) > 0
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.SaveExecution(ctx, &models.QueryExecution{
				BrandID: "brand-1", QuestionID: "q", Platform: "chatgpt", Status: models.StatusCompleted, Date: "2024-03-01",
			}))
			_, err := repo.RecomputeDailyMetrics(ctx, "brand-1", "2024-03-01", aggregate)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// the last recomputation saw every execution
	dm, err := repo.GetDailyMetrics(ctx, "brand-1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 8, dm.TotalQueries)
}

func TestSQLRepository_ListDailyMetrics(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, date := range []string{"2024-03-03", "2024-03-01", "2024-03-02", "2024-02-20"} {
		d := date
		_, err := repo.RecomputeDailyMetrics(ctx, "brand-1", d, func([]models.ExecutionRecord) (models.DailyMetrics, bool) {
			return models.DailyMetrics{MentionCount: 1}, true
		})
		require.NoError(t, err)
	}

	days, err := repo.ListDailyMetrics(ctx, "brand-1", "2024-03-01", "2024-03-03")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-03-01", days[0].Date)
	assert.Equal(t, "2024-03-03", days[2].Date)

	none, err := repo.ListDailyMetrics(ctx, "brand-2", "2024-03-01", "2024-03-03")
	require.NoError(t, err)
	assert.Empty(t, none)
}
