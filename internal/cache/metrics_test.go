package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/answer-engine-bot/internal/metrics"
	"github.com/azure/answer-engine-bot/internal/models"
)

func TestMetricsCache_Daily(t *testing.T) {
	c := NewMetricsCache(time.Minute, time.Minute)

	_, found := c.GetDaily("brand-1", "2024-03-01")
	assert.False(t, found)

	c.SetDaily(models.DailyMetrics{BrandID: "brand-1", Date: "2024-03-01", VisibilityScore: 42})

	dm, found := c.GetDaily("brand-1", "2024-03-01")
	require.True(t, found)
	assert.Equal(t, 42.0, dm.VisibilityScore)
}

func TestMetricsCache_Expiry(t *testing.T) {
	c := NewMetricsCache(10*time.Millisecond, time.Minute)
	c.SetDaily(models.DailyMetrics{BrandID: "brand-1", Date: "2024-03-01"})

	time.Sleep(25 * time.Millisecond)

	_, found := c.GetDaily("brand-1", "2024-03-01")
	assert.False(t, found)
}

func TestMetricsCache_InvalidateBrand(t *testing.T) {
	c := NewMetricsCache(time.Minute, time.Minute)
	c.SetDaily(models.DailyMetrics{BrandID: "brand-1", Date: "2024-03-01"})
	c.SetDaily(models.DailyMetrics{BrandID: "brand-10", Date: "2024-03-01"})
	c.SetWindow("brand-1", "2024-03-01", 7, TrendWindow{Current: metrics.WindowSummary{Days: 7}})

	w, found := c.GetWindow("brand-1", "2024-03-01", 7)
	require.True(t, found)
	assert.Equal(t, 7, w.Current.Days)

	c.InvalidateBrand("brand-1")

	_, found = c.GetDaily("brand-1", "2024-03-01")
	assert.False(t, found)
	_, found = c.GetWindow("brand-1", "2024-03-01", 7)
	assert.False(t, found)

	_, found = c.GetDaily("brand-10", "2024-03-01")
	assert.True(t, found)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "aeb:v1:b:daily:2024-03-01", DailyKey("b", "2024-03-01"))
	assert.Equal(t, "aeb:v1:b:window:2024-03-01:7", WindowKey("b", "2024-03-01", 7))
}
