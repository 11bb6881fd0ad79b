// Package cache keeps recently read daily metrics in memory so the HTTP surface does not
// hit the database on every request.
package cache

import (
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/azure/answer-engine-bot/internal/metrics"
	"github.com/azure/answer-engine-bot/internal/models"
)

const keyPrefix = "aeb:v1:"

// MetricsCache caches DailyMetrics rows and trend windows per brand
type MetricsCache struct {
	cache *gocache.Cache
}

// NewMetricsCache creates a cache whose entries expire after ttl
func NewMetricsCache(ttl time.Duration, cleanupInterval time.Duration) *MetricsCache {
	return &MetricsCache{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// DailyKey is the cache key of one brand-day
func DailyKey(brandID, date string) string {
	return keyPrefix + brandID + ":daily:" + date
}

// WindowKey is the cache key of a trend window ending on endDate
func WindowKey(brandID, endDate string, days int) string {
	return keyPrefix + brandID + ":window:" + endDate + ":" + strconv.Itoa(days)
}

// GetDaily returns the cached metrics of a brand-day
func (c *MetricsCache) GetDaily(brandID, date string) (models.DailyMetrics, bool) {
	if val, found := c.cache.Get(DailyKey(brandID, date)); found {
		return val.(models.DailyMetrics), true
	}
	return models.DailyMetrics{}, false
}

// SetDaily caches the metrics of a brand-day with the default TTL
func (c *MetricsCache) SetDaily(dm models.DailyMetrics) {
	c.cache.SetDefault(DailyKey(dm.BrandID, dm.Date), dm)
}

// TrendWindow is a cached trend response
type TrendWindow struct {
	Current  metrics.WindowSummary   `json:"current"`
	Previous metrics.WindowSummary   `json:"previous"`
	Trends   map[string]models.Trend `json:"trends"`
}

// GetWindow returns a cached trend window
func (c *MetricsCache) GetWindow(brandID, endDate string, days int) (TrendWindow, bool) {
	if val, found := c.cache.Get(WindowKey(brandID, endDate, days)); found {
		return val.(TrendWindow), true
	}
	return TrendWindow{}, false
}

// SetWindow caches a trend window with the default TTL
func (c *MetricsCache) SetWindow(brandID, endDate string, days int, w TrendWindow) {
	c.cache.SetDefault(WindowKey(brandID, endDate, days), w)
}

// InvalidateBrand drops every cached entry of a brand. Called after each recomputation,
// since any window may include the recomputed day.
func (c *MetricsCache) InvalidateBrand(brandID string) {
	prefix := keyPrefix + brandID + ":"
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

// Clear removes all values from the cache
func (c *MetricsCache) Clear() {
	c.cache.Flush()
}

// Len returns the number of unexpired entries
func (c *MetricsCache) Len() int {
	return c.cache.ItemCount()
}
