package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/cache"
	"github.com/azure/answer-engine-bot/internal/metrics"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/storage"
)

// RecomputeDailyMetrics rebuilds the brand-day row from every execution of that day.
// Recomputations of the same brand-day are serialized; the result does not depend on
// the order in which executions completed.
func (s *Service) RecomputeDailyMetrics(ctx context.Context, brand models.Brand, date string) (*models.DailyMetrics, error) {
	unlock := s.dayLocks.Lock(brand.ID + "|" + date)
	defer unlock()

	dm, err := s.repo.RecomputeDailyMetrics(ctx, brand.ID, date, func(records []models.ExecutionRecord) (models.DailyMetrics, bool) {
		return metrics.AggregateDay(brand, date, records)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recompute daily metrics for %s on %s: %w", brand.Name, date, err)
	}

	s.cache.InvalidateBrand(brand.ID)
	if dm != nil {
		s.cache.SetDaily(*dm)
		logrus.Debugf("Recomputed %s metrics for %s: visibility %.2f", brand.Name, date, dm.VisibilityScore)
	}
	return dm, nil
}

// RecomputeToday recomputes today's metrics of every brand
func (s *Service) RecomputeToday(ctx context.Context) error {
	today := s.today()
	var errs []error
	for _, brand := range s.config.Brands {
		if _, err := s.RecomputeDailyMetrics(ctx, brand, today); err != nil {
			logrus.Errorf("%v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetDailyMetrics returns a brand-day's metrics. It returns storage.ErrNotFound when the
// day has no executions.
func (s *Service) GetDailyMetrics(ctx context.Context, brandKey, date string) (*models.DailyMetrics, error) {
	brand, err := s.brand(brandKey)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = s.today()
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	if dm, ok := s.cache.GetDaily(brand.ID, date); ok {
		return &dm, nil
	}

	// a recomputation between the read and the cache fill would leave a stale row cached
	unlock := s.dayLocks.Lock(brand.ID + "|" + date)
	defer unlock()

	if dm, ok := s.cache.GetDaily(brand.ID, date); ok {
		return &dm, nil
	}
	dm, err := s.repo.GetDailyMetrics(ctx, brand.ID, date)
	if err != nil {
		return nil, err
	}
	s.cache.SetDaily(*dm)
	return dm, nil
}

// GetTrend summarizes the days-long window ending at endDate and compares it with the
// window right before it
func (s *Service) GetTrend(ctx context.Context, brandKey string, days int, endDate string) (*cache.TrendWindow, error) {
	brand, err := s.brand(brandKey)
	if err != nil {
		return nil, err
	}
	if days < 1 || days > 365 {
		return nil, fmt.Errorf("days must be between 1 and 365")
	}
	if endDate == "" {
		endDate = s.today()
	}
	if _, err := time.Parse(models.DateLayout, endDate); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", endDate)
	}

	if w, ok := s.cache.GetWindow(brand.ID, endDate, days); ok {
		return &w, nil
	}

	currentStart := shiftDate(endDate, -(days - 1))
	previousEnd := shiftDate(currentStart, -1)
	previousStart := shiftDate(previousEnd, -(days - 1))

	current, err := s.repo.ListDailyMetrics(ctx, brand.ID, currentStart, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load current window: %w", err)
	}
	previous, err := s.repo.ListDailyMetrics(ctx, brand.ID, previousStart, previousEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous window: %w", err)
	}

	cur := metrics.SummarizeWindow(current)
	prev := metrics.SummarizeWindow(previous)
	w := cache.TrendWindow{
		Current:  cur,
		Previous: prev,
		Trends:   metrics.CompareWindows(cur, prev),
	}
	s.cache.SetWindow(brand.ID, endDate, days, w)
	return &w, nil
}

// GenerateReport builds the visibility report of one brand for date, comparing it with
// the previous day, or the previous week when reports are weekly
func (s *Service) GenerateReport(ctx context.Context, brand models.Brand, date string) (*models.Report, error) {
	report := &models.Report{
		GeneratedAt: s.now().UTC(),
		Period:      s.config.ReportSchedule,
		Brand:       brand.Name,
		Trends:      map[string]models.Trend{},
		Summary:     make(map[string]interface{}),
	}

	current, err := s.optionalDay(ctx, brand.ID, date)
	if err != nil {
		return nil, err
	}
	report.Metrics = current

	if s.config.ReportSchedule == "weekly" {
		w, err := s.GetTrend(ctx, brand.ID, 7, date)
		if err != nil {
			return nil, err
		}
		report.Trends = w.Trends
		report.Summary["window"] = w.Current
		report.Summary["previous_window"] = w.Previous
	} else {
		previous, err := s.optionalDay(ctx, brand.ID, shiftDate(date, -1))
		if err != nil {
			return nil, err
		}
		report.Previous = previous
		report.Trends = metrics.CompareDays(current, previous)
	}

	if current != nil {
		report.Summary["platforms"] = metrics.SortedPlatforms(current.PlatformBreakdown)
		report.Summary["competitors"] = brand.Competitors
	}

	return report, nil
}

func (s *Service) optionalDay(ctx context.Context, brandID, date string) (*models.DailyMetrics, error) {
	dm, err := s.repo.GetDailyMetrics(ctx, brandID, date)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics for %s: %w", date, err)
	}
	return dm, nil
}

// SendDailyReports sends today's report of every brand
func (s *Service) SendDailyReports(ctx context.Context) error {
	today := s.today()
	var errs []error
	for _, brand := range s.config.Brands {
		report, err := s.GenerateReport(ctx, brand, today)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.notificationService.SendReport(report); err != nil {
			logrus.Errorf("Failed to send report for %s: %v", brand.Name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CheckVisibilityDrops alerts when a brand's visibility today fell by more than
// AlertDropPercent against yesterday. Each brand-day alerts at most once.
func (s *Service) CheckVisibilityDrops(ctx context.Context) ([]*models.Alert, error) {
	today := s.today()
	yesterday := shiftDate(today, -1)

	var alerts []*models.Alert
	var errs []error
	for _, brand := range s.config.Brands {
		current, err := s.optionalDay(ctx, brand.ID, today)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		previous, err := s.optionalDay(ctx, brand.ID, yesterday)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if current == nil || previous == nil || previous.VisibilityScore <= 0 {
			continue
		}

		trend := metrics.Trend(current.VisibilityScore, previous.VisibilityScore)
		if trend.Direction != models.TrendDown || -trend.Percent <= s.config.AlertDropPercent {
			continue
		}
		if !s.markAlerted(brand.ID, today) {
			continue
		}

		alert := &models.Alert{
			ID:    uuid.New().String(),
			Type:  "urgent",
			Title: fmt.Sprintf("Visibility drop for %s", brand.Name),
			Message: fmt.Sprintf("Visibility score fell %.1f%% from %.1f on %s to %.1f on %s",
				-trend.Percent, previous.VisibilityScore, yesterday, current.VisibilityScore, today),
			Brand:     brand.Name,
			Metrics:   current,
			CreatedAt: s.now().UTC(),
		}
		if err := s.notificationService.SendAlert(alert); err != nil {
			logrus.Errorf("Failed to send alert for %s: %v", brand.Name, err)
			errs = append(errs, err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, errors.Join(errs...)
}

func (s *Service) markAlerted(brandID, date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alerted[brandID] == date {
		return false
	}
	s.alerted[brandID] = date
	return true
}

// RunScheduledAnalysis runs every brand and sends the daily reports
func (s *Service) RunScheduledAnalysis(ctx context.Context) error {
	if _, err := s.RunAnalysis(ctx, ""); err != nil {
		return err
	}
	return s.SendDailyReports(ctx)
}

// RunRecomputeCheck refreshes today's metrics and checks for visibility drops
func (s *Service) RunRecomputeCheck(ctx context.Context) error {
	if err := s.RecomputeToday(ctx); err != nil {
		return err
	}
	alerts, err := s.CheckVisibilityDrops(ctx)
	if len(alerts) > 0 {
		logrus.Infof("Sent %d visibility drop alerts", len(alerts))
	}
	return err
}

func (s *Service) brand(key string) (models.Brand, error) {
	brands, err := s.Brands(key)
	if err != nil {
		return models.Brand{}, err
	}
	if len(brands) != 1 {
		return models.Brand{}, fmt.Errorf("brand is required")
	}
	return brands[0], nil
}

func (s *Service) today() string {
	return s.now().UTC().Format(models.DateLayout)
}

func shiftDate(date string, days int) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(models.DateLayout)
}
