package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/config"
)

// Runner is the part of the monitoring service driven by the schedule
type Runner interface {
	RunScheduledAnalysis(ctx context.Context) error
	RunRecomputeCheck(ctx context.Context) error
}

const (
	analysisTimeout  = 2 * time.Hour
	recomputeTimeout = 10 * time.Minute
)

// Service handles scheduling of analysis tasks
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
}

// NewService creates a new scheduler service. Schedules are evaluated in cfg.TimeZone.
func NewService(cfg *config.Config, runner Runner) (*Service, error) {
	location := time.UTC
	if cfg.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.TimeZone, err)
		}
		location = loc
	}

	return &Service{
		config: cfg,
		runner: runner,
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(location)),
	}, nil
}

// Start begins the scheduled analysis
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.AnalysisCron, s.runAnalysis)
	if err != nil {
		return fmt.Errorf("invalid ANALYSIS_CRON %q: %w", s.config.AnalysisCron, err)
	}

	// Keep today's metrics fresh and catch visibility drops between daily runs
	recomputeCron := s.config.RecomputeCron
	if recomputeCron == "" {
		recomputeCron = "0 0 */4 * * *"
	}
	_, err = s.cron.AddFunc(recomputeCron, s.runRecompute)
	if err != nil {
		return fmt.Errorf("invalid RECOMPUTE_CRON %q: %w", recomputeCron, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started: analysis %q, recompute %q (%s reports)", s.config.AnalysisCron, recomputeCron, s.config.ReportSchedule)
	return nil
}

func (s *Service) runAnalysis() {
	logrus.Info("Starting scheduled analysis run")
	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	if err := s.runner.RunScheduledAnalysis(ctx); err != nil {
		logrus.Errorf("Scheduled analysis run failed: %v", err)
	}
}

func (s *Service) runRecompute() {
	logrus.Info("Starting metrics recompute and visibility check")
	ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
	defer cancel()

	if err := s.runner.RunRecomputeCheck(ctx); err != nil {
		logrus.Errorf("Metrics recompute failed: %v", err)
	}
}

// Entries returns the number of scheduled jobs
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler and waits for running jobs
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
