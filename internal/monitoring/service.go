package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/adapters"
	"github.com/azure/answer-engine-bot/internal/analysis"
	"github.com/azure/answer-engine-bot/internal/cache"
	"github.com/azure/answer-engine-bot/internal/config"
	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/notifications"
	"github.com/azure/answer-engine-bot/internal/storage"
	"github.com/azure/answer-engine-bot/internal/worker"
)

// Service runs the curated questions of every brand against the answer engines, analyzes
// the answers and keeps the daily visibility metrics current
type Service struct {
	config              *config.Config
	repo                storage.Repository
	archive             storage.StorageInterface
	notificationService notifications.NotificationInterface
	adapters            []adapters.Adapter
	pipeline            *analysis.Pipeline
	limiter             *worker.Limiter
	dayLocks            *worker.KeyedMutex
	cache               *cache.MetricsCache
	metrics             *Metrics
	alerted             map[string]string
	running             bool
	now                 func() time.Time
	mu                  sync.RWMutex
}

// Metrics holds runtime statistics of the analysis runs
type Metrics struct {
	Runs               int            `json:"runs"`
	LastRun            time.Time      `json:"last_run"`
	LastRunID          string         `json:"last_run_id"`
	LastRunDuration    string         `json:"last_run_duration"`
	TotalExecutions    int            `json:"total_executions"`
	Completed          int            `json:"completed"`
	Failed             int            `json:"failed"`
	PlatformMetrics    map[string]int `json:"platform_metrics"`
	MentionBreakdown   map[string]int `json:"mention_breakdown"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	ErrorCount         int            `json:"error_count"`
	Running            bool           `json:"running"`
}

// RunSummary describes one analysis run. It is archived as JSON after the run.
type RunSummary struct {
	RunID       string                     `json:"run_id"`
	StartedAt   time.Time                  `json:"started_at"`
	FinishedAt  time.Time                  `json:"finished_at"`
	Duration    string                     `json:"duration"`
	Brands      []string                   `json:"brands"`
	Platforms   map[string]*PlatformResult `json:"platforms"`
	Scheduled   int                        `json:"scheduled"`
	Completed   int                        `json:"completed"`
	Failed      int                        `json:"failed"`
	Skipped     int                        `json:"skipped"`
	Mentions    map[string]int             `json:"mentions"`
	Sentiments  map[string]int             `json:"sentiments"`
	DailyScores map[string]float64         `json:"daily_scores"`
	Errors      []string                   `json:"errors,omitempty"`
}

// PlatformResult counts one platform's outcomes within a run
type PlatformResult struct {
	Completed       int `json:"completed"`
	Failed          int `json:"failed"`
	TokensUsed      int `json:"tokens_used"`
	TotalResponseMs int `json:"total_response_ms"`
}

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("an analysis run is already in progress")

// NewService creates a new monitoring service. archive may be nil, in which case run
// summaries are only logged.
func NewService(cfg *config.Config, repo storage.Repository, archive storage.StorageInterface, notificationService notifications.NotificationInterface, engines []adapters.Adapter, lex *lexicon.Lexicon) *Service {
	service := &Service{
		config:              cfg,
		repo:                repo,
		archive:             archive,
		notificationService: notificationService,
		adapters:            engines,
		pipeline:            analysis.NewPipeline(lex),
		limiter:             worker.NewLimiter(60, 1),
		dayLocks:            worker.NewKeyedMutex(),
		cache:               cache.NewMetricsCache(cfg.CacheTTL, 10*time.Minute),
		metrics: &Metrics{
			PlatformMetrics:    make(map[string]int),
			MentionBreakdown:   make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
		alerted: make(map[string]string),
		now:     time.Now,
	}

	for _, a := range engines {
		service.limiter.SetPlatformRate(a.GetName(), a.RateLimitRPM(), 1)
	}

	return service
}

// Brands returns the tracked brands, optionally narrowed to one id or name
func (s *Service) Brands(filter string) ([]models.Brand, error) {
	if filter == "" {
		return s.config.Brands, nil
	}
	brand, ok := s.config.Brand(filter)
	if !ok {
		return nil, fmt.Errorf("unknown brand %q", filter)
	}
	return []models.Brand{brand}, nil
}

func (s *Service) enabledAdapters() []adapters.Adapter {
	return adapters.Enabled(s.adapters)
}

// RunAnalysis executes every active question of the selected brands on every enabled
// answer engine. A failing pair is recorded and never aborts the others.
func (s *Service) RunAnalysis(ctx context.Context, brandFilter string) (*RunSummary, error) {
	brands, err := s.Brands(brandFilter)
	if err != nil {
		return nil, err
	}

	engines := s.enabledAdapters()
	if len(engines) == 0 {
		return nil, fmt.Errorf("no answer engines configured")
	}

	if !s.beginRun() {
		return nil, ErrRunInProgress
	}
	defer s.endRun()

	start := s.now()
	summary := &RunSummary{
		RunID:       uuid.New().String(),
		StartedAt:   start.UTC(),
		Platforms:   make(map[string]*PlatformResult),
		Mentions:    make(map[string]int),
		Sentiments:  make(map[string]int),
		DailyScores: make(map[string]float64),
	}

	var jobs []worker.Job
	for _, brand := range brands {
		summary.Brands = append(summary.Brands, brand.Name)
		questions := brand.ActiveQuestions(s.config.MaxQuestionsPerRun)
		if len(questions) == 0 {
			logrus.Warnf("Brand %s has no active questions", brand.Name)
			continue
		}
		for _, question := range questions {
			for _, engine := range engines {
				jobs = append(jobs, &queryJob{service: s, brand: brand, question: question, adapter: engine})
			}
		}
	}
	summary.Scheduled = len(jobs)

	logrus.WithFields(logrus.Fields{
		"run_id":    summary.RunID,
		"brands":    len(brands),
		"platforms": len(engines),
		"jobs":      len(jobs),
	}).Info("Starting analysis run")

	results := worker.Run(ctx, s.config.MaxWorkers, jobs)
	summary.Skipped = len(jobs) - len(results)

	touched := make(map[string]models.Brand)
	for _, res := range results {
		outcome := s.resolveResult(ctx, res)
		if outcome == nil {
			continue
		}
		s.recordOutcome(summary, outcome)
		if outcome.exec != nil && outcome.exec.Date != "" {
			touched[outcome.brand.ID+"|"+outcome.exec.Date] = outcome.brand
		}
	}

	// failed executions count towards the day's queries, so every touched day is
	// recomputed once more after all jobs finished
	keys := make([]string, 0, len(touched))
	for key := range touched {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		date := key[strings.LastIndex(key, "|")+1:]
		dm, err := s.RecomputeDailyMetrics(ctx, touched[key], date)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("recompute %s: %v", key, err))
			continue
		}
		if dm != nil {
			summary.DailyScores[touched[key].Name+" "+date] = dm.VisibilityScore
		}
	}

	summary.FinishedAt = s.now().UTC()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt).String()

	s.updateMetrics(summary)
	s.archiveSummary(ctx, summary)

	logrus.WithFields(logrus.Fields{
		"run_id":    summary.RunID,
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Infof("Analysis run completed in %s", summary.Duration)

	return summary, nil
}

func (s *Service) beginRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Service) endRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// resolveResult turns a pool result into an outcome. A panicked job has its execution
// marked failed here.
func (s *Service) resolveResult(ctx context.Context, res worker.Result) *queryOutcome {
	switch r := res.(type) {
	case *queryOutcome:
		return r
	case *worker.PanicResult:
		job, ok := r.Job.(*queryJob)
		if !ok {
			logrus.Errorf("Unexpected job type in panic result: %v", r.GetError())
			return nil
		}
		logrus.WithFields(job.fields()).Errorf("Query execution panicked: %v", r.Recovered)
		outcome := &queryOutcome{brand: job.brand, platform: job.adapter.GetName(), err: r.GetError()}
		if exec := job.execution(); exec != nil {
			exec.Status = models.StatusFailed
			exec.ErrorMessage = r.GetError().Error()
			if err := s.repo.SaveExecution(context.WithoutCancel(ctx), exec); err != nil {
				logrus.Errorf("Failed to mark execution %s as failed: %v", exec.ID, err)
			}
			outcome.exec = exec
		}
		return outcome
	default:
		logrus.Errorf("Unexpected result type %T", res)
		return nil
	}
}

func (s *Service) recordOutcome(summary *RunSummary, outcome *queryOutcome) {
	pr := summary.Platforms[outcome.platform]
	if pr == nil {
		pr = &PlatformResult{}
		summary.Platforms[outcome.platform] = pr
	}

	if outcome.err != nil {
		summary.Failed++
		pr.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s/%s: %v", outcome.brand.Name, outcome.platform, outcome.err))
		return
	}

	summary.Completed++
	pr.Completed++
	if outcome.exec != nil {
		pr.TokensUsed += outcome.exec.TokensUsed
		pr.TotalResponseMs += outcome.exec.ResponseTimeMs
	}
	if a := outcome.analysis; a != nil {
		if a.BrandMentioned {
			summary.Mentions[outcome.brand.Name] += a.MentionCount
		}
		summary.Sentiments[a.Sentiment]++
	}
}

func (s *Service) updateMetrics(summary *RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Runs++
	s.metrics.LastRun = summary.FinishedAt
	s.metrics.LastRunID = summary.RunID
	s.metrics.LastRunDuration = summary.Duration
	s.metrics.TotalExecutions += summary.Completed + summary.Failed
	s.metrics.Completed += summary.Completed
	s.metrics.Failed += summary.Failed
	s.metrics.ErrorCount = len(summary.Errors)

	// Reset per-run counters
	s.metrics.PlatformMetrics = make(map[string]int)
	s.metrics.MentionBreakdown = make(map[string]int)
	s.metrics.SentimentBreakdown = make(map[string]int)

	for platform, pr := range summary.Platforms {
		s.metrics.PlatformMetrics[platform] = pr.Completed
	}
	for brand, n := range summary.Mentions {
		s.metrics.MentionBreakdown[brand] = n
	}
	for label, n := range summary.Sentiments {
		s.metrics.SentimentBreakdown[label] = n
	}
}

func (s *Service) archiveSummary(ctx context.Context, summary *RunSummary) {
	if s.archive == nil {
		return
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logrus.Errorf("Failed to marshal run summary: %v", err)
		return
	}

	filename := fmt.Sprintf("runs/%s/run-%s.json", summary.StartedAt.Format(models.DateLayout), summary.RunID)
	if err := s.archive.Store(ctx, filename, data); err != nil {
		logrus.Errorf("Failed to archive run summary: %v", err)
	}
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := *s.metrics
	snapshot.Running = s.running

	data, _ := json.MarshalIndent(snapshot, "", "  ")
	return string(data)
}
