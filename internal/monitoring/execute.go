package monitoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/adapters"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/worker"
)

// queryJob asks one question of one brand on one answer engine
type queryJob struct {
	service  *Service
	brand    models.Brand
	question models.Question
	adapter  adapters.Adapter

	mu   sync.Mutex
	exec *models.QueryExecution
}

// queryOutcome is the worker.Result of a queryJob
type queryOutcome struct {
	brand    models.Brand
	platform string
	exec     *models.QueryExecution
	analysis *models.AnalysisResult
	err      error
}

func (o *queryOutcome) GetError() error {
	return o.err
}

func (j *queryJob) Execute(ctx context.Context) worker.Result {
	return j.service.executeQuery(ctx, j)
}

func (j *queryJob) fields() logrus.Fields {
	return logrus.Fields{
		"brand":       j.brand.Name,
		"question_id": j.question.ID,
		"platform":    j.adapter.GetName(),
	}
}

func (j *queryJob) setExecution(exec *models.QueryExecution) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.exec = exec
}

// execution returns the job's execution record once it has been persisted
func (j *queryJob) execution() *models.QueryExecution {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.exec == nil || j.exec.ID == "" {
		return nil
	}
	return j.exec
}

// executeQuery moves an execution through pending to completed or failed
func (s *Service) executeQuery(ctx context.Context, job *queryJob) *queryOutcome {
	platform := job.adapter.GetName()
	outcome := &queryOutcome{brand: job.brand, platform: platform}
	log := logrus.WithFields(job.fields())

	exec := &models.QueryExecution{
		BrandID:    job.brand.ID,
		QuestionID: job.question.ID,
		Platform:   platform,
		Status:     models.StatusPending,
		ExecutedAt: s.now().UTC(),
	}
	if err := s.repo.SaveExecution(ctx, exec); err != nil {
		outcome.err = fmt.Errorf("failed to save execution: %w", err)
		return outcome
	}
	job.setExecution(exec)
	outcome.exec = exec

	answer := s.queryWithRetry(ctx, job)
	exec.Model = answer.Model
	exec.RawResponse = answer.Content
	exec.ResponseMetadata = answer.NativePayload
	exec.ResponseTimeMs = answer.ResponseTimeMs
	exec.TokensUsed = answer.TokensUsed

	if strings.TrimSpace(answer.Content) == "" {
		msg := answer.ErrorMessage()
		if msg == "" {
			msg = "empty response"
		}
		outcome.err = errors.New(msg)
		s.failExecution(ctx, exec, msg)
		log.Warnf("Query failed: %s", msg)
		return outcome
	}

	result := s.pipeline.Analyze(answer, job.brand)
	result.ExecutionID = exec.ID

	exec.Status = models.StatusCompleted
	if err := s.repo.SaveExecution(ctx, exec); err != nil {
		outcome.err = fmt.Errorf("failed to complete execution: %w", err)
		s.failExecution(ctx, exec, outcome.err.Error())
		log.Errorf("%v", outcome.err)
		return outcome
	}
	if err := s.repo.SaveAnalysis(ctx, result); err != nil {
		outcome.err = fmt.Errorf("failed to save analysis: %w", err)
		s.failExecution(ctx, exec, outcome.err.Error())
		return outcome
	}
	outcome.analysis = result

	if _, err := s.RecomputeDailyMetrics(ctx, job.brand, exec.Date); err != nil {
		log.Errorf("Failed to recompute daily metrics: %v", err)
	}

	log.WithFields(logrus.Fields{
		"mentioned": result.BrandMentioned,
		"position":  result.Position,
		"citations": result.CitationCount,
	}).Info("Query completed")

	return outcome
}

func (s *Service) failExecution(ctx context.Context, exec *models.QueryExecution, msg string) {
	exec.Status = models.StatusFailed
	exec.ErrorMessage = msg
	if err := s.repo.SaveExecution(context.WithoutCancel(ctx), exec); err != nil {
		logrus.Errorf("Failed to mark execution %s as failed: %v", exec.ID, err)
	}
}

// queryWithRetry calls the adapter until it returns content, at most AIMaxRetries extra
// times, with exponential back-off between attempts
func (s *Service) queryWithRetry(ctx context.Context, job *queryJob) models.RawAnswer {
	platform := job.adapter.GetName()
	attempts := s.config.AIMaxRetries + 1

	var answer models.RawAnswer
	var delay time.Duration
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := s.limiter.WaitWithDelay(ctx, platform, delay); err != nil {
			if attempt > 1 {
				return answer
			}
			return models.RawAnswer{
				Platform:      platform,
				NativePayload: map[string]interface{}{"error": fmt.Sprintf("rate limiter: %v", err)},
			}
		}

		answer = s.callAdapter(ctx, job)
		if strings.TrimSpace(answer.Content) != "" {
			return answer
		}

		if attempt < attempts {
			delay = s.config.AIRetryDelay * time.Duration(1<<(attempt-1))
			logrus.WithFields(job.fields()).Debugf("Attempt %d failed (%s), retrying in %s", attempt, answer.ErrorMessage(), delay)
		}
	}
	return answer
}

func (s *Service) callAdapter(ctx context.Context, job *queryJob) models.RawAnswer {
	if s.config.AIRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.AIRequestTimeout)
		defer cancel()
	}
	return job.adapter.ExecuteQuery(ctx, job.question.Text)
}
