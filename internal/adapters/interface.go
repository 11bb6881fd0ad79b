package adapters

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/models"
)

// Adapter sends a question to one answer engine and returns the raw answer.
// Implementations never return errors: a failed call yields an answer with empty
// content and the error message under NativePayload["error"].
type Adapter interface {
	GetName() string
	IsEnabled() bool
	RateLimitRPM() int
	ExecuteQuery(ctx context.Context, question string) models.RawAnswer
}

// NativeCitationExtractor is implemented by adapters whose payload carries
// structured citations
type NativeCitationExtractor interface {
	ExtractNativeCitations(payload map[string]interface{}) []models.Citation
}

// Options configures a single adapter
type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxTokens    int
	Temperature  float64
	RateLimitRPM int
	Timeout      time.Duration
}

const systemPrompt = "You are a helpful assistant that provides accurate, comprehensive answers to questions."

func (o Options) withDefaults(model string, rpm int) Options {
	if o.Model == "" {
		o.Model = model
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 2000
	}
	if o.Temperature == 0 {
		o.Temperature = 0.7
	}
	if o.RateLimitRPM <= 0 {
		o.RateLimitRPM = rpm
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

func failed(platform, model string, start time.Time, err error) models.RawAnswer {
	logrus.Errorf("%s query failed: %v", platform, err)
	return models.RawAnswer{
		Platform:       platform,
		Model:          model,
		Content:        "",
		NativePayload:  map[string]interface{}{"error": err.Error()},
		ResponseTimeMs: elapsedMs(start),
	}
}

func elapsedMs(start time.Time) int {
	return int(time.Since(start).Milliseconds())
}
