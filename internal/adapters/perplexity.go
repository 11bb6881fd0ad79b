package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/azure/answer-engine-bot/internal/citations"
	"github.com/azure/answer-engine-bot/internal/models"
)

const (
	PerplexityName         = "perplexity"
	defaultPerplexityModel = "sonar-pro"
	perplexityBaseURL      = "https://api.perplexity.ai"

	perplexityPrompt = "You are a helpful assistant that provides accurate, well-researched information with citations. " +
		"When recommending products or services, include specific brand names and cite your sources."
)

// PerplexityAdapter queries the Perplexity chat completions API. Answers are web
// grounded and carry search_results with the cited sources.
type PerplexityAdapter struct {
	client *resty.Client
	opts   Options
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model            string              `json:"model"`
	Messages         []perplexityMessage `json:"messages"`
	Temperature      float64             `json:"temperature"`
	MaxTokens        int                 `json:"max_tokens"`
	WebSearchOptions map[string]string   `json:"web_search_options,omitempty"`
}

type perplexityResponse struct {
	Choices []struct {
		Message perplexityMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

var (
	_ Adapter                 = (*PerplexityAdapter)(nil)
	_ NativeCitationExtractor = (*PerplexityAdapter)(nil)
)

// NewPerplexityAdapter creates the adapter
func NewPerplexityAdapter(opts Options) *PerplexityAdapter {
	opts = opts.withDefaults(defaultPerplexityModel, 20)
	if opts.BaseURL == "" {
		opts.BaseURL = perplexityBaseURL
	}

	return &PerplexityAdapter{
		client: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "Answer-Engine-Bot/1.0"),
		opts: opts,
	}
}

func (p *PerplexityAdapter) GetName() string {
	return PerplexityName
}

func (p *PerplexityAdapter) IsEnabled() bool {
	return p.opts.APIKey != ""
}

func (p *PerplexityAdapter) RateLimitRPM() int {
	return p.opts.RateLimitRPM
}

func (p *PerplexityAdapter) ExecuteQuery(ctx context.Context, question string) models.RawAnswer {
	start := time.Now()
	if !p.IsEnabled() {
		return failed(PerplexityName, p.opts.Model, start, fmt.Errorf("Perplexity API key not configured"))
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.opts.APIKey).
		SetBody(perplexityRequest{
			Model: p.opts.Model,
			Messages: []perplexityMessage{
				{Role: "system", Content: perplexityPrompt},
				{Role: "user", Content: question},
			},
			Temperature:      p.opts.Temperature,
			MaxTokens:        p.opts.MaxTokens,
			WebSearchOptions: map[string]string{"search_recency_filter": "month"},
		}).
		Post("/chat/completions")
	if err != nil {
		return failed(PerplexityName, p.opts.Model, start, fmt.Errorf("Perplexity request failed: %w", err))
	}
	if resp.StatusCode() != 200 {
		return failed(PerplexityName, p.opts.Model, start, fmt.Errorf("Perplexity API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	var parsed perplexityResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return failed(PerplexityName, p.opts.Model, start, fmt.Errorf("failed to decode Perplexity response: %w", err))
	}
	// the whole response is kept so search_results and citations stay available
	var payload map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return failed(PerplexityName, p.opts.Model, start, fmt.Errorf("failed to decode Perplexity response: %w", err))
	}

	content := ""
	if len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
	}

	return models.RawAnswer{
		Platform:       PerplexityName,
		Model:          p.opts.Model,
		Content:        content,
		NativePayload:  payload,
		TokensUsed:     parsed.Usage.TotalTokens,
		ResponseTimeMs: elapsedMs(start),
	}
}

// ExtractNativeCitations prefers search_results and falls back to the legacy citations list
func (p *PerplexityAdapter) ExtractNativeCitations(payload map[string]interface{}) []models.Citation {
	return citations.FromPayload(payload)
}
