package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/azure/answer-engine-bot/internal/models"
)

const (
	ClaudeName         = "claude"
	defaultClaudeModel = "claude-sonnet-4-20250514"
)

// ClaudeAdapter queries the Anthropic Messages API
type ClaudeAdapter struct {
	client *anthropic.Client
	opts   Options
}

var _ Adapter = (*ClaudeAdapter)(nil)

// NewClaudeAdapter creates the adapter. Retries are left to the caller.
func NewClaudeAdapter(opts Options) *ClaudeAdapter {
	opts = opts.withDefaults(defaultClaudeModel, 60)
	adapter := &ClaudeAdapter{opts: opts}
	if opts.APIKey == "" {
		return adapter
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	adapter.client = &client
	return adapter
}

func (c *ClaudeAdapter) GetName() string {
	return ClaudeName
}

func (c *ClaudeAdapter) IsEnabled() bool {
	return c.client != nil
}

func (c *ClaudeAdapter) RateLimitRPM() int {
	return c.opts.RateLimitRPM
}

func (c *ClaudeAdapter) ExecuteQuery(ctx context.Context, question string) models.RawAnswer {
	start := time.Now()
	if !c.IsEnabled() {
		return failed(ClaudeName, c.opts.Model, start, fmt.Errorf("Anthropic API key not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: int64(c.opts.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: question},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
		Temperature: anthropic.Float(c.opts.Temperature),
	})
	if err != nil {
		return failed(ClaudeName, c.opts.Model, start, fmt.Errorf("Anthropic API error: %w", err))
	}

	var parts []string
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			parts = append(parts, variant.Text)
		}
	}

	return models.RawAnswer{
		Platform: ClaudeName,
		Model:    c.opts.Model,
		Content:  strings.Join(parts, ""),
		NativePayload: map[string]interface{}{
			"id":          resp.ID,
			"model":       string(resp.Model),
			"stop_reason": string(resp.StopReason),
			"usage": map[string]interface{}{
				"input_tokens":  resp.Usage.InputTokens,
				"output_tokens": resp.Usage.OutputTokens,
			},
		},
		TokensUsed:     int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		ResponseTimeMs: elapsedMs(start),
	}
}
