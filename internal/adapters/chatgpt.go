package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/azure/answer-engine-bot/internal/citations"
	"github.com/azure/answer-engine-bot/internal/models"
)

const (
	ChatGPTName         = "chatgpt"
	defaultChatGPTModel = "gpt-4o"
	azureAPIVersion     = "2024-12-01-preview"
)

// ChatGPTAdapter queries OpenAI chat completions, or an Azure OpenAI deployment when
// AzureEndpoint is set
type ChatGPTAdapter struct {
	client *openai.Client
	opts   Options
}

// AzureOpenAI selects an Azure OpenAI deployment instead of api.openai.com
type AzureOpenAI struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

var (
	_ Adapter                 = (*ChatGPTAdapter)(nil)
	_ NativeCitationExtractor = (*ChatGPTAdapter)(nil)
)

// NewChatGPTAdapter creates the adapter. Retries are left to the caller.
func NewChatGPTAdapter(opts Options, az AzureOpenAI) *ChatGPTAdapter {
	opts = opts.withDefaults(defaultChatGPTModel, 60)
	adapter := &ChatGPTAdapter{opts: opts}

	var client openai.Client
	switch {
	case az.Endpoint != "" && az.APIKey != "" && az.Deployment != "":
		client = openai.NewClient(
			azure.WithEndpoint(az.Endpoint, azureAPIVersion),
			azure.WithAPIKey(az.APIKey),
			option.WithMaxRetries(0),
		)
		adapter.opts.Model = az.Deployment
	case opts.APIKey != "":
		reqOpts := []option.RequestOption{
			option.WithAPIKey(opts.APIKey),
			option.WithMaxRetries(0),
		}
		if opts.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
		}
		client = openai.NewClient(reqOpts...)
	default:
		return adapter
	}

	adapter.client = &client
	return adapter
}

func (c *ChatGPTAdapter) GetName() string {
	return ChatGPTName
}

func (c *ChatGPTAdapter) IsEnabled() bool {
	return c.client != nil
}

func (c *ChatGPTAdapter) RateLimitRPM() int {
	return c.opts.RateLimitRPM
}

func (c *ChatGPTAdapter) ExecuteQuery(ctx context.Context, question string) models.RawAnswer {
	start := time.Now()
	if !c.IsEnabled() {
		return failed(ChatGPTName, c.opts.Model, start, fmt.Errorf("OpenAI API key not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(question),
		},
		Model:       openai.ChatModel(c.opts.Model),
		Temperature: openai.Float(c.opts.Temperature),
		MaxTokens:   openai.Int(int64(c.opts.MaxTokens)),
	})
	if err != nil {
		return failed(ChatGPTName, c.opts.Model, start, fmt.Errorf("OpenAI API error: %w", err))
	}
	if len(resp.Choices) == 0 {
		return failed(ChatGPTName, c.opts.Model, start, fmt.Errorf("OpenAI returned no choices"))
	}

	choice := resp.Choices[0]
	payload := map[string]interface{}{
		"id":            resp.ID,
		"model":         resp.Model,
		"finish_reason": string(choice.FinishReason),
		"usage": map[string]interface{}{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}

	var annotations []map[string]interface{}
	for _, ann := range choice.Message.Annotations {
		if ann.URLCitation.URL == "" {
			continue
		}
		annotations = append(annotations, map[string]interface{}{
			"url":   ann.URLCitation.URL,
			"title": ann.URLCitation.Title,
		})
	}
	if len(annotations) > 0 {
		payload["annotations"] = annotations
	}

	return models.RawAnswer{
		Platform:       ChatGPTName,
		Model:          c.opts.Model,
		Content:        choice.Message.Content,
		NativePayload:  payload,
		TokensUsed:     int(resp.Usage.TotalTokens),
		ResponseTimeMs: elapsedMs(start),
	}
}

// ExtractNativeCitations reads url_citation annotations
func (c *ChatGPTAdapter) ExtractNativeCitations(payload map[string]interface{}) []models.Citation {
	return citations.FromPayload(payload)
}
