package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/azure/answer-engine-bot/internal/citations"
	"github.com/azure/answer-engine-bot/internal/models"
)

const (
	GeminiName         = "gemini"
	GeminiGroundedName = "gemini_grounded"
	defaultGeminiModel = "gemini-1.5-pro"
	geminiBaseURL      = "https://generativelanguage.googleapis.com"

	geminiPrompt = "You are a helpful assistant that provides accurate, detailed information. " +
		"When recommending products or services, provide specific brand names, explain your reasoning, " +
		"and include relevant sources where possible. If creating a list of recommendations, number them clearly."
	geminiGroundedPrompt = "You are a helpful assistant with access to current information. " +
		"Always cite your sources and include relevant URLs when available. " +
		"For product recommendations, include official websites and key features."
)

// GeminiAdapter calls the generateContent REST endpoint. With grounding enabled the
// google_search tool is attached and groundingMetadata is kept in the payload.
type GeminiAdapter struct {
	client   *resty.Client
	opts     Options
	grounded bool
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent           `json:"systemInstruction,omitempty"`
	Contents          []geminiContent          `json:"contents"`
	GenerationConfig  map[string]interface{}   `json:"generationConfig"`
	Tools             []map[string]interface{} `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content           geminiContent          `json:"content"`
		FinishReason      string                 `json:"finishReason"`
		GroundingMetadata map[string]interface{} `json:"groundingMetadata"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var (
	_ Adapter                 = (*GeminiAdapter)(nil)
	_ NativeCitationExtractor = (*GeminiAdapter)(nil)
)

// NewGeminiAdapter creates the plain or search-grounded variant
func NewGeminiAdapter(opts Options, grounded bool) *GeminiAdapter {
	rpm := 60
	if grounded {
		rpm = 30
	}
	opts = opts.withDefaults(defaultGeminiModel, rpm)
	if opts.BaseURL == "" {
		opts.BaseURL = geminiBaseURL
	}

	return &GeminiAdapter{
		client: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "Answer-Engine-Bot/1.0"),
		opts:     opts,
		grounded: grounded,
	}
}

func (g *GeminiAdapter) GetName() string {
	if g.grounded {
		return GeminiGroundedName
	}
	return GeminiName
}

func (g *GeminiAdapter) IsEnabled() bool {
	return g.opts.APIKey != ""
}

func (g *GeminiAdapter) RateLimitRPM() int {
	return g.opts.RateLimitRPM
}

func (g *GeminiAdapter) ExecuteQuery(ctx context.Context, question string) models.RawAnswer {
	start := time.Now()
	name := g.GetName()
	if !g.IsEnabled() {
		return failed(name, g.opts.Model, start, fmt.Errorf("Google AI API key not configured"))
	}

	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: geminiPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: question}}}},
		GenerationConfig: map[string]interface{}{
			"temperature":     g.opts.Temperature,
			"maxOutputTokens": g.opts.MaxTokens,
		},
	}
	if g.grounded {
		body.SystemInstruction.Parts[0].Text = geminiGroundedPrompt
		body.Tools = []map[string]interface{}{{"google_search": map[string]interface{}{}}}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.opts.APIKey).
		SetPathParam("model", g.opts.Model).
		SetBody(body).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return failed(name, g.opts.Model, start, fmt.Errorf("Gemini request failed: %w", err))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return failed(name, g.opts.Model, start, fmt.Errorf("failed to decode Gemini response (status %d): %w", resp.StatusCode(), err))
	}
	if resp.StatusCode() != 200 {
		msg := resp.String()
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return failed(name, g.opts.Model, start, fmt.Errorf("Gemini API returned status %d: %s", resp.StatusCode(), msg))
	}

	payload := map[string]interface{}{
		"model":    g.opts.Model,
		"grounded": g.grounded,
		"usage": map[string]interface{}{
			"prompt_tokens":     parsed.UsageMetadata.PromptTokenCount,
			"candidates_tokens": parsed.UsageMetadata.CandidatesTokenCount,
		},
	}

	var parts []string
	if len(parsed.Candidates) > 0 {
		candidate := parsed.Candidates[0]
		for _, part := range candidate.Content.Parts {
			parts = append(parts, part.Text)
		}
		payload["finish_reason"] = candidate.FinishReason
		if candidate.GroundingMetadata != nil {
			payload["groundingMetadata"] = candidate.GroundingMetadata
		}
	}

	tokens := parsed.UsageMetadata.TotalTokenCount
	if tokens == 0 {
		tokens = parsed.UsageMetadata.PromptTokenCount + parsed.UsageMetadata.CandidatesTokenCount
	}

	return models.RawAnswer{
		Platform:       name,
		Model:          g.opts.Model,
		Content:        strings.Join(parts, ""),
		NativePayload:  payload,
		TokensUsed:     tokens,
		ResponseTimeMs: elapsedMs(start),
	}
}

// ExtractNativeCitations reads the grounding chunks
func (g *GeminiAdapter) ExtractNativeCitations(payload map[string]interface{}) []models.Citation {
	return citations.FromPayload(payload)
}
