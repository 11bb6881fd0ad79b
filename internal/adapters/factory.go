package adapters

import (
	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/config"
)

// NewFromConfig builds every adapter the configuration knows about. Adapters without
// credentials are returned too and report IsEnabled() == false.
func NewFromConfig(cfg *config.Config) []Adapter {
	timeout := cfg.AIRequestTimeout

	adapters := []Adapter{
		NewChatGPTAdapter(
			Options{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, Timeout: timeout},
			AzureOpenAI{Endpoint: cfg.AzureOpenAIEndpoint, APIKey: cfg.AzureOpenAIKey, Deployment: cfg.AzureOpenAIDeployment},
		),
		NewClaudeAdapter(Options{APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel, Timeout: timeout}),
		NewPerplexityAdapter(Options{APIKey: cfg.PerplexityAPIKey, Model: cfg.PerplexityModel, Timeout: timeout}),
		NewGeminiAdapter(Options{APIKey: cfg.GoogleAIAPIKey, Model: cfg.GeminiModel, Timeout: timeout}, cfg.EnableGeminiGrounding),
	}

	for _, a := range adapters {
		if a.IsEnabled() {
			logrus.Infof("Answer engine %s enabled (%d rpm)", a.GetName(), a.RateLimitRPM())
		} else {
			logrus.Debugf("Answer engine %s disabled: no credentials", a.GetName())
		}
	}

	return adapters
}

// Enabled filters out adapters without credentials
func Enabled(all []Adapter) []Adapter {
	var enabled []Adapter
	for _, a := range all {
		if a.IsEnabled() {
			enabled = append(enabled, a)
		}
	}
	return enabled
}
