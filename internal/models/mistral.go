package models

import (
	"context"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/dohr-michael/sidekick/internal/config"
)

const (
	defaultMistralBaseURL = "https://api.mistral.ai/v1"
	defaultMistralModel   = "pixtral-12b-latest"
)

// NewMistral creates a gateway against Mistral AI via its OpenAI-compatible API.
func NewMistral(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (*EinoGateway, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultMistralModel
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultMistralBaseURL
	}

	maxTokens := maxTokensOr(cfg.MaxTokens)
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey:    auth.Value,
		Model:     modelName,
		BaseURL:   baseURL,
		MaxTokens: &maxTokens,
	}

	if d := cfg.Timeout.Duration(); d > 0 {
		modelConfig.Timeout = d
	}

	if cfg.Options != nil {
		if temp, ok := cfg.Options["temperature"].(float64); ok {
			t := float32(temp)
			modelConfig.Temperature = &t
		}
		if topP, ok := cfg.Options["top_p"].(float64); ok {
			p := float32(topP)
			modelConfig.TopP = &p
		}
	}

	m, err := einoopenai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, err
	}
	return NewEinoGateway("mistral/"+modelName, m, maxTokens), nil
}
