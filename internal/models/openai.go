package models

import (
	"context"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/dohr-michael/sidekick/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// NewOpenAI creates a gateway against the OpenAI chat completions API.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (*EinoGateway, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultOpenAIModel
	}

	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: auth.Value,
		Model:  modelName,
	}

	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}

	maxTokens := maxTokensOr(cfg.MaxTokens)
	modelConfig.MaxCompletionTokens = &maxTokens

	if d := cfg.Timeout.Duration(); d > 0 {
		modelConfig.Timeout = d
	}

	if cfg.Options != nil {
		if temp, ok := cfg.Options["temperature"].(float64); ok {
			t := float32(temp)
			modelConfig.Temperature = &t
		}
	}

	m, err := einoopenai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, err
	}
	return NewEinoGateway("openai/"+modelName, m, maxTokens), nil
}
