package models

import (
	"context"
	"fmt"

	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/dohr-michael/sidekick/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// NewGemini creates a gateway against the Gemini API.
func NewGemini(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (*EinoGateway, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  auth.Value,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	maxTokens := maxTokensOr(cfg.MaxTokens)
	m, err := einogemini.NewChatModel(ctx, &einogemini.Config{
		Client:    client,
		Model:     modelName,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, err
	}
	return NewEinoGateway("gemini/"+modelName, m, maxTokens), nil
}
