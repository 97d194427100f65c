package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/dohr-michael/sidekick/internal/config"
)

// New creates a Gateway from a provider config.
func New(ctx context.Context, cfg config.ProviderConfig) (Gateway, error) {
	driver := strings.ToLower(cfg.Driver)
	switch driver {
	case "bedrock":
		return NewBedrock(ctx, cfg)
	case "ollama":
		return NewOllama(ctx, cfg)
	case "anthropic", "openai", "mistral", "gemini":
	default:
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	auth, err := ResolveAuth(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve auth: %w", err)
	}

	switch driver {
	case "anthropic":
		return NewAnthropic(ctx, cfg, auth)
	case "openai":
		return NewOpenAI(ctx, cfg, auth)
	case "mistral":
		return NewMistral(ctx, cfg, auth)
	default:
		return NewGemini(ctx, cfg, auth)
	}
}
