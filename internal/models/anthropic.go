package models

import (
	"context"
	"encoding/base64"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/conversation"
)

const defaultAnthropicModel = "claude-haiku-4-5"

// AnthropicGateway streams replies through Anthropic's Messages API.
type AnthropicGateway struct {
	client    anthropic.Client
	modelName string
	maxTokens int
}

// NewAnthropic creates a gateway against the Anthropic API.
func NewAnthropic(_ context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (*AnthropicGateway, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultAnthropicModel
	}

	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}

	// API key auth (x-api-key header) vs Bearer token auth (Authorization header)
	switch auth.Kind {
	case AuthBearerToken:
		opts = append(opts, option.WithAuthToken(auth.Value))
	default:
		opts = append(opts, option.WithAPIKey(auth.Value))
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		opts = append(opts, option.WithRequestTimeout(d))
	}

	return &AnthropicGateway{
		client:    anthropic.NewClient(opts...),
		modelName: modelName,
		maxTokens: maxTokensOr(cfg.MaxTokens),
	}, nil
}

func (g *AnthropicGateway) Name() string {
	return "anthropic/" + g.modelName
}

func (g *AnthropicGateway) Stream(ctx context.Context, system string, turns []conversation.Turn) (*Stream, error) {
	if err := ValidateTurns(turns); err != nil {
		return nil, err
	}
	params := g.buildParams(system, turns, g.maxTokens)

	produce := func(ctx context.Context, emit func(string) bool) error {
		stream := g.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			if event.Type != "content_block_delta" {
				continue
			}
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			if !emit(event.Delta.Text) {
				return nil
			}
		}
		return stream.Err()
	}
	return NewStream(ctx, g.Name(), instrument(g.Name(), system, turns, produce)), nil
}

func (g *AnthropicGateway) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := g.client.Messages.New(ctx, g.buildParams("", probeTurns(), probeMaxTokens))
	return probeError(g.Name(), err)
}

func (g *AnthropicGateway) buildParams(system string, turns []conversation.Turn, maxTokens int) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.modelName),
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, toAnthropicMessage(t))
	}
	params.Messages = msgs
	return params
}

func toAnthropicMessage(t conversation.Turn) anthropic.MessageParam {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(t.Parts))
	for _, p := range t.Parts {
		switch p.Kind {
		case conversation.PartImage:
			blocks = append(blocks, anthropic.NewImageBlockBase64("image/"+p.Format, base64.StdEncoding.EncodeToString(p.Data)))
		default:
			blocks = append(blocks, anthropic.NewTextBlock(wireText(t.Role, p.Text)))
		}
	}
	if t.Role == conversation.RoleAssistant {
		return anthropic.NewAssistantMessage(blocks...)
	}
	return anthropic.NewUserMessage(blocks...)
}

var _ Gateway = (*AnthropicGateway)(nil)
