package models

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/conversation"
)

// bedrockModelPrefixes are the inference-profile prefixes a Claude model id is
// expected to carry on Bedrock.
var bedrockModelPrefixes = []string{"anthropic.claude", "us.anthropic.claude"}

// bedrockAPI is the subset of the Bedrock Runtime client used by the gateway.
type bedrockAPI interface {
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockGateway streams replies through the Bedrock Converse API.
type BedrockGateway struct {
	client    bedrockAPI
	modelID   string
	maxTokens int32
}

// NewBedrock loads the AWS shared configuration for the given profile and region
// and creates a gateway. Throttling and transient faults are retried by the SDK
// in adaptive mode.
func NewBedrock(ctx context.Context, cfg config.ProviderConfig) (*BedrockGateway, error) {
	modelID := cfg.Model
	if modelID == "" {
		modelID = config.DefaultBedrockModel
	}
	if !hasBedrockPrefix(modelID) {
		slog.Warn("bedrock model id has an unexpected prefix", "model", modelID, "expected", bedrockModelPrefixes)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMode(aws.RetryModeAdaptive),
		awsconfig.WithRetryMaxAttempts(cfg.MaxRetries),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*bedrockruntime.Options)
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.BaseURL)
		})
	}

	return newBedrockGateway(bedrockruntime.NewFromConfig(awsCfg, clientOpts...), modelID, cfg.MaxTokens), nil
}

func newBedrockGateway(client bedrockAPI, modelID string, maxTokens int) *BedrockGateway {
	return &BedrockGateway{
		client:    client,
		modelID:   modelID,
		maxTokens: int32(maxTokensOr(maxTokens)),
	}
}

func (g *BedrockGateway) Name() string {
	return "bedrock/" + g.modelID
}

func (g *BedrockGateway) Stream(ctx context.Context, system string, turns []conversation.Turn) (*Stream, error) {
	if err := ValidateTurns(turns); err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:         aws.String(g.modelID),
		Messages:        toBedrockMessages(turns),
		System:          toBedrockSystem(system),
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: aws.Int32(g.maxTokens)},
	}

	produce := func(ctx context.Context, emit func(string) bool) error {
		out, err := g.client.ConverseStream(ctx, input)
		if err != nil {
			return err
		}
		stream := out.GetStream()
		defer stream.Close()

		for event := range stream.Events() {
			text, ok := bedrockDelta(event)
			if !ok {
				continue
			}
			if !emit(text) {
				return nil
			}
		}
		return stream.Err()
	}
	return NewStream(ctx, g.Name(), instrument(g.Name(), system, turns, produce)), nil
}

func (g *BedrockGateway) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := g.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(g.modelID),
		Messages:        toBedrockMessages(probeTurns()),
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: aws.Int32(probeMaxTokens)},
	})
	return probeError(g.Name(), err)
}

// bedrockDelta extracts the text of a content block delta event.
// Every other event kind is ignored.
func bedrockDelta(event types.ConverseStreamOutput) (string, bool) {
	delta, ok := event.(*types.ConverseStreamOutputMemberContentBlockDelta)
	if !ok {
		return "", false
	}
	text, ok := delta.Value.Delta.(*types.ContentBlockDeltaMemberText)
	if !ok || text.Value == "" {
		return "", false
	}
	return text.Value, true
}

func toBedrockSystem(system string) []types.SystemContentBlock {
	if system == "" {
		return nil
	}
	return []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: system}}
}

func toBedrockMessages(turns []conversation.Turn) []types.Message {
	msgs := make([]types.Message, 0, len(turns))
	for _, t := range turns {
		role := types.ConversationRoleUser
		if t.Role == conversation.RoleAssistant {
			role = types.ConversationRoleAssistant
		}

		content := make([]types.ContentBlock, 0, len(t.Parts))
		for _, p := range t.Parts {
			switch p.Kind {
			case conversation.PartImage:
				content = append(content, &types.ContentBlockMemberImage{Value: types.ImageBlock{
					Format: types.ImageFormat(p.Format),
					Source: &types.ImageSourceMemberBytes{Value: p.Data},
				}})
			default:
				content = append(content, &types.ContentBlockMemberText{Value: wireText(t.Role, p.Text)})
			}
		}
		msgs = append(msgs, types.Message{Role: role, Content: content})
	}
	return msgs
}

func hasBedrockPrefix(modelID string) bool {
	for _, prefix := range bedrockModelPrefixes {
		if strings.HasPrefix(modelID, prefix) {
			return true
		}
	}
	return false
}

var _ Gateway = (*BedrockGateway)(nil)
