package models

import (
	"context"
	"encoding/base64"
	"errors"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/sidekick/internal/conversation"
)

// EinoGateway adapts an eino chat model to the Gateway contract.
type EinoGateway struct {
	name      string
	model     model.BaseChatModel
	maxTokens int
}

// NewEinoGateway wraps a chat model. name is used for status lines and errors.
func NewEinoGateway(name string, m model.BaseChatModel, maxTokens int) *EinoGateway {
	return &EinoGateway{name: name, model: m, maxTokens: maxTokensOr(maxTokens)}
}

func (g *EinoGateway) Name() string {
	return g.name
}

func (g *EinoGateway) Stream(ctx context.Context, system string, turns []conversation.Turn) (*Stream, error) {
	if err := ValidateTurns(turns); err != nil {
		return nil, err
	}
	msgs := toSchemaMessages(system, turns)

	return NewStream(withCallbacks(ctx, g.name), g.name, func(ctx context.Context, emit func(string) bool) error {
		sr, err := g.model.Stream(ctx, msgs, model.WithMaxTokens(g.maxTokens))
		if err != nil {
			return err
		}
		defer sr.Close()

		for {
			msg, err := sr.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if msg == nil || msg.Content == "" {
				continue
			}
			if !emit(msg.Content) {
				return nil
			}
		}
	}), nil
}

func (g *EinoGateway) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(withCallbacks(ctx, g.name), probeTimeout)
	defer cancel()

	_, err := g.model.Generate(ctx, toSchemaMessages("", probeTurns()), model.WithMaxTokens(probeMaxTokens))
	return probeError(g.name, err)
}

func toSchemaMessages(system string, turns []conversation.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, schema.SystemMessage(system))
	}
	for _, t := range turns {
		msgs = append(msgs, toSchemaMessage(t))
	}
	return msgs
}

func toSchemaMessage(t conversation.Turn) *schema.Message {
	if t.Role == conversation.RoleAssistant {
		return schema.AssistantMessage(wireText(t.Role, t.Text()), nil)
	}
	if !t.HasImage() {
		return schema.UserMessage(t.Text())
	}

	parts := make([]schema.MessageInputPart, 0, len(t.Parts))
	for _, p := range t.Parts {
		switch p.Kind {
		case conversation.PartImage:
			data := base64.StdEncoding.EncodeToString(p.Data)
			parts = append(parts, schema.MessageInputPart{
				Type: schema.ChatMessagePartTypeImageURL,
				Image: &schema.MessageInputImage{
					MessagePartCommon: schema.MessagePartCommon{
						Base64Data: &data,
						MIMEType:   "image/" + p.Format,
					},
				},
			})
		default:
			parts = append(parts, schema.MessageInputPart{
				Type: schema.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
	}
	return &schema.Message{Role: schema.User, UserInputMultiContent: parts}
}

var _ Gateway = (*EinoGateway)(nil)
