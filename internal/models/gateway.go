// Package models wraps hosted chat/vision model APIs behind a single streaming gateway.
package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dohr-michael/sidekick/internal/conversation"
)

const (
	// DefaultMaxTokens bounds every reply. It is fixed per provider, never per call.
	DefaultMaxTokens = 2048

	probeText      = "hi"
	probeMaxTokens = 1
	probeTimeout   = 30 * time.Second
)

// ErrEmptyMessages is returned when a request carries no turns.
var ErrEmptyMessages = errors.New("request has no messages")

// Gateway issues streaming requests against one configured model.
// Implementations are stateless across calls.
type Gateway interface {
	// Name identifies the provider and model for status lines.
	Name() string

	// Stream sends the system prompt and turns and returns the reply as fragments.
	// Only validation failures are returned directly; transport and service failures
	// surface through the stream's Err.
	Stream(ctx context.Context, system string, turns []conversation.Turn) (*Stream, error)

	// Probe issues a one-token request to validate credentials and connectivity.
	// Failures are reported as *ConnectivityError.
	Probe(ctx context.Context) error
}

// ValidateTurns checks request invariants before any network call.
func ValidateTurns(turns []conversation.Turn) error {
	if len(turns) == 0 {
		return ErrEmptyMessages
	}
	for i, t := range turns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return nil
}

// EmptyReplyText is sent in place of a blank committed reply. Bedrock and
// Anthropic reject text blocks without non-whitespace content.
const EmptyReplyText = "(empty reply)"

// wireText is the text sent for a text part of a turn with the given role.
func wireText(role conversation.Role, text string) string {
	if role == conversation.RoleAssistant && strings.TrimSpace(text) == "" {
		return EmptyReplyText
	}
	return text
}

func probeTurns() []conversation.Turn {
	return []conversation.Turn{conversation.UserTurn(conversation.TextPart(probeText))}
}

func maxTokensOr(v int) int {
	if v > 0 {
		return v
	}
	return DefaultMaxTokens
}
