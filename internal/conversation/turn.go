// Package conversation holds the turn records exchanged with a model.
package conversation

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind distinguishes text from inline image content.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// ImageFormatPNG is the only image encoding produced by the capture layer.
const ImageFormatPNG = "png"

// ErrEmptyTurn is returned when a turn carries no content parts.
var ErrEmptyTurn = errors.New("turn has no content")

// Part is a single piece of turn content: either text or raw image bytes.
type Part struct {
	Kind   PartKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Format string   `json:"format,omitempty"`
	Data   []byte   `json:"data,omitempty"`
}

// TextPart builds a text content part.
func TextPart(s string) Part {
	return Part{Kind: PartText, Text: s}
}

// ImagePart builds a PNG image content part from decoded bytes.
func ImagePart(png []byte) Part {
	return Part{Kind: PartImage, Format: ImageFormatPNG, Data: png}
}

// Turn is one message in a conversation.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// UserTurn builds a user turn from the given parts.
func UserTurn(parts ...Part) Turn {
	return Turn{Role: RoleUser, Parts: parts}
}

// AssistantTurn builds an assistant turn holding the full reply text.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Parts: []Part{TextPart(text)}}
}

// Validate checks the turn invariants.
func (t Turn) Validate() error {
	if t.Role != RoleUser && t.Role != RoleAssistant {
		return fmt.Errorf("invalid role %q", t.Role)
	}
	if len(t.Parts) == 0 {
		return ErrEmptyTurn
	}
	for i, p := range t.Parts {
		switch p.Kind {
		case PartText:
		case PartImage:
			if len(p.Data) == 0 {
				return fmt.Errorf("part %d: image has no data", i)
			}
		default:
			return fmt.Errorf("part %d: unknown kind %q", i, p.Kind)
		}
	}
	return nil
}

// Text concatenates the text parts of the turn.
func (t Turn) Text() string {
	var b strings.Builder
	for _, p := range t.Parts {
		if p.Kind == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// HasImage reports whether the turn carries an image part.
func (t Turn) HasImage() bool {
	for _, p := range t.Parts {
		if p.Kind == PartImage {
			return true
		}
	}
	return false
}
