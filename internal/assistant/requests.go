package assistant

import (
	"github.com/dohr-michael/sidekick/internal/conversation"
	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/prompts"
)

// Request is one call to the model gateway: the system prompt, the full message
// list, and the user turn that was added to the conversation for it.
type Request struct {
	Kind   events.RequestKind
	Mode   string
	System string
	Turns  []conversation.Turn
	User   conversation.Turn
}

// ImageRequest builds a fresh single-turn request around a captured image.
func ImageRequest(mode prompts.Mode, png []byte) Request {
	user := conversation.UserTurn(
		conversation.ImagePart(png),
		conversation.TextPart(prompts.ImageInstruction),
	)
	return Request{
		Kind:   events.RequestImage,
		Mode:   mode.Name,
		System: mode.ImagePrompt,
		Turns:  []conversation.Turn{user},
		User:   user,
	}
}

// TextRequest builds a fresh single-turn request around supplied text.
func TextRequest(mode prompts.Mode, text string) Request {
	user := conversation.UserTurn(conversation.TextPart(text))
	return Request{
		Kind:   events.RequestText,
		Mode:   mode.Name,
		System: mode.TextPrompt,
		Turns:  []conversation.Turn{user},
		User:   user,
	}
}

// FollowUpRequest resends history with the question appended as a new user turn.
// history is not modified.
func FollowUpRequest(followUpPrompt string, history []conversation.Turn, question string) Request {
	user := conversation.UserTurn(conversation.TextPart(question))
	turns := make([]conversation.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, user)
	return Request{
		Kind:   events.RequestFollowUp,
		System: followUpPrompt,
		Turns:  turns,
		User:   user,
	}
}
