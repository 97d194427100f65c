package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/sidekick/internal/events"
)

// Project converts a bus event into a typed tea.Msg.
// Returns nil for events that don't map to a TUI message.
func Project(e events.Event) tea.Msg {
	switch e.Type {
	case events.EventStatus:
		if p, ok := events.GetStatusPayload(e); ok {
			return StatusMsg{Text: p.Text}
		}
	case events.EventToken:
		if p, ok := events.GetTokenPayload(e); ok {
			return TokenMsg{Text: p.Text}
		}
	case events.EventClear:
		return ClearMsg{}
	case events.EventMode:
		if p, ok := events.GetModePayload(e); ok {
			return ModeMsg{Name: p.Name}
		}
	case events.EventRequestStarted:
		if p, ok := events.ExtractPayload[events.RequestStartedPayload](e); ok {
			return RequestStartedMsg{Kind: p.Kind, Model: p.Model}
		}
	case events.EventRequestCompleted:
		if p, ok := events.GetRequestCompletedPayload(e); ok {
			return RequestDoneMsg{Kind: p.Kind, Duration: p.Duration, Error: p.Error}
		}
	}
	return nil
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Attach forwards surface events from the bus to the program in publish
// order. The returned function detaches it.
func Attach(bus *events.Bus, p Sender) func() {
	return bus.Subscribe(func(e events.Event) {
		if msg := Project(e); msg != nil {
			p.Send(msg)
		}
	},
		events.EventStatus,
		events.EventToken,
		events.EventClear,
		events.EventMode,
		events.EventRequestStarted,
		events.EventRequestCompleted,
	)
}
