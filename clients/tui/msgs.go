package tui

import (
	"time"

	"github.com/dohr-michael/sidekick/internal/events"
)

// StatusMsg replaces the status line.
type StatusMsg struct {
	Text string
}

// TokenMsg carries a streamed fragment or a marker token.
type TokenMsg struct {
	Text string
}

// ClearMsg empties the output pane.
type ClearMsg struct{}

// ModeMsg signals a prompt mode change.
type ModeMsg struct {
	Name string
}

// RequestStartedMsg signals that a request is in flight.
type RequestStartedMsg struct {
	Kind  events.RequestKind
	Model string
}

// RequestDoneMsg signals the end of a request.
type RequestDoneMsg struct {
	Kind     events.RequestKind
	Duration time.Duration
	Error    string
}

// savedMsg reports the outcome of a transcript save.
type savedMsg struct {
	path string
	err  error
}

// copiedMsg reports the outcome of a clipboard copy.
type copiedMsg struct {
	err error
}

// restoreStatusMsg resets a transient status line. seq guards against
// restoring over a newer status.
type restoreStatusMsg struct {
	seq int
}
