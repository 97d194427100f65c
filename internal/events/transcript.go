package events

import "strings"

// Transcript rebuilds the visible output pane from surface events.
// It is not safe for concurrent use.
type Transcript struct {
	b strings.Builder
}

// Apply folds one event into the transcript. It reports whether the event
// changed the text.
func (t *Transcript) Apply(e Event) bool {
	switch e.Type {
	case EventClear:
		t.b.Reset()
		return true
	case EventToken:
		p, ok := GetTokenPayload(e)
		if !ok {
			return false
		}
		t.b.WriteString(p.Text)
		return true
	}
	return false
}

// String returns the accumulated text.
func (t *Transcript) String() string {
	return t.b.String()
}
