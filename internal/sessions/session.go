// Package sessions persists completed assistant exchanges for later review.
//
// A session spans one conversation: the capture or question that started it
// and every follow-up until the next fresh request closes it.
package sessions

import (
	"strings"
	"time"

	"github.com/dohr-michael/sidekick/internal/conversation"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// ImagePlaceholder stands in for screenshot bytes in persisted records.
const ImagePlaceholder = "[screenshot]"

const maxTitleRunes = 60

// Session is the meta.json of one conversation. Kind and Model come from the
// exchange that opened it; Modes lists every prompt mode used, in order.
type Session struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Status    SessionStatus `json:"status"`
	Kind      string        `json:"kind"`
	Model     string        `json:"model"`
	Modes     []string      `json:"modes"`
	Exchanges int           `json:"exchanges"`
	ModelTime time.Duration `json:"model_time_ns"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	ClosedAt  *time.Time    `json:"closed_at,omitempty"`
}

// Mode returns the prompt mode the session started in.
func (s *Session) Mode() string {
	if len(s.Modes) == 0 {
		return ""
	}
	return s.Modes[0]
}

func (s *Session) addMode(mode string) {
	for _, m := range s.Modes {
		if m == mode {
			return
		}
	}
	s.Modes = append(s.Modes, mode)
}

// Exchange is one completed request: the user turn and the committed reply.
type Exchange struct {
	Kind     string
	Mode     string
	Model    string
	User     conversation.Turn
	Reply    string
	Duration time.Duration
}

// Record is one line of exchanges.jsonl.
type Record struct {
	Seq      int           `json:"seq"`
	Kind     string        `json:"kind"`
	Mode     string        `json:"mode"`
	Model    string        `json:"model,omitempty"`
	Image    bool          `json:"image,omitempty"`
	Question string        `json:"question"`
	Reply    string        `json:"reply"`
	Duration time.Duration `json:"duration_ns"`
	At       time.Time     `json:"at"`
}

// newRecord flattens an exchange. Image parts become ImagePlaceholder lines.
func newRecord(ex Exchange, seq int, at time.Time) Record {
	var lines []string
	for _, p := range ex.User.Parts {
		if p.Kind == conversation.PartImage {
			lines = append(lines, ImagePlaceholder)
			continue
		}
		lines = append(lines, p.Text)
	}
	return Record{
		Seq:      seq,
		Kind:     ex.Kind,
		Mode:     ex.Mode,
		Model:    ex.Model,
		Image:    ex.User.HasImage(),
		Question: strings.Join(lines, "\n"),
		Reply:    ex.Reply,
		Duration: ex.Duration,
		At:       at,
	}
}

// titleFor derives a session title from the opening exchange.
func titleFor(ex Exchange) string {
	text := strings.Join(strings.Fields(ex.User.Text()), " ")
	if ex.User.HasImage() || text == "" {
		return "Screenshot (" + ex.Mode + ")"
	}
	r := []rune(text)
	if len(r) > maxTitleRunes {
		return string(r[:maxTitleRunes]) + "…"
	}
	return text
}

// Store persists sessions exchange by exchange.
type Store interface {
	// RecordExchange appends ex to sessionID, or opens a new session when
	// sessionID is empty, and returns the session ID.
	RecordExchange(sessionID string, ex Exchange) (string, error)
	Close(id string) error
	Get(id string) (*Session, error)
	List() ([]*Session, error)
	Exchanges(id string) ([]Record, error)
}
