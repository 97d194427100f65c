package atoms

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const blinkInterval = 500 * time.Millisecond

// CursorPhase is where the reply cursor is in a request.
type CursorPhase int

const (
	CursorOff     CursorPhase = iota
	CursorWaiting             // request sent, no fragment yet
	CursorWriting             // fragments arriving
)

// CursorBlinkMsg toggles the reply cursor. Gen ties it to one request so
// blinks from an earlier request stop.
type CursorBlinkMsg struct {
	Gen int
}

// ReplyCursor trails the streamed reply: a dim bar while waiting for the
// model, a solid block while text arrives.
type ReplyCursor struct {
	phase   CursorPhase
	gen     int
	visible bool
	waiting lipgloss.Style
	writing lipgloss.Style
}

// NewReplyCursor creates an idle cursor.
func NewReplyCursor(waiting, writing lipgloss.AdaptiveColor) ReplyCursor {
	return ReplyCursor{
		waiting: lipgloss.NewStyle().Foreground(waiting),
		writing: lipgloss.NewStyle().Foreground(writing),
	}
}

// Start moves the cursor to waiting and begins a new blink chain.
func (c *ReplyCursor) Start() tea.Cmd {
	c.gen++
	c.phase = CursorWaiting
	c.visible = true
	return c.blink()
}

// Writing marks the first fragment as received.
func (c *ReplyCursor) Writing() {
	if c.phase == CursorWaiting {
		c.phase = CursorWriting
	}
}

// Stop hides the cursor. Pending blinks are dropped on arrival.
func (c *ReplyCursor) Stop() {
	c.gen++
	c.phase = CursorOff
}

// Phase reports the current phase.
func (c ReplyCursor) Phase() CursorPhase { return c.phase }

// Update toggles visibility on blinks of the current chain.
func (c ReplyCursor) Update(msg tea.Msg) (ReplyCursor, tea.Cmd) {
	b, ok := msg.(CursorBlinkMsg)
	if !ok || b.Gen != c.gen || c.phase == CursorOff {
		return c, nil
	}
	c.visible = !c.visible
	return c, c.blink()
}

func (c ReplyCursor) blink() tea.Cmd {
	gen := c.gen
	return tea.Tick(blinkInterval, func(time.Time) tea.Msg {
		return CursorBlinkMsg{Gen: gen}
	})
}

// View renders the cursor glyph, or nothing when idle.
func (c ReplyCursor) View() string {
	switch {
	case c.phase == CursorOff:
		return ""
	case !c.visible:
		return " "
	case c.phase == CursorWaiting:
		return c.waiting.Render("▏") // left one-eighth block
	default:
		return c.writing.Render("█")
	}
}
