// Package atoms provides low-level TUI building blocks.
package atoms

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ActivityKind selects the indicator pattern.
type ActivityKind int

const (
	ActivityAsk     ActivityKind = iota // text or follow-up question
	ActivityCapture                     // screenshot on its way to the model
)

var activityFrames = map[ActivityKind]spinner.Spinner{
	ActivityAsk:     spinner.MiniDot,
	ActivityCapture: spinner.Pulse,
}

var activityLabels = map[ActivityKind]string{
	ActivityAsk:     "thinking",
	ActivityCapture: "reading screen",
}

// Activity is the in-flight indicator of the status bar.
type Activity struct {
	kind  ActivityKind
	model spinner.Model
	style lipgloss.Style
}

// NewActivity creates an indicator for questions.
func NewActivity(color lipgloss.AdaptiveColor) Activity {
	a := Activity{style: lipgloss.NewStyle().Foreground(color)}
	a.model = a.spinnerFor(ActivityAsk)
	return a
}

func (a Activity) spinnerFor(kind ActivityKind) spinner.Model {
	return spinner.New(spinner.WithSpinner(activityFrames[kind]), spinner.WithStyle(a.style))
}

// SetKind switches the pattern. A fresh spinner ignores ticks of the old
// one, so the returned command restarts the animation.
func (a *Activity) SetKind(kind ActivityKind) tea.Cmd {
	if kind == a.kind {
		return nil
	}
	a.kind = kind
	a.model = a.spinnerFor(kind)
	return a.model.Tick
}

// Kind reports the current pattern.
func (a Activity) Kind() ActivityKind { return a.kind }

// Init returns the tick command.
func (a Activity) Init() tea.Cmd {
	return a.model.Tick
}

// Update advances the animation.
func (a Activity) Update(msg tea.Msg) (Activity, tea.Cmd) {
	var cmd tea.Cmd
	a.model, cmd = a.model.Update(msg)
	return a, cmd
}

// View renders the current frame followed by its label.
func (a Activity) View() string {
	return a.model.View() + " " + a.style.Render(activityLabels[a.kind])
}
