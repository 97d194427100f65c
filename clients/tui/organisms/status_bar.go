package organisms

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/sidekick/clients/tui/atoms"
)

// StatusBar displays the prompt mode, model and the assistant status line.
type StatusBar struct {
	promptMode string
	model      string
	status     string
	mode       Mode
	activity   atoms.Activity
	width      int
	style      lipgloss.Style
	modeStyle  lipgloss.Style
}

// NewStatusBar creates a new status bar.
func NewStatusBar(style, modeStyle lipgloss.Style, activity atoms.Activity) StatusBar {
	return StatusBar{
		style:     style,
		modeStyle: modeStyle,
		activity:  activity,
	}
}

// SetPromptMode updates the displayed prompt mode.
func (p *StatusBar) SetPromptMode(name string) { p.promptMode = name }

// SetModel updates the model label.
func (p *StatusBar) SetModel(model string) { p.model = model }

// SetStatus updates the status text.
func (p *StatusBar) SetStatus(text string) { p.status = text }

// SetMode updates the displayed interaction mode.
func (p *StatusBar) SetMode(mode Mode) { p.mode = mode }

// SetWidth updates the rendering width.
func (p *StatusBar) SetWidth(w int) { p.width = w }

// PromptMode returns the displayed prompt mode.
func (p *StatusBar) PromptMode() string { return p.promptMode }

// Status returns the status text.
func (p *StatusBar) Status() string { return p.status }

// SetActivity picks the in-flight indicator for the next request.
func (p *StatusBar) SetActivity(kind atoms.ActivityKind) tea.Cmd {
	return p.activity.SetKind(kind)
}

// Init returns the indicator tick command.
func (p StatusBar) Init() tea.Cmd {
	return p.activity.Init()
}

// Update advances the indicator.
func (p StatusBar) Update(msg tea.Msg) (StatusBar, tea.Cmd) {
	var cmd tea.Cmd
	p.activity, cmd = p.activity.Update(msg)
	return p, cmd
}

// View renders the status bar.
func (p StatusBar) View() string {
	lead := ""
	if p.mode == ModeStreaming {
		lead = p.activity.View() + " |"
	}

	modelStr := ""
	if p.model != "" {
		modelStr = " | " + p.model
	}

	hidden := ""
	if p.mode == ModeHidden {
		hidden = " | hidden"
	}

	bar := fmt.Sprintf("%s %s %s%s%s", lead, p.modeStyle.Render("["+p.promptMode+"]"), p.status, modelStr, hidden)
	return p.style.Width(p.width).Render(bar)
}
