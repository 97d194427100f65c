// Package molecules provides mid-level TUI components.
package molecules

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SubmitMsg is sent when the user presses Enter on a non-blank question.
type SubmitMsg struct {
	Content string
}

// QuestionInput is a single-line input for follow-up questions, with
// Up/Down recall of previous questions.
type QuestionInput struct {
	input   textinput.Model
	history []string
	histIdx int
	draft   string
}

// NewQuestionInput creates the follow-up input.
func NewQuestionInput(placeholder string) QuestionInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	return QuestionInput{
		input:   ti,
		histIdx: -1,
	}
}

// SetWidth sets the input width.
func (c *QuestionInput) SetWidth(w int) {
	c.input.Width = w - len(c.input.Prompt) - 1
}

// SetPlaceholder replaces the placeholder text.
func (c *QuestionInput) SetPlaceholder(s string) {
	c.input.Placeholder = s
}

// Value returns the current input text.
func (c *QuestionInput) Value() string {
	return c.input.Value()
}

// Reset clears the input.
func (c *QuestionInput) Reset() {
	c.input.Reset()
	c.histIdx = -1
	c.draft = ""
}

// Update handles key events. Enter submits.
func (c QuestionInput) Update(msg tea.Msg) (QuestionInput, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			content := strings.TrimSpace(c.input.Value())
			if content == "" {
				return c, nil
			}
			c.history = append(c.history, content)
			c.Reset()
			return c, func() tea.Msg { return SubmitMsg{Content: content} }

		case tea.KeyUp:
			if len(c.history) == 0 {
				return c, nil
			}
			if c.histIdx == -1 {
				c.draft = c.input.Value()
				c.histIdx = len(c.history) - 1
			} else if c.histIdx > 0 {
				c.histIdx--
			}
			c.input.SetValue(c.history[c.histIdx])
			c.input.CursorEnd()
			return c, nil

		case tea.KeyDown:
			if c.histIdx == -1 {
				return c, nil
			}
			if c.histIdx < len(c.history)-1 {
				c.histIdx++
				c.input.SetValue(c.history[c.histIdx])
			} else {
				c.histIdx = -1
				c.input.SetValue(c.draft)
			}
			c.input.CursorEnd()
			return c, nil
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the input.
func (c QuestionInput) View() string {
	return c.input.View()
}
