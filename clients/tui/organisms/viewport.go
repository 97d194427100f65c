package organisms

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/dohr-michael/sidekick/clients/tui/atoms"
)

// OutputViewport shows the streamed answer. Text is plain while streaming
// and rendered as markdown once the request is done.
type OutputViewport struct {
	viewport  viewport.Model
	content   strings.Builder
	streaming bool
	cursor    atoms.ReplyCursor
	width     int
	height    int
	cached    string // rendered markdown for the current width
	cachedW   int
}

// NewOutputViewport creates the output pane.
func NewOutputViewport(width, height int, cursor atoms.ReplyCursor) OutputViewport {
	vp := viewport.New(width, height)
	vp.SetContent("")
	// Scroll is handled explicitly via PageUp/PageDown in the app.
	vp.KeyMap = viewport.KeyMap{}
	vp.MouseWheelEnabled = false
	return OutputViewport{
		viewport: vp,
		cursor:   cursor,
		width:    width,
		height:   height,
	}
}

// SetSize updates the viewport dimensions.
func (o *OutputViewport) SetSize(width, height int) {
	o.width = width
	o.height = height
	o.viewport.Width = width
	o.viewport.Height = height
	o.refresh()
}

// Append adds a streamed fragment.
func (o *OutputViewport) Append(text string) {
	if o.streaming && text != "" {
		o.cursor.Writing()
	}
	o.content.WriteString(text)
	o.cached = ""
	o.refresh()
}

// Clear empties the pane.
func (o *OutputViewport) Clear() {
	o.content.Reset()
	o.cached = ""
	o.refresh()
}

// SetStreaming toggles plain rendering with a trailing cursor. The returned
// command drives the cursor blink.
func (o *OutputViewport) SetStreaming(streaming bool) tea.Cmd {
	var cmd tea.Cmd
	if streaming {
		cmd = o.cursor.Start()
	} else {
		o.cursor.Stop()
	}
	o.streaming = streaming
	o.cached = ""
	o.refresh()
	return cmd
}

// CursorPhase reports the reply cursor phase.
func (o *OutputViewport) CursorPhase() atoms.CursorPhase {
	return o.cursor.Phase()
}

// Content returns the raw transcript text.
func (o *OutputViewport) Content() string {
	return o.content.String()
}

// PageUp scrolls up by one page.
func (o *OutputViewport) PageUp() {
	o.viewport.PageUp()
}

// PageDown scrolls down by one page.
func (o *OutputViewport) PageDown() {
	o.viewport.PageDown()
}

func (o *OutputViewport) refresh() {
	text := o.content.String()
	if o.streaming {
		o.viewport.SetContent(text + o.cursor.View())
	} else {
		o.viewport.SetContent(o.render(text))
	}
	o.viewport.GotoBottom()
}

func (o *OutputViewport) render(text string) string {
	if text == "" {
		return ""
	}
	if o.cached != "" && o.cachedW == o.width {
		return o.cached
	}

	w := o.width - 2
	if w < 20 {
		w = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(w),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}

	o.cached = strings.TrimRight(out, "\n")
	o.cachedW = o.width
	return o.cached
}

// Update handles cursor blinks and viewport messages.
func (o OutputViewport) Update(msg tea.Msg) (OutputViewport, tea.Cmd) {
	if _, ok := msg.(atoms.CursorBlinkMsg); ok {
		var cmd tea.Cmd
		o.cursor, cmd = o.cursor.Update(msg)
		if cmd != nil {
			o.refresh()
		}
		return o, cmd
	}
	var cmd tea.Cmd
	o.viewport, cmd = o.viewport.Update(msg)
	return o, cmd
}

// View renders the viewport.
func (o OutputViewport) View() string {
	return o.viewport.View()
}
