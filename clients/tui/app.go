package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/sidekick/clients/tui/atoms"
	"github.com/dohr-michael/sidekick/clients/tui/molecules"
	"github.com/dohr-michael/sidekick/clients/tui/organisms"
	"github.com/dohr-michael/sidekick/internal/capture"
	"github.com/dohr-michael/sidekick/internal/conversation"
	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/prompts"
	"github.com/dohr-michael/sidekick/internal/transcript"
)

// transientStatus is how long copy/save confirmations stay on screen.
const transientStatus = 2 * time.Second

// Controller is the part of the assistant the TUI drives.
type Controller interface {
	CaptureScreen() bool
	CaptureRegion() bool
	CaptureClipboard() bool
	TriggerText(text string) bool
	TriggerFollowUp(question string) bool
	CycleMode() prompts.Mode
	Mode() prompts.Mode
	Model() string
	Conversation() []conversation.Turn
}

// Options tunes the TUI.
type Options struct {
	// SaveDir receives saved transcripts. Empty means the Desktop.
	SaveDir string
	// Copy writes text to the clipboard. Defaults to the system clipboard.
	Copy func(string) error
	Now  func() time.Time
	Keys *KeyMap
	// OnSaved is called with the path of each saved transcript.
	OnSaved func(path string)
}

// App is the main TUI application model.
// Layout: OUTPUT | INPUT | STATUS | HELP
type App struct {
	output organisms.OutputViewport
	input  molecules.QuestionInput
	status organisms.StatusBar
	help   help.Model
	keys   KeyMap

	width     int
	height    int
	streaming bool
	hidden    bool
	statusSeq int

	ctl     Controller
	saveDir string
	copy    func(string) error
	now     func() time.Time
	onSaved func(string)
}

// NewApp creates a new TUI application.
func NewApp(ctl Controller, opts Options) *App {
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = capture.WriteClipboard
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	status := organisms.NewStatusBar(StatusBarStyle, ModeStyle, atoms.NewActivity(ColorAccent))
	status.SetPromptMode(ctl.Mode().Name)
	status.SetModel(ctl.Model())

	h := help.New()
	h.Styles.ShortKey = MutedStyle
	h.Styles.ShortDesc = MutedStyle

	a := &App{
		output:  organisms.NewOutputViewport(80, 20, atoms.NewReplyCursor(ColorMuted, ColorAccent)),
		input:   molecules.NewQuestionInput("Ask a follow-up..."),
		status:  status,
		help:    h,
		keys:    keys,
		ctl:     ctl,
		saveDir: opts.SaveDir,
		copy:    copyFn,
		now:     now,
		onSaved: opts.OnSaved,
	}
	a.status.SetStatus(a.defaultStatus())
	return a
}

// Init initializes the application.
func (a *App) Init() tea.Cmd {
	return a.status.Init()
}

// Update handles messages and updates state. Assistant calls run in commands
// so Update never waits on the event bus.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case molecules.SubmitMsg:
		return a, a.ask(msg.Content)

	// --- surface events ---

	case StatusMsg:
		a.setStatus(msg.Text)
		return a, nil

	case TokenMsg:
		a.output.Append(msg.Text)
		return a, nil

	case ClearMsg:
		a.output.Clear()
		return a, nil

	case ModeMsg:
		a.status.SetPromptMode(msg.Name)
		return a, nil

	case RequestStartedMsg:
		a.streaming = true
		if msg.Model != "" {
			a.status.SetModel(msg.Model)
		}
		a.syncMode()
		return a, tea.Batch(a.output.SetStreaming(true), a.status.SetActivity(activityFor(msg.Kind)))

	case RequestDoneMsg:
		a.streaming = false
		a.output.SetStreaming(false)
		a.syncMode()
		return a, nil

	// --- local actions ---

	case copiedMsg:
		if msg.err != nil {
			a.setStatus("Copy failed: " + msg.err.Error())
			return a, nil
		}
		return a, a.flash("Copied to clipboard!")

	case savedMsg:
		switch {
		case errors.Is(msg.err, transcript.ErrNothingToSave):
			return a, a.flash("Nothing to save")
		case msg.err != nil:
			a.setStatus("Save failed: " + msg.err.Error())
			return a, nil
		}
		return a, a.flash("Saved to " + filepath.Base(msg.path))

	case restoreStatusMsg:
		if msg.seq == a.statusSeq {
			a.setStatus(a.defaultStatus())
		}
		return a, nil

	case atoms.CursorBlinkMsg:
		var cmd tea.Cmd
		a.output, cmd = a.output.Update(msg)
		return a, cmd
	}

	// Spinner ticks and anything else.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.status, cmd = a.status.Update(msg)
	cmds = append(cmds, cmd)
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Screen):
		return a, func() tea.Msg {
			a.ctl.CaptureScreen()
			return nil
		}

	case key.Matches(msg, a.keys.Region):
		return a, func() tea.Msg {
			a.ctl.CaptureRegion()
			return nil
		}

	case key.Matches(msg, a.keys.Clipboard):
		return a, func() tea.Msg {
			a.ctl.CaptureClipboard()
			return nil
		}

	case key.Matches(msg, a.keys.CycleMode):
		return a, func() tea.Msg {
			a.ctl.CycleMode()
			return nil
		}

	case key.Matches(msg, a.keys.Copy):
		return a, a.copyOutput()

	case key.Matches(msg, a.keys.Save):
		return a, a.saveOutput()

	case key.Matches(msg, a.keys.Toggle):
		a.hidden = !a.hidden
		a.syncMode()
		a.updateSizes()
		return a, nil

	case key.Matches(msg, a.keys.Clear):
		if !a.streaming {
			a.output.Clear()
		}
		return a, nil

	case key.Matches(msg, a.keys.PageUp):
		a.output.PageUp()
		return a, nil

	case key.Matches(msg, a.keys.PageDown):
		a.output.PageDown()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask sends a follow-up when a conversation exists, otherwise a fresh text
// request.
func (a *App) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if len(a.ctl.Conversation()) == 0 {
			a.ctl.TriggerText(question)
		} else {
			a.ctl.TriggerFollowUp(question)
		}
		return nil
	}
}

func (a *App) copyOutput() tea.Cmd {
	content := a.output.Content()
	return func() tea.Msg {
		return copiedMsg{err: a.copy(content)}
	}
}

func (a *App) saveOutput() tea.Cmd {
	content := a.output.Content()
	mode := a.status.PromptMode()
	return func() tea.Msg {
		path, err := transcript.Save(a.saveDir, mode, content, a.now())
		if err == nil && a.onSaved != nil {
			a.onSaved(path)
		}
		return savedMsg{path: path, err: err}
	}
}

func (a *App) setStatus(text string) {
	a.statusSeq++
	a.status.SetStatus(text)
}

// flash shows text and restores the default status afterwards.
func (a *App) flash(text string) tea.Cmd {
	a.setStatus(text)
	seq := a.statusSeq
	return tea.Tick(transientStatus, func(time.Time) tea.Msg {
		return restoreStatusMsg{seq: seq}
	})
}

func (a *App) defaultStatus() string {
	return fmt.Sprintf("%s=screenshot  %s=toggle",
		a.keys.Screen.Help().Key, a.keys.Toggle.Help().Key)
}

func activityFor(kind events.RequestKind) atoms.ActivityKind {
	if kind == events.RequestImage {
		return atoms.ActivityCapture
	}
	return atoms.ActivityAsk
}

func (a *App) syncMode() {
	switch {
	case a.hidden:
		a.status.SetMode(organisms.ModeHidden)
	case a.streaming:
		a.status.SetMode(organisms.ModeStreaming)
	default:
		a.status.SetMode(organisms.ModeIdle)
	}
}

func (a *App) updateSizes() {
	a.status.SetWidth(a.width)
	a.input.SetWidth(a.width)
	a.help.Width = a.width

	// input(1) + status(1) + help(1) + border(2)
	h := a.height - 5
	if h < 1 {
		h = 1
	}
	w := a.width - 2
	if w < 1 {
		w = 1
	}
	a.output.SetSize(w, h)
}

// View renders the TUI.
func (a *App) View() string {
	footer := fmt.Sprintf("%s\n%s\n%s", a.input.View(), a.status.View(), a.help.View(a.keys))
	if a.hidden {
		return footer
	}
	return OutputBorderStyle.Render(a.output.View()) + "\n" + footer
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctl Controller, bus *events.Bus, opts Options) error {
	if opts.OnSaved == nil {
		opts.OnSaved = func(path string) {
			bus.Publish(events.NewTypedEvent(events.SourceTUI, events.TranscriptSavedPayload{Path: path}))
		}
	}
	p := tea.NewProgram(NewApp(ctl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	detach := Attach(bus, p)
	defer detach()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
