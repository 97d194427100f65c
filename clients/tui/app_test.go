package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/sidekick/clients/tui/atoms"
	"github.com/dohr-michael/sidekick/clients/tui/molecules"
	"github.com/dohr-michael/sidekick/internal/conversation"
	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/prompts"
)

type fakeController struct {
	mu       sync.Mutex
	calls    []string
	turns    []conversation.Turn
	registry *prompts.Registry
	mode     prompts.Mode
}

func newFakeController() *fakeController {
	reg := prompts.Default()
	return &fakeController{registry: reg, mode: reg.At(0)}
}

func (f *fakeController) record(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return true
}

func (f *fakeController) CaptureScreen() bool               { return f.record("screen") }
func (f *fakeController) CaptureRegion() bool               { return f.record("region") }
func (f *fakeController) CaptureClipboard() bool            { return f.record("clipboard") }
func (f *fakeController) TriggerText(text string) bool      { return f.record("text:" + text) }
func (f *fakeController) TriggerFollowUp(q string) bool     { return f.record("followup:" + q) }
func (f *fakeController) Model() string                     { return "fake/model" }
func (f *fakeController) Conversation() []conversation.Turn { return f.turns }

func (f *fakeController) CycleMode() prompts.Mode {
	f.record("cycle")
	f.mode = f.registry.Next(f.mode.Name)
	return f.mode
}

func (f *fakeController) Mode() prompts.Mode { return f.mode }

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestApp(t *testing.T, ctl *fakeController, opts Options) *App {
	t.Helper()
	a := NewApp(ctl, opts)
	a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return a
}

// run executes cmd and feeds the resulting message back into the app.
func run(a *App, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	_, next := a.Update(msg)
	return next
}

func TestApp_KeysTriggerController(t *testing.T) {
	tests := []struct {
		key  tea.KeyType
		want string
	}{
		{tea.KeyCtrlS, "screen"},
		{tea.KeyCtrlR, "region"},
		{tea.KeyCtrlT, "clipboard"},
		{tea.KeyCtrlP, "cycle"},
	}

	for _, tt := range tests {
		ctl := newFakeController()
		a := newTestApp(t, ctl, Options{})

		_, cmd := a.Update(tea.KeyMsg{Type: tt.key})
		if len(ctl.Calls()) != 0 {
			t.Fatalf("controller called inside Update for %v", tt.key)
		}
		run(a, cmd)

		calls := ctl.Calls()
		if len(calls) != 1 || calls[0] != tt.want {
			t.Fatalf("key %v: expected %q, got %v", tt.key, tt.want, calls)
		}
	}
}

func TestApp_SubmitChoosesRequestKind(t *testing.T) {
	ctl := newFakeController()
	a := newTestApp(t, ctl, Options{})

	_, cmd := a.Update(molecules.SubmitMsg{Content: "what is a trie?"})
	run(a, cmd)

	ctl.turns = []conversation.Turn{
		conversation.UserTurn(conversation.TextPart("what is a trie?")),
		conversation.AssistantTurn("a prefix tree"),
	}
	_, cmd = a.Update(molecules.SubmitMsg{Content: "complexity?"})
	run(a, cmd)

	calls := ctl.Calls()
	want := []string{"text:what is a trie?", "followup:complexity?"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

func TestApp_SurfaceMessages(t *testing.T) {
	ctl := newFakeController()
	a := newTestApp(t, ctl, Options{})

	a.Update(RequestStartedMsg{Model: "bedrock/x"})
	if !a.streaming {
		t.Fatal("expected streaming after RequestStartedMsg")
	}
	a.Update(TokenMsg{Text: "Hello"})
	a.Update(TokenMsg{Text: " world"})
	a.Update(StatusMsg{Text: "Done | [Interview]"})
	a.Update(RequestDoneMsg{})

	if a.streaming {
		t.Fatal("expected streaming to stop")
	}
	if got := a.output.Content(); got != "Hello world" {
		t.Fatalf("expected %q, got %q", "Hello world", got)
	}
	if got := a.status.Status(); got != "Done | [Interview]" {
		t.Fatalf("unexpected status %q", got)
	}

	a.Update(ClearMsg{})
	if got := a.output.Content(); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}

	a.Update(ModeMsg{Name: "Debug"})
	if got := a.status.PromptMode(); got != "Debug" {
		t.Fatalf("expected mode Debug, got %q", got)
	}
}

func TestApp_CopyOutput(t *testing.T) {
	var copied string
	ctl := newFakeController()
	a := newTestApp(t, ctl, Options{Copy: func(s string) error {
		copied = s
		return nil
	}})
	a.Update(TokenMsg{Text: "answer"})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	restore := run(a, cmd)

	if copied != "answer" {
		t.Fatalf("expected %q copied, got %q", "answer", copied)
	}
	if got := a.status.Status(); got != "Copied to clipboard!" {
		t.Fatalf("unexpected status %q", got)
	}
	if restore == nil {
		t.Fatal("expected a restore command")
	}

	a.Update(restoreStatusMsg{seq: a.statusSeq})
	if got := a.status.Status(); got != a.defaultStatus() {
		t.Fatalf("expected default status, got %q", got)
	}
}

func TestApp_CopyFailure(t *testing.T) {
	ctl := newFakeController()
	a := newTestApp(t, ctl, Options{Copy: func(string) error { return errors.New("no xclip") }})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	run(a, cmd)

	if got := a.status.Status(); !strings.Contains(got, "no xclip") {
		t.Fatalf("expected failure status, got %q", got)
	}
}

func TestApp_SaveTranscript(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	ctl := newFakeController()
	var saved []string
	a := newTestApp(t, ctl, Options{
		SaveDir: dir,
		Now:     func() time.Time { return now },
		OnSaved: func(path string) { saved = append(saved, path) },
	})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	run(a, cmd)
	if got := a.status.Status(); got != "Nothing to save" {
		t.Fatalf("expected nothing to save, got %q", got)
	}

	a.Update(TokenMsg{Text: "## Solution\nuse a heap"})
	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	run(a, cmd)

	path := filepath.Join(dir, "interview_20260304_050607.md")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(data), "**Mode**: Interview") || !strings.Contains(string(data), "use a heap") {
		t.Fatalf("unexpected transcript:\n%s", data)
	}
	if got := a.status.Status(); got != "Saved to interview_20260304_050607.md" {
		t.Fatalf("unexpected status %q", got)
	}
	if len(saved) != 1 || saved[0] != path {
		t.Errorf("OnSaved calls = %v, want [%s]", saved, path)
	}
}

func TestApp_StaleRestoreIgnored(t *testing.T) {
	ctl := newFakeController()
	a := newTestApp(t, ctl, Options{Copy: func(string) error { return nil }})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	run(a, cmd)
	stale := a.statusSeq

	a.Update(StatusMsg{Text: "Asking fake/model..."})
	a.Update(restoreStatusMsg{seq: stale})

	if got := a.status.Status(); got != "Asking fake/model..." {
		t.Fatalf("stale restore overwrote status: %q", got)
	}
}

func TestApp_ToggleHidesOutput(t *testing.T) {
	ctl := newFakeController()
	a := newTestApp(t, ctl, Options{})
	a.Update(TokenMsg{Text: "secret answer"})

	a.Update(tea.KeyMsg{Type: tea.KeyCtrlBackslash})
	if !a.hidden {
		t.Fatal("expected hidden after toggle")
	}
	if strings.Contains(a.View(), "secret answer") {
		t.Fatal("hidden view still shows output")
	}

	a.Update(tea.KeyMsg{Type: tea.KeyCtrlBackslash})
	if a.hidden {
		t.Fatal("expected visible after second toggle")
	}
}

func TestApp_ReplyCursorFollowsRequest(t *testing.T) {
	ctl := newFakeController()
	a := newTestApp(t, ctl, Options{})

	a.Update(RequestStartedMsg{Kind: events.RequestImage, Model: "bedrock/x"})
	if got := a.output.CursorPhase(); got != atoms.CursorWaiting {
		t.Fatalf("phase before first fragment = %d, want waiting", got)
	}
	if !strings.Contains(a.View(), "reading screen") {
		t.Fatal("image request should show the capture indicator")
	}

	a.Update(TokenMsg{Text: "The"})
	if got := a.output.CursorPhase(); got != atoms.CursorWriting {
		t.Fatalf("phase after fragment = %d, want writing", got)
	}

	a.Update(RequestDoneMsg{Kind: events.RequestImage})
	if got := a.output.CursorPhase(); got != atoms.CursorOff {
		t.Fatalf("phase after completion = %d, want off", got)
	}

	a.Update(RequestStartedMsg{Kind: events.RequestFollowUp})
	if !strings.Contains(a.View(), "thinking") {
		t.Fatal("follow-up should show the question indicator")
	}
}
