// Package assistant orchestrates captures, model requests, the shared
// conversation and the one-slot admission control between them.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dohr-michael/sidekick/internal/capture"
	"github.com/dohr-michael/sidekick/internal/conversation"
	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/models"
	"github.com/dohr-michael/sidekick/internal/prompts"
	"github.com/dohr-michael/sidekick/internal/sessions"
)

// Capturer produces screen images and clipboard text. Region returns
// capture.ErrSelectionCancelled when the user dismisses the selector.
type Capturer interface {
	Screen(ctx context.Context) ([]byte, error)
	Region(ctx context.Context) ([]byte, error)
	Clipboard() (string, error)
}

// Recorder persists completed exchanges. An empty sessionID starts a new
// session; Close ends one when a fresh request replaces its conversation.
type Recorder interface {
	RecordExchange(sessionID string, ex sessions.Exchange) (string, error)
	Close(sessionID string) error
}

// Config contains the collaborators of an Assistant.
type Config struct {
	Gateway models.Gateway
	Prompts *prompts.Registry
	Surface Presenter

	// Optional.
	Capture       Capturer
	Recorder      Recorder
	Bus           *events.Bus
	Mode          string
	MinImageBytes int
}

// Result is the outcome of the most recently finished request.
type Result struct {
	Kind  events.RequestKind
	Mode  string
	Reply string
	Err   error
}

// Assistant owns the conversation and admits at most one request at a time.
// Triggers arriving while a request is in flight are dropped, not queued.
type Assistant struct {
	ctx      context.Context
	gateway  models.Gateway
	prompts  *prompts.Registry
	surface  Presenter
	capture  Capturer
	recorder Recorder
	bus      *events.Bus
	minImage int

	mu        sync.Mutex
	inFlight  bool
	conv      *conversation.Conversation
	modeIdx   int
	sessionID string
	last      Result

	wg sync.WaitGroup
}

// New creates an assistant. ctx bounds every request it runs and is normally
// the process lifetime.
func New(ctx context.Context, cfg Config) (*Assistant, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("assistant: gateway is required")
	}
	if cfg.Surface == nil {
		return nil, errors.New("assistant: surface is required")
	}
	reg := cfg.Prompts
	if reg == nil {
		reg = prompts.Default()
	}
	if cfg.Mode != "" {
		if _, ok := reg.Get(cfg.Mode); !ok {
			return nil, fmt.Errorf("assistant: unknown mode %q", cfg.Mode)
		}
	}

	return &Assistant{
		ctx:      ctx,
		gateway:  cfg.Gateway,
		prompts:  reg,
		surface:  cfg.Surface,
		capture:  cfg.Capture,
		recorder: cfg.Recorder,
		bus:      cfg.Bus,
		minImage: cfg.MinImageBytes,
		conv:     conversation.New(),
		modeIdx:  reg.IndexOf(cfg.Mode),
	}, nil
}

// Model returns the gateway label.
func (a *Assistant) Model() string {
	return a.gateway.Name()
}

// Prompts returns the mode registry.
func (a *Assistant) Prompts() *prompts.Registry {
	return a.prompts
}

// Mode returns the selected prompt mode.
func (a *Assistant) Mode() prompts.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prompts.At(a.modeIdx)
}

// Busy reports whether a request is in flight.
func (a *Assistant) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// Conversation returns a copy of the current turns.
func (a *Assistant) Conversation() []conversation.Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conv.Turns()
}

// SessionID returns the persisted session of the current conversation, if any.
func (a *Assistant) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// LastResult returns the outcome of the last finished request. Call it after
// Wait to read the reply of a request started by the caller.
func (a *Assistant) LastResult() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// CycleMode selects the next prompt mode. An in-flight request keeps the
// prompt it started with.
func (a *Assistant) CycleMode() prompts.Mode {
	a.mu.Lock()
	next := a.prompts.Next(a.prompts.At(a.modeIdx).Name)
	a.modeIdx = a.prompts.IndexOf(next.Name)
	a.mu.Unlock()

	a.surface.SetMode(next.Name)
	a.surface.SetStatus(switchedStatus(next.Name))
	return next
}

// SetMode selects a prompt mode by name.
func (a *Assistant) SetMode(name string) error {
	if _, ok := a.prompts.Get(name); !ok {
		return fmt.Errorf("unknown mode %q", name)
	}
	a.mu.Lock()
	a.modeIdx = a.prompts.IndexOf(name)
	a.mu.Unlock()

	a.surface.SetMode(name)
	a.surface.SetStatus(switchedStatus(name))
	return nil
}

// TriggerImage starts an image request on a fresh conversation. It returns
// false when the image is too small or a request is already in flight.
func (a *Assistant) TriggerImage(png []byte) bool {
	if len(png) == 0 || len(png) < a.minImage {
		a.reject(events.RequestImage, fmt.Sprintf("image too small (%d bytes)", len(png)))
		return false
	}
	if !a.claim(events.RequestImage) {
		return false
	}
	req := a.prepareFresh(func(m prompts.Mode) Request { return ImageRequest(m, png) })
	go a.run(req, 0)
	return true
}

// TriggerText starts a text request on a fresh conversation. Blank text is
// rejected without touching the in-flight flag.
func (a *Assistant) TriggerText(text string) bool {
	if strings.TrimSpace(text) == "" {
		a.reject(events.RequestText, "empty text")
		return false
	}
	if !a.claim(events.RequestText) {
		return false
	}
	req := a.prepareFresh(func(m prompts.Mode) Request { return TextRequest(m, text) })
	go a.run(req, 0)
	return true
}

// TriggerFollowUp asks a question against the current conversation.
func (a *Assistant) TriggerFollowUp(question string) bool {
	if strings.TrimSpace(question) == "" {
		a.reject(events.RequestFollowUp, "empty question")
		return false
	}
	if !a.claim(events.RequestFollowUp) {
		return false
	}

	a.mu.Lock()
	base := a.conv.Len()
	req := FollowUpRequest(a.prompts.FollowUp(), a.conv.Turns(), question)
	req.Mode = a.prompts.At(a.modeIdx).Name
	a.conv.Append(req.User)
	a.mu.Unlock()

	go a.run(req, base)
	return true
}

// CaptureScreen claims the slot, grabs the screen on the worker and runs an
// image request with it.
func (a *Assistant) CaptureScreen() bool {
	return a.captureImage(StatusCapturing, func(c Capturer) ([]byte, error) {
		return c.Screen(a.ctx)
	})
}

// CaptureRegion is CaptureScreen with an interactive selection. A cancelled
// selection releases the slot and counts as no input.
func (a *Assistant) CaptureRegion() bool {
	return a.captureImage(StatusSelecting, func(c Capturer) ([]byte, error) {
		return c.Region(a.ctx)
	})
}

func (a *Assistant) captureImage(status string, grab func(Capturer) ([]byte, error)) bool {
	if a.capture == nil {
		a.reject(events.RequestImage, "no capture backend")
		return false
	}
	if !a.claim(events.RequestImage) {
		return false
	}

	go func() {
		a.surface.ClearOutput()
		a.surface.SetStatus(status)

		png, err := grab(a.capture)
		if errors.Is(err, capture.ErrSelectionCancelled) {
			a.surface.SetStatus(StatusSelectionCancelled)
			a.reject(events.RequestImage, "selection cancelled")
			a.finishCapture(err)
			return
		}
		if err == nil && (len(png) == 0 || len(png) < a.minImage) {
			err = fmt.Errorf("capture returned %d bytes", len(png))
		}
		if err != nil {
			slog.Error("screen capture failed", "error", err)
			a.surface.SetStatus(StatusCaptureFailed)
			a.finishCapture(fmt.Errorf("screen capture: %w", err))
			return
		}

		req := a.prepareFresh(func(m prompts.Mode) Request { return ImageRequest(m, png) })
		a.run(req, 0)
	}()
	return true
}

// finishCapture releases a slot claimed by captureImage that never reached
// the gateway.
func (a *Assistant) finishCapture(err error) {
	a.mu.Lock()
	a.last = Result{Kind: events.RequestImage, Err: err}
	a.inFlight = false
	a.mu.Unlock()
	a.wg.Done()
}

// CaptureClipboard reads the clipboard and starts a text request with it.
func (a *Assistant) CaptureClipboard() bool {
	if a.capture == nil {
		a.reject(events.RequestText, "no capture backend")
		return false
	}
	if a.Busy() {
		a.reject(events.RequestText, "busy")
		return false
	}

	text, err := a.capture.Clipboard()
	if err != nil {
		slog.Warn("clipboard read failed", "error", err)
		text = ""
	}
	if strings.TrimSpace(text) == "" {
		a.surface.SetStatus(StatusClipboardEmpty)
		a.reject(events.RequestText, "empty clipboard")
		return false
	}
	return a.TriggerText(text)
}

// Wait blocks until the in-flight request, if any, has finished.
func (a *Assistant) Wait() {
	a.wg.Wait()
}

// claim sets the in-flight flag. It fails without side effects when a request
// is already running.
func (a *Assistant) claim(kind events.RequestKind) bool {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		a.reject(kind, "busy")
		return false
	}
	a.inFlight = true
	a.wg.Add(1)
	a.mu.Unlock()
	return true
}

func (a *Assistant) release() {
	a.mu.Lock()
	a.inFlight = false
	a.mu.Unlock()
}

// prepareFresh resets the conversation, records the new user turn and closes
// the session of the replaced conversation.
func (a *Assistant) prepareFresh(build func(prompts.Mode) Request) Request {
	a.mu.Lock()
	req := build(a.prompts.At(a.modeIdx))
	a.conv.Reset()
	a.conv.Append(req.User)
	prev := a.sessionID
	a.sessionID = ""
	a.mu.Unlock()

	a.closeSession(prev)
	return req
}

// EndSession closes the persisted session of the current conversation. Call
// it after Wait on shutdown.
func (a *Assistant) EndSession() {
	a.mu.Lock()
	id := a.sessionID
	a.sessionID = ""
	a.mu.Unlock()
	a.closeSession(id)
}

func (a *Assistant) closeSession(id string) {
	if id == "" || a.recorder == nil {
		return
	}
	if err := a.recorder.Close(id); err != nil {
		slog.Warn("failed to close session", "session", id, "error", err)
	}
}

// run is the worker body. base is the conversation length before req.User was
// appended; a failed request truncates back to it.
func (a *Assistant) run(req Request, base int) {
	defer a.wg.Done()
	defer a.release()

	if req.Kind == events.RequestFollowUp {
		a.surface.AppendToken(FollowUpSeparator)
	} else {
		a.surface.ClearOutput()
	}

	model := a.gateway.Name()
	a.surface.SetStatus(askingStatus(model))
	a.emit(events.RequestStartedPayload{Kind: req.Kind, Mode: req.Mode, Model: model})

	started := time.Now()
	reply, fragments, err := a.consume(req)
	done := events.RequestCompletedPayload{
		Kind:      req.Kind,
		Mode:      req.Mode,
		Model:     model,
		Fragments: fragments,
		Duration:  time.Since(started),
	}

	if err != nil {
		slog.Error("request failed", "kind", req.Kind, "mode", req.Mode, "model", model, "fragments", fragments, "error", err)
		a.surface.AppendToken(errorToken(err))
		a.surface.SetStatus(StatusError)

		a.mu.Lock()
		a.conv.Truncate(base)
		a.last = Result{Kind: req.Kind, Mode: req.Mode, Err: err}
		a.mu.Unlock()

		done.Error = err.Error()
		a.emit(done)
		return
	}

	a.mu.Lock()
	a.conv.Append(conversation.AssistantTurn(reply))
	a.last = Result{Kind: req.Kind, Mode: req.Mode, Reply: reply}
	sessionID := a.sessionID
	a.mu.Unlock()

	a.record(sessionID, req, model, reply, done.Duration)
	a.surface.SetStatus(DoneStatus(req.Mode))
	a.emit(done)
}

// consume forwards fragments in order and buffers them for the commit.
func (a *Assistant) consume(req Request) (string, int, error) {
	stream, err := a.gateway.Stream(a.ctx, req.System, req.Turns)
	if err != nil {
		return "", 0, err
	}
	defer stream.Close()

	var b strings.Builder
	n := 0
	for stream.Next() {
		fragment := stream.Fragment()
		a.surface.AppendToken(fragment)
		b.WriteString(fragment)
		n++
	}
	return b.String(), n, stream.Err()
}

func (a *Assistant) record(sessionID string, req Request, model, reply string, d time.Duration) {
	if a.recorder == nil {
		return
	}
	id, err := a.recorder.RecordExchange(sessionID, sessions.Exchange{
		Kind:     string(req.Kind),
		Mode:     req.Mode,
		Model:    model,
		User:     req.User,
		Reply:    reply,
		Duration: d,
	})
	if err != nil {
		slog.Warn("failed to persist exchange", "session", sessionID, "error", err)
	}
	if id == "" {
		return
	}

	a.mu.Lock()
	a.sessionID = id
	a.mu.Unlock()
}

func (a *Assistant) reject(kind events.RequestKind, reason string) {
	slog.Debug("trigger rejected", "kind", kind, "reason", reason)
	a.emit(events.TriggerRejectedPayload{Kind: kind, Reason: reason})
}

func (a *Assistant) emit(payload events.EventPayload) {
	if a.bus == nil {
		return
	}
	a.mu.Lock()
	sessionID := a.sessionID
	a.mu.Unlock()
	a.bus.Publish(events.NewTypedEventWithSession(events.SourceAssistant, payload, sessionID))
}
