package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dohr-michael/sidekick/internal/conversation"
	"github.com/dohr-michael/sidekick/internal/models"
	"github.com/dohr-michael/sidekick/internal/sessions"
)

type gatewayCall struct {
	system string
	turns  []conversation.Turn
}

// fakeGateway replays fragments, then err. When block is set the stream waits
// on it before producing anything; started receives one value per call.
type fakeGateway struct {
	mu        sync.Mutex
	fragments []string
	err       error
	block     chan struct{}
	started   chan struct{}
	calls     []gatewayCall
}

func (g *fakeGateway) Name() string { return "fake/model" }

func (g *fakeGateway) Probe(context.Context) error { return nil }

func (g *fakeGateway) Stream(ctx context.Context, system string, turns []conversation.Turn) (*models.Stream, error) {
	if err := models.ValidateTurns(turns); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{system: system, turns: turns})
	fragments, err, block, started := g.fragments, g.err, g.block, g.started
	g.mu.Unlock()

	return models.NewStream(ctx, g.Name(), func(ctx context.Context, emit func(string) bool) error {
		if started != nil {
			started <- struct{}{}
		}
		if block != nil {
			select {
			case <-block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for _, f := range fragments {
			if !emit(f) {
				return nil
			}
		}
		return err
	}), nil
}

func (g *fakeGateway) Calls() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gatewayCall(nil), g.calls...)
}

type recordingSurface struct {
	mu       sync.Mutex
	statuses []string
	tokens   []string
	clears   int
	modes    []string
}

func (s *recordingSurface) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, text)
}

func (s *recordingSurface) AppendToken(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, fragment)
}

func (s *recordingSurface) ClearOutput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

func (s *recordingSurface) SetMode(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, name)
}

func (s *recordingSurface) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

func (s *recordingSurface) Statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

func (s *recordingSurface) LastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

type fakeCapturer struct {
	png       []byte
	screenErr error
	region    []byte
	regionErr error
	clipboard string
	clipErr   error
}

func (c *fakeCapturer) Screen(context.Context) ([]byte, error) { return c.png, c.screenErr }

func (c *fakeCapturer) Region(context.Context) ([]byte, error) { return c.region, c.regionErr }

func (c *fakeCapturer) Clipboard() (string, error) { return c.clipboard, c.clipErr }

type fakeRecorder struct {
	mu        sync.Mutex
	exchanges []sessions.Exchange
	sessions  []string
	closed    []string
	next      int
	fail      bool
}

func (r *fakeRecorder) Close(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, sessionID)
	return nil
}

func (r *fakeRecorder) Closed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.closed...)
}

func (r *fakeRecorder) RecordExchange(sessionID string, ex sessions.Exchange) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return "", errors.New("disk full")
	}
	r.exchanges = append(r.exchanges, ex)
	r.sessions = append(r.sessions, sessionID)
	if sessionID == "" {
		r.next++
		sessionID = fmt.Sprintf("sess_%d", r.next)
	}
	return sessionID, nil
}
