// Package gateway exposes the assistant on a loopback HTTP server so OS-level
// hotkey daemons and scripts can trigger requests and follow the output.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/gateway/ws"
	"github.com/dohr-michael/sidekick/internal/prompts"
	"github.com/dohr-michael/sidekick/internal/sessions"
)


// Trigger kinds accepted by /api/trigger/{kind}.
const (
	KindScreen    = "screen"
	KindRegion    = "region"
	KindClipboard = "clipboard"
	KindText      = "text"
	KindFollowUp  = "followup"
)

// Controller is the part of the assistant the server drives.
type Controller interface {
	CaptureScreen() bool
	CaptureRegion() bool
	CaptureClipboard() bool
	TriggerText(text string) bool
	TriggerFollowUp(question string) bool
	CycleMode() prompts.Mode
	Mode() prompts.Mode
	Model() string
	Busy() bool
}

// Server is the sidekick control server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	store      sessions.Store
	ctl        Controller
	host       string
	port       int
}

// NewServer creates a new control server. store may be nil.
func NewServer(ctl Controller, bus *events.Bus, store sessions.Store, host string, port int) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	s := &Server{
		bus:   bus,
		store: store,
		ctl:   ctl,
		host:  host,
		port:  port,
	}
	s.hub = ws.NewHub(bus, s)

	// Routes
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", s.hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Post("/api/trigger/{kind}", s.handleTrigger)
	r.Get("/api/mode", s.handleMode)
	r.Post("/api/mode/next", s.handleModeNext)

	// API: sessions
	r.Get("/api/sessions", s.handleSessions)
	r.Get("/api/sessions/{id}", s.handleSession)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("sidekick control server listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Trigger dispatches a trigger kind to the assistant.
func (s *Server) Trigger(kind, text string) ws.TriggerResult {
	wasBusy := s.ctl.Busy()

	var ok bool
	switch kind {
	case KindScreen:
		ok = s.ctl.CaptureScreen()
	case KindRegion:
		ok = s.ctl.CaptureRegion()
	case KindClipboard:
		ok = s.ctl.CaptureClipboard()
	case KindText:
		ok = s.ctl.TriggerText(text)
	case KindFollowUp:
		ok = s.ctl.TriggerFollowUp(text)
	default:
		return ws.TriggerUnknownKind
	}

	switch {
	case ok:
		return ws.TriggerAccepted
	case wasBusy || s.ctl.Busy():
		return ws.TriggerBusy
	default:
		return ws.TriggerNoInput
	}
}

// CycleMode selects the next prompt mode and returns its name.
func (s *Server) CycleMode() string {
	return s.ctl.CycleMode().Name
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"model":   s.ctl.Model(),
		"mode":    s.ctl.Mode().Name,
		"busy":    s.ctl.Busy(),
		"clients": s.hub.Clients(),
	})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result := s.Trigger(kind, body.Text)
	writeJSON(w, triggerStatus(result), map[string]string{"status": string(result)})
}

func triggerStatus(result ws.TriggerResult) int {
	switch result {
	case ws.TriggerAccepted:
		return http.StatusAccepted
	case ws.TriggerBusy:
		return http.StatusConflict
	case ws.TriggerUnknownKind:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": s.ctl.Mode().Name})
}

func (s *Server) handleModeNext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": s.CycleMode()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	history := s.bus.History(limit)

	// Format timestamps nicely
	type eventJSON struct {
		ID        string             `json:"id"`
		SessionID string             `json:"session_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			SessionID: e.SessionID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "session store not available", http.StatusServiceUnavailable)
		return
	}
	list, err := s.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*sessions.Session{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "session store not available", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(id)
	if errors.Is(err, sessions.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	records, err := s.store.Exchanges(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []sessions.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":   sess,
		"exchanges": records,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}
