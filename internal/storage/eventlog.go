// Package storage persists the assistant's event stream for later review.
package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dohr-michael/sidekick/internal/events"
)

// GlobalLog receives events that belong to no session.
const GlobalLog = "_global.jsonl"

// EventLogger persists bus events to JSONL files organized by session.
type EventLogger struct {
	mu          sync.Mutex
	dir         string
	unsubscribe func()
}

// NewEventLogger creates an EventLogger that subscribes to the bus and writes
// events as JSONL to dir, one file per session.
func NewEventLogger(dir string, bus *events.Bus) *EventLogger {
	el := &EventLogger{dir: dir}
	el.unsubscribe = bus.Subscribe(el.handleEvent)
	return el
}

// Close unsubscribes the logger from the event bus.
func (el *EventLogger) Close() {
	if el.unsubscribe != nil {
		el.unsubscribe()
	}
}

func (el *EventLogger) handleEvent(e events.Event) {
	// Tokens are redundant with the persisted exchange and far too many.
	if e.Type == events.EventToken {
		return
	}
	if err := el.writeEvent(e); err != nil {
		slog.Debug("event log write failed", "type", e.Type, "error", err)
	}
}

func (el *EventLogger) writeEvent(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()

	path := el.logPath(e.SessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

func (el *EventLogger) logPath(sessionID string) string {
	if sessionID == "" {
		return filepath.Join(el.dir, GlobalLog)
	}
	return filepath.Join(el.dir, filepath.Base(sessionID)+".jsonl")
}
