package events

import (
	"fmt"
	"sync/atomic"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Assistant → Surface
	EventStatus EventType = "surface.status"
	EventToken  EventType = "surface.token"
	EventClear  EventType = "surface.clear"
	EventMode   EventType = "surface.mode"

	// Request lifecycle
	EventRequestStarted   EventType = "request.started"
	EventRequestCompleted EventType = "request.completed"
	EventTriggerRejected  EventType = "trigger.rejected"

	// Artifacts
	EventTranscriptSaved EventType = "transcript.saved"
)

// EventSource identifies the component that emitted an event.
type EventSource string

const (
	SourceAssistant EventSource = "assistant"
	SourceTUI       EventSource = "tui"
)

// Event represents an event in the system.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    EventSource    `json:"source"`
	Payload   map[string]any `json:"payload"`
}

// eventIDCounter is used to generate sequential event IDs.
var eventIDCounter uint64

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, source EventSource, payload map[string]any) Event {
	return Event{
		ID:        generateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}

func generateEventID() string {
	seq := atomic.AddUint64(&eventIDCounter, 1)
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), seq)
}
