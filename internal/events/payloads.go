package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// SURFACE EVENTS
// =============================================================================

type StatusPayload struct {
	Text string `json:"text"`
}

func (StatusPayload) EventType() EventType { return EventStatus }

type TokenPayload struct {
	Text string `json:"text"`
}

func (TokenPayload) EventType() EventType { return EventToken }

type ClearPayload struct{}

func (ClearPayload) EventType() EventType { return EventClear }

type ModePayload struct {
	Name string `json:"name"`
}

func (ModePayload) EventType() EventType { return EventMode }

// =============================================================================
// REQUEST EVENTS
// =============================================================================

// RequestKind names the trigger that started a request.
type RequestKind string

const (
	RequestImage    RequestKind = "image"
	RequestText     RequestKind = "text"
	RequestFollowUp RequestKind = "followup"
)

type RequestStartedPayload struct {
	Kind  RequestKind `json:"kind"`
	Mode  string      `json:"mode"`
	Model string      `json:"model"`
}

func (RequestStartedPayload) EventType() EventType { return EventRequestStarted }

type RequestCompletedPayload struct {
	Kind      RequestKind   `json:"kind"`
	Mode      string        `json:"mode"`
	Model     string        `json:"model"`
	Fragments int           `json:"fragments"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

func (RequestCompletedPayload) EventType() EventType { return EventRequestCompleted }

type TriggerRejectedPayload struct {
	Kind   RequestKind `json:"kind"`
	Reason string      `json:"reason"`
}

func (TriggerRejectedPayload) EventType() EventType { return EventTriggerRejected }

type TranscriptSavedPayload struct {
	Path string `json:"path"`
}

func (TranscriptSavedPayload) EventType() EventType { return EventTranscriptSaved }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return NewEvent(payload.EventType(), source, toMap(payload))
}

func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewTypedEvent(source, payload)
	e.SessionID = sessionID
	return e
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	if e.Type != result.EventType() {
		return result, false
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetStatusPayload(e Event) (StatusPayload, bool) {
	return ExtractPayload[StatusPayload](e)
}

func GetTokenPayload(e Event) (TokenPayload, bool) {
	return ExtractPayload[TokenPayload](e)
}

func GetModePayload(e Event) (ModePayload, bool) {
	return ExtractPayload[ModePayload](e)
}

func GetRequestCompletedPayload(e Event) (RequestCompletedPayload, bool) {
	return ExtractPayload[RequestCompletedPayload](e)
}
