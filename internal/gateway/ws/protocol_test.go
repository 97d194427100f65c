package ws

import (
	"encoding/json"
	"testing"
)

func TestNewRequestFrame_Trigger(t *testing.T) {
	f, err := NewRequestFrame("req-1", MethodTrigger, TriggerParams{Kind: "text", Text: "hello"})
	if err != nil {
		t.Fatalf("NewRequestFrame: %v", err)
	}

	data, err := MarshalFrame(f)
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	got, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame: %v", err)
	}

	if got.Type != FrameTypeRequest {
		t.Fatalf("expected type %q, got %q", FrameTypeRequest, got.Type)
	}
	if got.ID != "req-1" {
		t.Fatalf("expected id %q, got %q", "req-1", got.ID)
	}
	if got.Method != string(MethodTrigger) {
		t.Fatalf("expected method %q, got %q", MethodTrigger, got.Method)
	}

	var p TriggerParams
	if err := json.Unmarshal(got.Params, &p); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if p.Kind != "text" || p.Text != "hello" {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestNewRequestFrame_NoParams(t *testing.T) {
	f, err := NewRequestFrame("req-2", MethodCycleMode, nil)
	if err != nil {
		t.Fatalf("NewRequestFrame: %v", err)
	}
	if f.Params != nil {
		t.Fatalf("expected nil params, got %s", string(f.Params))
	}
}

func TestNewEventFrame(t *testing.T) {
	f, err := NewEventFrame("surface.token", "sess_42", map[string]string{"text": "hi"})
	if err != nil {
		t.Fatalf("NewEventFrame: %v", err)
	}
	if f.Type != FrameTypeEvent {
		t.Fatalf("expected type %q, got %q", FrameTypeEvent, f.Type)
	}
	if f.Event != "surface.token" {
		t.Fatalf("expected event %q, got %q", "surface.token", f.Event)
	}
	if f.SessionID != "sess_42" {
		t.Fatalf("expected session_id %q, got %q", "sess_42", f.SessionID)
	}

	var p map[string]string
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p["text"] != "hi" {
		t.Fatalf("expected payload.text %q, got %q", "hi", p["text"])
	}
}

func TestNewResponseFrame_OK(t *testing.T) {
	f, err := NewResponseFrame("req-5", true, map[string]string{"status": "accepted"}, "")
	if err != nil {
		t.Fatalf("NewResponseFrame: %v", err)
	}
	if f.Type != FrameTypeResponse {
		t.Fatalf("expected type %q, got %q", FrameTypeResponse, f.Type)
	}
	if f.OK == nil || !*f.OK {
		t.Fatal("expected ok=true")
	}
	if f.Error != "" {
		t.Fatalf("expected no error, got %q", f.Error)
	}

	var p map[string]string
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p["status"] != "accepted" {
		t.Fatalf("expected payload.status %q, got %q", "accepted", p["status"])
	}
}

func TestNewResponseFrame_Error(t *testing.T) {
	f, err := NewResponseFrame("req-6", false, nil, "busy")
	if err != nil {
		t.Fatalf("NewResponseFrame: %v", err)
	}
	if f.OK == nil || *f.OK {
		t.Fatal("expected ok=false")
	}
	if f.Error != "busy" {
		t.Fatalf("expected error %q, got %q", "busy", f.Error)
	}
	if f.Payload != nil {
		t.Fatalf("expected nil payload, got %s", string(f.Payload))
	}
}
