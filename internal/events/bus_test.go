package events

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(64)

	var mu sync.Mutex
	var received []Event

	bus.Subscribe(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}, EventStatus)

	bus.Publish(NewTypedEvent(SourceAssistant, StatusPayload{Text: "hello"}))
	bus.Publish(NewTypedEvent(SourceAssistant, TokenPayload{Text: "tok"}))
	bus.Close()

	mu.Lock()
	defer mu.Unlock()

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Type != EventStatus {
		t.Errorf("expected surface.status, got %s", received[0].Type)
	}
}

func TestBusPreservesOrderWithoutDropping(t *testing.T) {
	// A queue far smaller than the number of events forces Publish to block.
	bus := NewBus(4)

	var mu sync.Mutex
	var got []string
	bus.Subscribe(func(e Event) {
		p, _ := GetTokenPayload(e)
		mu.Lock()
		got = append(got, p.Text)
		mu.Unlock()
	}, EventToken)

	const n = 500
	for i := 0; i < n; i++ {
		bus.Publish(NewTypedEvent(SourceAssistant, TokenPayload{Text: fmt.Sprint(i)}))
	}
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != n {
		t.Fatalf("expected %d tokens, got %d", n, len(got))
	}
	for i, s := range got {
		if s != fmt.Sprint(i) {
			t.Fatalf("token %d out of order: %q", i, s)
		}
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus(64)

	count := 0
	bus.Subscribe(func(e Event) { count++ })

	bus.Publish(NewTypedEvent(SourceAssistant, StatusPayload{Text: "hello"}))
	bus.Publish(NewTypedEvent(SourceAssistant, ClearPayload{}))
	bus.Close()

	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(8)

	count := 0
	unsub := bus.Subscribe(func(e Event) { count++ })
	unsub()

	bus.Publish(NewTypedEvent(SourceAssistant, ClearPayload{}))
	bus.Close()

	if count != 0 {
		t.Errorf("expected no delivery after unsubscribe, got %d", count)
	}
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(1)
	bus.Close()
	bus.Close()

	done := make(chan struct{})
	go func() {
		bus.Publish(NewTypedEvent(SourceAssistant, ClearPayload{}))
		bus.Publish(NewTypedEvent(SourceAssistant, ClearPayload{}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Close")
	}
}

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Add(NewEvent(EventToken, SourceAssistant, map[string]any{"i": i}))
	}

	events := rb.Get(10)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Payload["i"] != 2 || events[2].Payload["i"] != 4 {
		t.Fatalf("expected the 3 most recent events oldest first, got %v, %v", events[0].Payload, events[2].Payload)
	}

	rb.Clear()
	if got := rb.Get(10); got != nil {
		t.Fatalf("expected empty buffer after Clear, got %d events", len(got))
	}
}

func TestBusHistory(t *testing.T) {
	bus := NewBus(8)
	bus.Publish(NewTypedEvent(SourceAssistant, StatusPayload{Text: "a"}))
	bus.Publish(NewTypedEvent(SourceAssistant, StatusPayload{Text: "b"}))
	bus.Close()

	hist := bus.History(1)
	if len(hist) != 1 {
		t.Fatalf("expected 1 event, got %d", len(hist))
	}
	if p, _ := GetStatusPayload(hist[0]); p.Text != "b" {
		t.Errorf("expected most recent status, got %q", p.Text)
	}
}
