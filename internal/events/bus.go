// Package events provides the in-memory event bus that carries assistant output
// to every surface (TUI, stdout, WebSocket clients).
package events

import "sync"

// Subscriber is a function that receives events.
type Subscriber func(Event)

type subscription struct {
	id         int
	eventTypes []EventType
	handler    Subscriber
}

// Bus is an in-memory event bus. A single dispatcher goroutine delivers events
// to subscribers in publish order; a handler that blocks holds back later events.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*subscription
	nextID      int
	eventChan   chan Event
	ringBuffer  *RingBuffer
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
}

// NewBus creates a new event bus. bufferSize bounds both the publish queue and
// the history ring.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	b := &Bus{
		eventChan:  make(chan Event, bufferSize),
		ringBuffer: NewRingBuffer(bufferSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	defer close(b.stopped)
	for {
		select {
		case event := <-b.eventChan:
			b.deliver(event)
		case <-b.done:
			// Deliver whatever was queued before Close.
			for {
				select {
				case event := <-b.eventChan:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(event Event) {
	b.ringBuffer.Add(event)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if b.matches(sub, event) {
			sub.handler(event)
		}
	}
}

func (b *Bus) matches(sub *subscription, event Event) bool {
	if len(sub.eventTypes) == 0 {
		return true
	}
	for _, t := range sub.eventTypes {
		if t == event.Type {
			return true
		}
	}
	return false
}

// Publish queues an event, blocking while the queue is full. Events published
// after Close are dropped.
func (b *Bus) Publish(event Event) {
	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	case <-b.done:
	}
}

// Subscribe registers a handler for specific event types.
// Returns an unsubscribe function. Handlers must not call Subscribe,
// the returned unsubscribe function or Close.
func (b *Bus) Subscribe(handler Subscriber, eventTypes ...EventType) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	b.subscribers = append(b.subscribers, &subscription{
		id:         id,
		eventTypes: eventTypes,
		handler:    handler,
	})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subscribers {
			if sub.id == id {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

// History returns recent events from the ring buffer.
func (b *Bus) History(limit int) []Event {
	return b.ringBuffer.Get(limit)
}

// Close stops accepting events, delivers the ones already queued and waits for
// the dispatcher to exit.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	<-b.stopped
}

// RingBuffer is a circular buffer for storing recent events.
type RingBuffer struct {
	mu     sync.RWMutex
	events []Event
	size   int
	pos    int
	count  int
}

// NewRingBuffer creates a new ring buffer.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		events: make([]Event, size),
		size:   size,
	}
}

func (r *RingBuffer) Add(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.pos] = event
	r.pos = (r.pos + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

func (r *RingBuffer) Get(n int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]Event, n)
	start := (r.pos - n + r.size) % r.size
	for i := 0; i < n; i++ {
		result[i] = r.events[(start+i)%r.size]
	}
	return result
}

func (r *RingBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = 0
	r.count = 0
}
