package models

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const streamBuffer = 32

// StreamState is the lifecycle position of a Stream.
type StreamState int

const (
	StateStreaming StreamState = iota
	StateCompleted
	StateFailed
)

func (s StreamState) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Producer writes fragments through emit in arrival order. emit reports false once
// the consumer has gone away; the producer should return promptly in that case.
type Producer func(ctx context.Context, emit func(fragment string) bool) error

// Stream is a finite, non-restartable sequence of reply fragments.
//
//	for s.Next() {
//		use(s.Fragment())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	provider string
	reader   *schema.StreamReader[string]
	current  string
	state    StreamState
	err      error
	closed   bool
}

// NewStream runs produce on its own goroutine and returns the consuming side.
// Errors returned by produce are classified and become the stream's terminal error.
func NewStream(ctx context.Context, provider string, produce Producer) *Stream {
	sr, sw := schema.Pipe[string](streamBuffer)

	go func() {
		defer sw.Close()
		err := produce(ctx, func(fragment string) bool {
			return !sw.Send(fragment, nil)
		})
		if err != nil {
			sw.Send("", err)
		}
	}()

	return &Stream{provider: provider, reader: sr}
}

// Next advances to the next non-empty fragment. It returns false once the stream
// has completed or failed.
func (s *Stream) Next() bool {
	if s.state != StateStreaming {
		return false
	}
	for {
		chunk, err := s.reader.Recv()
		if errors.Is(err, io.EOF) {
			s.finish(StateCompleted, nil)
			return false
		}
		if err != nil {
			s.finish(StateFailed, Classify(s.provider, err))
			return false
		}
		if chunk == "" {
			continue
		}
		s.current = chunk
		return true
	}
}

// Fragment returns the fragment produced by the last successful Next.
func (s *Stream) Fragment() string {
	return s.current
}

// Err returns the terminal error, or nil if the stream completed or is still running.
func (s *Stream) Err() error {
	return s.err
}

// State reports the lifecycle position.
func (s *Stream) State() StreamState {
	return s.state
}

// Close releases the stream. Calling it before completion abandons the remaining
// fragments; the producer is told through emit.
func (s *Stream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.reader.Close()
}

// Collect drains the stream and returns the concatenated text.
func (s *Stream) Collect() (string, error) {
	defer s.Close()
	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Fragment())
	}
	return b.String(), s.Err()
}

func (s *Stream) finish(state StreamState, err error) {
	s.state = state
	s.err = err
	s.current = ""
	s.Close()
}
