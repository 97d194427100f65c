// Package ws provides a WebSocket client for the sidekick control server.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/dohr-michael/sidekick/internal/events"
	wsprotocol "github.com/dohr-michael/sidekick/internal/gateway/ws"
)

// Client is a WebSocket client for the sidekick control server.
type Client struct {
	conn   *websocket.Conn
	reqSeq uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the control server WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

// Trigger asks the server to start a request of the given kind. The answer
// arrives as a response frame with the same ID.
func (c *Client) Trigger(kind, text string) (string, error) {
	return c.send(wsprotocol.MethodTrigger, wsprotocol.TriggerParams{Kind: kind, Text: text})
}

// CycleMode asks the server to select the next prompt mode.
func (c *Client) CycleMode() (string, error) {
	return c.send(wsprotocol.MethodCycleMode, nil)
}

func (c *Client) send(method wsprotocol.Method, params any) (string, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)
	id := fmt.Sprintf("req-%d", seq)

	frame, err := wsprotocol.NewRequestFrame(id, method, params)
	if err != nil {
		return "", err
	}
	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return "", err
	}
	return id, c.conn.Write(c.ctx, websocket.MessageText, data)
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// ReadEvent skips response frames and returns the next event.
func (c *Client) ReadEvent() (events.Event, error) {
	for {
		f, err := c.ReadFrame()
		if err != nil {
			return events.Event{}, err
		}
		if f.Type != wsprotocol.FrameTypeEvent {
			continue
		}
		return FrameEvent(f)
	}
}

// Await reads frames until the response to id arrives. Events read meanwhile
// are passed to onEvent when it is non-nil.
func (c *Client) Await(id string, onEvent func(events.Event)) (wsprotocol.Frame, error) {
	for {
		f, err := c.ReadFrame()
		if err != nil {
			return wsprotocol.Frame{}, err
		}
		switch f.Type {
		case wsprotocol.FrameTypeResponse:
			if f.ID != id {
				continue
			}
			if f.OK == nil || !*f.OK {
				return f, errors.New(f.Error)
			}
			return f, nil
		case wsprotocol.FrameTypeEvent:
			if onEvent == nil {
				continue
			}
			e, err := FrameEvent(f)
			if err != nil {
				continue
			}
			onEvent(e)
		}
	}
}

// FrameEvent rebuilds a bus event from an event frame.
func FrameEvent(f wsprotocol.Frame) (events.Event, error) {
	e := events.Event{
		Type:      events.EventType(f.Event),
		SessionID: f.SessionID,
	}
	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, &e.Payload); err != nil {
			return events.Event{}, fmt.Errorf("decode event payload: %w", err)
		}
	}
	return e, nil
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
