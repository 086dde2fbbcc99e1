package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// WSEvent is one received WebSocket message.
type WSEvent struct {
	Type     string `json:"type"`
	Raw      json.RawMessage
	Parsed   map[string]any
	Received time.Time
}

// WSClient connects to the docgen WebSocket endpoint and collects events.
type WSClient struct {
	conn   *websocket.Conn
	events []WSEvent
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// WSConnect establishes a WebSocket connection to the test server and starts
// collecting events in a background goroutine.
func WSConnect(ctx context.Context, wsURL string) (*WSClient, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{})
	if err != nil {
		return nil, fmt.Errorf("WebSocket dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)
	c := &WSClient{conn: conn, ctx: clientCtx, cancel: cancel}
	go c.readLoop()
	return c, nil
}

// Subscribe sends a subscribe action for the given channel (a session id or
// "*" for everything).
func (c *WSClient) Subscribe(channel string) error {
	data, _ := json.Marshal(map[string]string{
		"action":  "subscribe",
		"channel": channel,
	})
	return c.conn.Write(c.ctx, websocket.MessageText, data)
}

// Close tears down the connection.
func (c *WSClient) Close() {
	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

// Events returns a copy of everything received so far.
func (c *WSClient) Events() []WSEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]WSEvent, len(c.events))
	copy(out, c.events)
	return out
}

// WaitForEvent polls until an event matching the predicate arrives, or the
// timeout elapses.
func (c *WSClient) WaitForEvent(predicate func(WSEvent) bool, timeout time.Duration) (*WSEvent, error) {
	deadline := time.After(timeout)
	tick := time.NewTicker(25 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for event (collected %d events)", len(c.Events()))
		case <-tick.C:
			c.mu.Lock()
			for i := range c.events {
				if predicate(c.events[i]) {
					ev := c.events[i]
					c.mu.Unlock()
					return &ev, nil
				}
			}
			c.mu.Unlock()
		}
	}
}

// WaitForEventType waits for an event with the given type field.
func (c *WSClient) WaitForEventType(eventType string, timeout time.Duration) (*WSEvent, error) {
	return c.WaitForEvent(func(e WSEvent) bool { return e.Type == eventType }, timeout)
}

func (c *WSClient) readLoop() {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			return
		}
		ev := WSEvent{Raw: json.RawMessage(data), Received: time.Now()}
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err == nil {
			ev.Parsed = parsed
			if t, ok := parsed["type"].(string); ok {
				ev.Type = t
			}
		}
		c.mu.Lock()
		c.events = append(c.events, ev)
		c.mu.Unlock()
	}
}
