package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ClientMessage is a control message from a WebSocket dashboard client.
type ClientMessage struct {
	Action  string `json:"action"`  // subscribe, unsubscribe, ping
	Channel string `json:"channel"` // session id
}

// Hub fans generation events out to WebSocket dashboard clients. Each
// session id is a channel clients can subscribe to; "*" receives every
// event. One Hub per process.
type Hub struct {
	connections map[string]*hubConn
	mu          sync.RWMutex

	// channel → set of connection ids
	channels  map[string]map[string]bool
	channelMu sync.RWMutex

	writeTimeout time.Duration
	logger       *slog.Logger
}

// hubConn is one connected WebSocket client.
//
// subscriptions is accessed without a lock: all reads and writes happen on
// the goroutine that owns the connection (HandleConnection's read loop and
// its deferred cleanup).
type hubConn struct {
	id            string
	conn          *websocket.Conn
	subscriptions map[string]bool
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewHub creates a Hub with the given per-send write timeout.
func NewHub(writeTimeout time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		connections:  make(map[string]*hubConn),
		channels:     make(map[string]map[string]bool),
		writeTimeout: writeTimeout,
		logger:       logger.With("component", "ws_hub"),
	}
}

// HandleConnection manages one WebSocket connection's lifecycle. Called by
// the HTTP handler after upgrade; blocks until the connection closes.
func (h *Hub) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &hubConn{
		id:            uuid.NewString(),
		conn:          conn,
		subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}

	h.register(c)
	defer h.unregister(c)

	h.sendJSON(c, map[string]string{
		"type":          "connection.established",
		"connection_id": c.id,
	})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn("Invalid WebSocket message", "connection_id", c.id, "error", err)
			continue
		}
		h.handleClientMessage(c, &msg)
	}
}

// Broadcast sends a session's event to its subscribers and to wildcard
// subscribers. Best-effort: slow or dead clients are logged and skipped.
func (h *Hub) Broadcast(sessionID string, ev Event) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
		Event
	}{Type: "generation.event", SessionID: sessionID, Event: ev})
	if err != nil {
		return
	}

	for _, conn := range h.subscribers(sessionID) {
		if err := h.sendRaw(conn, payload); err != nil {
			h.logger.Warn("Failed to send to WebSocket client",
				"connection_id", conn.id, "error", err)
		}
	}
}

// ActiveConnections returns the count of connected clients.
func (h *Hub) ActiveConnections() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close disconnects every client. Used during process shutdown; each
// connection's read loop observes the cancelled context and unregisters
// itself.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*hubConn, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.cancel()
		_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// subscribers snapshots the connections subscribed to channel or "*".
func (h *Hub) subscribers(channel string) []*hubConn {
	h.channelMu.RLock()
	ids := make(map[string]bool)
	for id := range h.channels[channel] {
		ids[id] = true
	}
	for id := range h.channels["*"] {
		ids[id] = true
	}
	h.channelMu.RUnlock()

	if len(ids) == 0 {
		return nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*hubConn, 0, len(ids))
	for id := range ids {
		if conn, ok := h.connections[id]; ok {
			conns = append(conns, conn)
		}
	}
	return conns
}

func (h *Hub) handleClientMessage(c *hubConn, msg *ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if msg.Channel == "" {
			h.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for subscribe"})
			return
		}
		h.subscribe(c, msg.Channel)
		h.sendJSON(c, map[string]string{
			"type":    "subscription.confirmed",
			"channel": msg.Channel,
		})

	case "unsubscribe":
		if msg.Channel == "" {
			h.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for unsubscribe"})
			return
		}
		h.unsubscribe(c, msg.Channel)

	case "ping":
		h.sendJSON(c, map[string]string{"type": "pong"})
	}
}

func (h *Hub) subscribe(c *hubConn, channel string) {
	h.channelMu.Lock()
	if _, exists := h.channels[channel]; !exists {
		h.channels[channel] = make(map[string]bool)
	}
	h.channels[channel][c.id] = true
	h.channelMu.Unlock()

	c.subscriptions[channel] = true
}

func (h *Hub) unsubscribe(c *hubConn, channel string) {
	h.channelMu.Lock()
	if subs, exists := h.channels[channel]; exists {
		delete(subs, c.id)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	h.channelMu.Unlock()

	delete(c.subscriptions, channel)
}

func (h *Hub) register(c *hubConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.id] = c
}

func (h *Hub) unregister(c *hubConn) {
	for ch := range c.subscriptions {
		h.unsubscribe(c, ch)
	}

	h.mu.Lock()
	delete(h.connections, c.id)
	h.mu.Unlock()

	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) sendJSON(c *hubConn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("Failed to marshal WebSocket message", "connection_id", c.id, "error", err)
		return
	}
	if err := h.sendRaw(c, data); err != nil {
		h.logger.Warn("Failed to send WebSocket message", "connection_id", c.id, "error", err)
	}
}

func (h *Hub) sendRaw(c *hubConn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(c.ctx, h.writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}
