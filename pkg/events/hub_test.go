package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestConn(id string) *hubConn {
	ctx, cancel := context.WithCancel(context.Background())
	return &hubConn{
		id:            id,
		subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func TestHubSubscriptionBookkeeping(t *testing.T) {
	hub := NewHub(time.Second, nil)
	a := newTestConn("conn-a")
	b := newTestConn("conn-b")
	hub.register(a)
	hub.register(b)
	defer a.cancel()
	defer b.cancel()

	hub.subscribe(a, "session-1")
	hub.subscribe(b, "session-1")
	hub.subscribe(b, "*")

	t.Run("channel subscribers resolved", func(t *testing.T) {
		conns := hub.subscribers("session-1")
		assert.Len(t, conns, 2)
	})

	t.Run("wildcard receives other sessions", func(t *testing.T) {
		conns := hub.subscribers("session-other")
		assert.Len(t, conns, 1)
		assert.Equal(t, "conn-b", conns[0].id)
	})

	t.Run("unsubscribe removes membership", func(t *testing.T) {
		hub.unsubscribe(a, "session-1")
		conns := hub.subscribers("session-1")
		assert.Len(t, conns, 1)
		assert.Equal(t, "conn-b", conns[0].id)
	})

	t.Run("empty channel entries are deleted", func(t *testing.T) {
		hub.unsubscribe(b, "session-1")
		hub.channelMu.RLock()
		_, exists := hub.channels["session-1"]
		hub.channelMu.RUnlock()
		assert.False(t, exists)
	})
}

func TestHubNilSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Broadcast("s", NewProgress(StageParsing, 1, "x"))
	})
	assert.Equal(t, 0, hub.ActiveConnections())
}
