package api

import (
	"encoding/json"
	"testing"

	"github.com/voicelink/voicelink-core/internal/infrastructure/config"
	"github.com/voicelink/voicelink-core/internal/infrastructure/logging"
)

func newTestClient(hub *Hub, username string) *WSClient {
	c := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		username:      username,
		subscriptions: make(map[string]struct{}),
	}
	hub.Register(c)
	return c
}

func drain(c *WSClient) []WSMessage {
	var out []WSMessage
	for {
		select {
		case data := <-c.send:
			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestHubBroadcastScopedToUser(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")

	hub.BroadcastState("alice", "lamp-1", map[string]any{"power": "ON"})

	got := drain(alice)
	if len(got) != 1 {
		t.Fatalf("alice messages = %d, want 1", len(got))
	}
	if got[0].Type != WSTypeEvent || got[0].EventType != WSEventStateChanged {
		t.Errorf("message = %+v, want state_changed event", got[0])
	}

	if n := len(drain(bob)); n != 0 {
		t.Errorf("bob messages = %d, want 0", n)
	}
}

func TestHubBroadcastHonoursSubscriptions(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	c := newTestClient(hub, "alice")

	c.mu.Lock()
	c.subscriptions["thermo-1"] = struct{}{}
	c.mu.Unlock()

	hub.BroadcastState("alice", "lamp-1", map[string]any{"power": "ON"})
	if n := len(drain(c)); n != 0 {
		t.Errorf("messages = %d, want 0 for unsubscribed device", n)
	}

	hub.BroadcastState("alice", "thermo-1", map[string]any{"temperature": 21.5})
	if n := len(drain(c)); n != 1 {
		t.Errorf("messages = %d, want 1 for subscribed device", n)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	c := newTestClient(hub, "alice")

	hub.Unregister(c)
	if _, open := <-c.send; open {
		t.Error("send channel still open after unregister")
	}

	// Double unregister must not panic.
	hub.Unregister(c)

	// Broadcast to a closed client must not panic either.
	hub.BroadcastState("alice", "lamp-1", map[string]any{"power": "ON"})
	if hub.ClientCount() != 0 {
		t.Errorf("clients = %d, want 0", hub.ClientCount())
	}
}
