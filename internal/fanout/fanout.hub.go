// FilePath: internal/fanout/fanout.hub.go

// Package fanout pushes ingest events to currently connected viewers.
// Delivery is best-effort: a subscriber that connects mid-broadcast or
// cannot keep up simply misses events, it is not a durable log.
package fanout

import (
	"encoding/json"
	"sync"

	nuts "github.com/vaudience/go-nuts"
)

// Event names emitted on the wire.
const (
	EventTelemetry      = "telemetry"
	EventThresholdAlert = "threshold_alert"
	EventShockAlert     = "shock_alert"
)

// envelope is the wire frame for every fan-out message
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub maintains the set of live subscriber sessions
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// Register adds a subscriber session. Ownership is session-scoped: the
// client removes itself when its connection ends.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	nuts.L.Infof("[Fanout] Subscriber connected (%d live)", count)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	nuts.L.Infof("[Fanout] Subscriber disconnected (%d live)", count)
}

// Broadcast pushes one event to every subscriber live at call time.
// A subscriber whose send buffer is full is dropped rather than allowed
// to stall the ingest path.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		nuts.L.Errorf("[Fanout] Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.Lock()
	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			nuts.L.Warnf("[Fanout] Subscriber send buffer full, dropping connection")
			delete(h.clients, client)
			close(client.send)
		}
	}
	h.mu.Unlock()
}

// SubscriberCount reports the number of live sessions
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
