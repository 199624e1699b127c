package server

import "sync"

// client is a live connection the hub can deliver events to. Deliver must
// never block; a slow consumer drops events rather than stalling the turn.
type client interface {
	ID() string
	Deliver(evt Event)
}

// Hub is the registry of live connections and the fan-out point for
// outbound events. Audiences are broadcast-all, broadcast-others, and
// sender-only.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]client
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]client)}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID()] = c
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connectionID)
}

// SendTo delivers an event to a single connection, if still registered.
func (h *Hub) SendTo(connectionID string, evt Event) {
	h.mu.RLock()
	target, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if ok {
		target.Deliver(evt)
	}
}

// Broadcast delivers an event to every registered connection.
func (h *Hub) Broadcast(evt Event) {
	for _, target := range h.snapshot("") {
		target.Deliver(evt)
	}
}

// BroadcastExcept delivers an event to every connection but one.
func (h *Hub) BroadcastExcept(exceptID string, evt Event) {
	for _, target := range h.snapshot(exceptID) {
		target.Deliver(evt)
	}
}

func (h *Hub) snapshot(exceptID string) []client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	targets := make([]client, 0, len(h.clients))
	for id, target := range h.clients {
		if id == exceptID {
			continue
		}
		targets = append(targets, target)
	}
	return targets
}
