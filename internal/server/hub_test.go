package server

import (
	"sync"
	"testing"
)

type fakeClient struct {
	id string

	mu     sync.Mutex
	events []Event
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (c *fakeClient) ID() string {
	return c.id
}

func (c *fakeClient) Deliver(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *fakeClient) recorded() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeClient) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

func TestHubAudiences(t *testing.T) {
	hub := NewHub()
	first := newFakeClient("conn-1")
	second := newFakeClient("conn-2")
	hub.Register(first)
	hub.Register(second)

	hub.Broadcast(Event{Event: "a"})
	if len(first.recorded()) != 1 || len(second.recorded()) != 1 {
		t.Fatalf("broadcast must reach every connection")
	}

	hub.BroadcastExcept("conn-1", Event{Event: "b"})
	if len(first.recorded()) != 1 {
		t.Fatalf("broadcast-except must skip the excluded connection")
	}
	if len(second.recorded()) != 2 {
		t.Fatalf("broadcast-except must reach the others")
	}

	hub.SendTo("conn-1", Event{Event: "c"})
	if len(first.recorded()) != 2 || len(second.recorded()) != 2 {
		t.Fatalf("send-to must reach only its target")
	}

	hub.Unregister("conn-2")
	hub.Broadcast(Event{Event: "d"})
	if len(second.recorded()) != 2 {
		t.Fatalf("unregistered connection must not receive events")
	}
}

func TestHubSendToUnknownConnection(t *testing.T) {
	hub := NewHub()
	// Must not panic.
	hub.SendTo("missing", Event{Event: "a"})
}
