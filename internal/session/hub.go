// Package session coordinates session lifecycle state across portal tabs.
//
// Browser tabs sharing the auth cookie subscribe to the event stream
// (GET /api/session/events); when one tab logs out, the hub fans the event out
// to every open subscription so the remaining tabs drop their local session
// immediately instead of discovering the dead cookie on their next API call.
//
// Delivery is advisory and at-most-once. A tab that misses an event still
// converges: its next authenticated request fails with 401 and the portal
// resets to the login screen.
package session

import (
	"sync"
	"time"

	"github.com/large-event/teamd-backend/internal/telemetry"
)

// Event types fanned out to subscribers.
const (
	EventLogin  = "login"
	EventLogout = "logout"
)

// Event is a session lifecycle notification.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Source identifies the request that triggered the event so the
	// originating tab can ignore its own notification.
	Source string `json:"source,omitempty"`
}

// Hub fans session events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event rather than stalling the
// request that triggered it.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its event channel plus a
// cancel function. The channel is closed when cancel is called or the hub
// shuts down.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	ch := make(chan Event, 8)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every current subscriber. A zero Timestamp is
// filled in with the current time.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	telemetry.SessionEventsPublished.WithLabelValues(event.Type).Inc()

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full; it converges via its next 401.
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close shuts the hub down and closes all subscriber channels. Publish and
// Subscribe become no-ops afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
