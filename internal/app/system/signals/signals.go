// Package signals provides the in-process event hub connecting the
// lifecycle manager to the components that must react to its writes: the
// approval surface re-fetches when the pending list changes, and open admin
// views re-check the role gate when claims are refreshed. Events are
// advisory ("go look again"), not data carriers, and are never persisted.
package signals

import "sync"

// Topics.
const (
	// RoleRefreshed fires after a principal's role or status changed so
	// open views re-evaluate the role gate without a page reload.
	RoleRefreshed = "role-refreshed"

	// PendingListChanged fires when the set of pending elevation requests
	// or admin notifications may have changed (signup, approve, reject,
	// delete).
	PendingListChanged = "pending-list-changed"
)

// Event is one published signal. Subject optionally carries the id of the
// user the event is about.
type Event struct {
	Topic   string
	Subject string
}

// Hub is a minimal publish/subscribe fan-out. Publish never blocks: a
// subscriber that has fallen behind misses the event, which is safe because
// every event means "re-fetch", and the next fetch reads current state.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its channel. The channel
// is buffered; callers must drain it promptly or accept dropped events.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// once per channel returned by Subscribe.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers the event to every subscriber that has buffer room.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; drop rather than block the writer.
		}
	}
}
