package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// EventSpotsChanged tells subscribers the visible spot set may have changed
// and a fresh query is worthwhile.
const EventSpotsChanged = "spots_changed"

// EventConfigChanged tells subscribers the session configuration changed.
const EventConfigChanged = "config_changed"

// subscriberBuffer is the per-subscriber channel depth; a slow consumer
// loses coalesced notifications, not data.
const subscriberBuffer = 8

// Event is a change notification pushed to delivery-layer subscribers.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

// Hub fans change notifications out to delivery-layer subscribers so they
// can push instead of poll. Notifications carry no spot data; subscribers
// re-query the session. Bursts of store mutations coalesce into one event
// per limiter window.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event

	limiter *rate.Limiter
	pending atomic.Bool
}

// New creates a hub that emits at most one spots-changed event per interval.
func New(minInterval time.Duration) *Hub {
	if minInterval <= 0 {
		minInterval = 200 * time.Millisecond
	}
	return &Hub{
		subs:    make(map[string]chan Event),
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// NotifySpots signals that stored spots changed. Calls beyond the rate
// limit set a pending flag that Run flushes, so the last burst is never
// lost, just delayed by one window.
func (h *Hub) NotifySpots() {
	if h.limiter.Allow() {
		h.broadcast(Event{Type: EventSpotsChanged, At: time.Now()})
		return
	}
	h.pending.Store(true)
}

// NotifyConfig signals a configuration change. Config changes are rare and
// bypass the limiter.
func (h *Hub) NotifyConfig() {
	h.broadcast(Event{Type: EventConfigChanged, At: time.Now()})
}

// Run flushes coalesced notifications until the context is canceled.
func (h *Hub) Run(ctx context.Context, flushInterval time.Duration) {
	if flushInterval <= 0 {
		flushInterval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.pending.Swap(false) {
				h.broadcast(Event{Type: EventSpotsChanged, At: time.Now()})
			}
		}
	}
}

// broadcast sends to every subscriber without blocking; full channels are
// skipped since a fresher event always follows.
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
