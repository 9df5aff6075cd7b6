// Package broadcast fans publish events out to connected display clients.
// Delivery is best-effort and never blocks the render path: each subscriber
// owns a buffered channel and a slow consumer loses events rather than
// stalling everyone else.
package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"screend/pkg/types"
)

const subscriberBuffer = 16

// Subscription is one connected display client for a tenant.
type Subscription struct {
	// ID identifies the subscription for logs and metrics.
	ID string
	// Tenant the subscription belongs to.
	Tenant string
	// C receives screen events until Unsubscribe closes it.
	C <-chan types.ScreenEvent

	ch chan types.ScreenEvent
}

// Hub multiplexes subscribers per tenant. Safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{} // tenant -> set

	onDrop func(tenant, subID string)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// SetDropHook installs a callback invoked when a full subscriber buffer
// forces an event drop. Used for metrics; must not block.
func (h *Hub) SetDropHook(fn func(tenant, subID string)) {
	h.mu.Lock()
	h.onDrop = fn
	h.mu.Unlock()
}

// Subscribe registers a new subscriber for tenant and returns its handle.
// Caller must call Unsubscribe when done to release the channel.
func (h *Hub) Subscribe(tenant string) *Subscription {
	ch := make(chan types.ScreenEvent, subscriberBuffer)
	sub := &Subscription{ID: uuid.NewString(), Tenant: tenant, C: ch, ch: ch}

	h.mu.Lock()
	set := h.subs[tenant]
	if set == nil {
		set = make(map[*Subscription]struct{})
		h.subs[tenant] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Idempotent.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.Tenant]
	if set == nil {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.Tenant)
	}
	close(sub.ch)
}

// Publish delivers ev to every current subscriber of its tenant.
// Non-blocking per subscriber: a full buffer drops the event.
func (h *Hub) Publish(ev types.ScreenEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.Tenant] {
		select {
		case sub.ch <- ev:
		default:
			if h.onDrop != nil {
				h.onDrop(ev.Tenant, sub.ID)
			}
		}
	}
}

// Count returns the number of subscribers for tenant.
func (h *Hub) Count(tenant string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tenant])
}
