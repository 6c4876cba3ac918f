package store

import (
	"sync"

	"go.uber.org/zap"

	"mintflow/internal/models"
)

// SubscriberBuffer is the per-subscriber event buffer. Consumers that fall
// behind lose the oldest events; they re-fetch on reconnect anyway.
const SubscriberBuffer = 10

// Hub is the cross-screen multicast channel for update events. Publishing
// never blocks; a full subscriber drops its oldest event first.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan models.UpdateEvent
	nextID int
	logger *zap.Logger
}

// NewHub creates an event hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[int]chan models.UpdateEvent),
		logger: logger.Named("hub"),
	}
}

// Subscribe registers a consumer. The returned cancel func unsubscribes
// and closes the channel.
func (h *Hub) Subscribe() (<-chan models.UpdateEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan models.UpdateEvent, SubscriberBuffer)
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

// Publish fans an event out to every subscriber
func (h *Hub) Publish(ev models.UpdateEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Drop the oldest buffered event to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
				h.logger.Warn("Dropping update event", zap.Int("subscriber", id))
			}
		}
	}
}

// Subscribers returns the current subscriber count
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
