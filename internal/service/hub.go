package service

import (
	"sync"

	"smartfarmer_console/internal/models"
)

const defaultSubscriberBuffer = 4

// Hub fans rendered views out to subscribers. Show never blocks:
// a subscriber that falls behind loses its oldest pending view.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan models.View]struct{}
	buffer int
}

// NewHub builds a hub with the given per-subscriber buffer (<= 0 uses the default).
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{subs: make(map[chan models.View]struct{}), buffer: buffer}
}

// Show implements console.Display.
func (h *Hub) Show(v models.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// full: drop the oldest and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func closes the channel and is safe to call twice.
func (h *Hub) Subscribe() (<-chan models.View, func()) {
	ch := make(chan models.View, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
