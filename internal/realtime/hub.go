package realtime

import (
	"sync"

	"signalshub/internal/models"
)

// Hub fans notifications out to live subscribers keyed by user fid.
// Slow subscribers drop messages instead of blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]map[*subscriber]struct{}
	buffer int
}

type subscriber struct {
	ch chan models.Notification
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: map[int64]map[*subscriber]struct{}{}, buffer: buffer}
}

// Subscribe registers a listener for fid. The returned cancel func must be
// called to release it; the channel is closed afterwards.
func (h *Hub) Subscribe(fid int64) (<-chan models.Notification, func()) {
	s := &subscriber{ch: make(chan models.Notification, h.buffer)}
	h.mu.Lock()
	set, ok := h.subs[fid]
	if !ok {
		set = map[*subscriber]struct{}{}
		h.subs[fid] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[fid], s)
			if len(h.subs[fid]) == 0 {
				delete(h.subs, fid)
			}
			close(s.ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Publish(n models.Notification) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[n.UserFid] {
		select {
		case s.ch <- n:
		default:
		}
	}
}

func (h *Hub) Subscribers(fid int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[fid])
}
