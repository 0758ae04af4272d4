package broadcastsvc

import (
	"sync"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

// Hub is the in-process invalidation fan-out: viewers subscribe for events
// instead of relying on ambient global signals. Delivery is best effort; a
// subscriber that falls behind loses events and simply re-reads on the next
// one.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan notice.Event
	next int
}

var _ notice.Broadcaster = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan notice.Event)}
}

// Subscribe registers interest. The returned cancel func must be called when
// the viewer goes away.
func (h *Hub) Subscribe(buffer int) (<-chan notice.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan notice.Event, buffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if ch, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (h *Hub) Broadcast(ev notice.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default: // slow subscriber; drop
		}
	}
}
