package store

import (
	"sync"

	"putt-session-system/models"
)

// hub fans committed snapshots out to in-process watchers. It is the push
// half of the Subscribe contract; both store implementations share it.
// Callbacks run synchronously on the publishing goroutine, with no ordering
// guarantee relative to a client's own in-flight writes; subscribers only
// rely on eventually seeing the final document.
type hub struct {
	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]func(*models.Session)
	listeners map[int]func([]*models.Session)
}

func newHub() *hub {
	return &hub{
		watchers:  map[string]map[int]func(*models.Session){},
		listeners: map[int]func([]*models.Session){},
	}
}

func (h *hub) subscribe(id string, fn func(*models.Session)) func() {
	h.mu.Lock()
	h.nextID++
	key := h.nextID
	if h.watchers[id] == nil {
		h.watchers[id] = map[int]func(*models.Session){}
	}
	h.watchers[id][key] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if m := h.watchers[id]; m != nil {
			delete(m, key)
			if len(m) == 0 {
				delete(h.watchers, id)
			}
		}
	}
}

func (h *hub) subscribeOpen(fn func([]*models.Session)) func() {
	h.mu.Lock()
	h.nextID++
	key := h.nextID
	h.listeners[key] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, key)
	}
}

// publish delivers a snapshot (nil on deletion) to every watcher of id.
// Each watcher gets its own deep copy so nobody shares mutable state.
func (h *hub) publish(id string, snap *models.Session) {
	h.mu.Lock()
	fns := make([]func(*models.Session), 0, len(h.watchers[id]))
	for _, fn := range h.watchers[id] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(snap.Clone())
	}
}

// publishOpen re-delivers the full open-session list to listing watchers.
func (h *hub) publishOpen(list []*models.Session) {
	h.mu.Lock()
	fns := make([]func([]*models.Session), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		out := make([]*models.Session, len(list))
		for i, s := range list {
			out[i] = s.Clone()
		}
		fn(out)
	}
}

// hasListeners lets implementations skip the list re-query when nobody is
// watching the open-session listing.
func (h *hub) hasListeners() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners) > 0
}
