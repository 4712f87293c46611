package store

import (
	"sync"

	"github.com/idilsaglam/tada/internal/model"
)

// Hub fans committed snapshots out to subscribers. Backends embed it and
// call Publish after each successful write, outside their own lock.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func([]model.Todo)
}

func (h *Hub) Subscribe(fn func([]model.Todo)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = map[int]func([]model.Todo){}
	}
	id := h.next
	h.next++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Active reports whether anyone is listening, so backends can skip the
// extra read when nobody is.
func (h *Hub) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs) > 0
}

func (h *Hub) Publish(items []model.Todo) {
	h.mu.Lock()
	fns := make([]func([]model.Todo), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		// each subscriber gets its own copy
		cp := make([]model.Todo, len(items))
		copy(cp, items)
		fn(cp)
	}
}
