package monitor

import (
	"sync"

	"redistics/internal/model"
)

// Ring is a fixed-capacity replay buffer holding the most recent events.
// Older events fall off without affecting any aggregated totals downstream.
type Ring struct {
	mu    sync.Mutex
	buf   []model.MonitorEvent
	next  int
	full  bool
}

// NewRing creates a replay buffer keeping the latest capacity events.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{buf: make([]model.MonitorEvent, capacity)}
}

// OnEvent appends an event, evicting the oldest when full.
func (r *Ring) OnEvent(ev model.MonitorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = ev
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// Events returns the buffered events, oldest first.
func (r *Ring) Events() []model.MonitorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]model.MonitorEvent, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]model.MonitorEvent, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

// Clear discards all buffered events.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
	r.full = false
}
