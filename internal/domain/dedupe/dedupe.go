// Package dedupe tracks recently seen transaction ids so the async intake
// path can drop duplicates.
package dedupe

import "sync"

const defaultCapacity = 500_000

// Tracker remembers the most recent ids up to a fixed capacity. When the
// capacity is reached the oldest recorded id is forgotten, so memory stays
// bounded no matter how long the process runs.
type Tracker struct {
	mu    sync.Mutex
	ring  []string
	slots map[string]int // id -> ring slot currently holding it
	next  int
}

// New builds a tracker holding up to capacity ids. Non-positive capacities
// fall back to the default.
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Tracker{
		ring:  make([]string, capacity),
		slots: make(map[string]int, capacity),
	}
}

// SeenAndRecord reports whether the id was already recorded; if not, it
// records it, evicting the oldest id when full. The check and the record
// are one atomic step.
func (t *Tracker) SeenAndRecord(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.slots[id]; ok {
		return true
	}

	// The slot may hold an id that was already unrecorded; only forget
	// the occupant if the map still points here.
	if old := t.ring[t.next]; old != "" {
		if slot, ok := t.slots[old]; ok && slot == t.next {
			delete(t.slots, old)
		}
	}
	t.ring[t.next] = id
	t.slots[id] = t.next
	t.next = (t.next + 1) % len(t.ring)
	return false
}

// Unrecord forgets the id so a later submission is not treated as a
// duplicate. Used to roll back when a recorded transaction fails to
// enqueue.
func (t *Tracker) Unrecord(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.slots, id)
}

// Size returns the number of ids currently remembered.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
