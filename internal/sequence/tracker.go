package sequence

import (
	"sync"
)

// Tracker records arrival order of received values to explain loss,
// duplication and reordering that the index-wise comparison cannot.
type Tracker struct {
	seen      map[int]struct{}
	highest   int
	incoming  uint32
	duplicate uint32
	reordered uint32
	mu        sync.RWMutex
}

// NewTracker creates a new Tracker
func NewTracker() *Tracker {
	return &Tracker{
		seen: make(map[int]struct{}),
	}
}

// Track records one received value and reports whether it arrived after a
// larger value had already been seen
func (t *Tracker) Track(v int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.incoming++

	if _, ok := t.seen[v]; ok {
		t.duplicate++
		return false
	}
	t.seen[v] = struct{}{}

	if v < t.highest {
		t.reordered++
		return true
	}
	t.highest = v
	return false
}

// Missing counts the values of 1..n that never arrived
func (t *Tracker) Missing(n int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	missing := 0
	for i := 1; i <= n; i++ {
		if _, ok := t.seen[i]; !ok {
			missing++
		}
	}
	return missing
}

// GetStats returns tracking statistics
func (t *Tracker) GetStats() (incoming, duplicate, reordered uint32) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.incoming, t.duplicate, t.reordered
}
