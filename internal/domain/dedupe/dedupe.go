// Package dedupe tracks which keys a pass has already seen.
package dedupe

import (
	"sync"
)

// Tracker records keys and counts repeats. It is safe for concurrent use.
type Tracker interface {
	// SeenAndRecord atomically checks if key was seen and records it.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key string) bool

	// Repeats returns how many times key was recorded after its first time.
	Repeats(key string) int

	// Duplicates returns keys recorded more than once, in the order their
	// first repeat was seen.
	Duplicates() []string

	// Size returns the number of distinct keys.
	Size() int
}

type keyTracker struct {
	mu      sync.Mutex
	seen    map[string]int
	repeats []string
}

// NewTracker creates an empty key tracker.
func NewTracker(opts ...Option) Tracker {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &keyTracker{seen: make(map[string]int, cfg.capacity)}
}

func (t *keyTracker) SeenAndRecord(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, exists := t.seen[key]
	t.seen[key] = n + 1
	if !exists {
		return false
	}
	if n == 1 {
		t.repeats = append(t.repeats, key)
	}
	return true
}

func (t *keyTracker) Repeats(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := t.seen[key]; n > 1 {
		return n - 1
	}
	return 0
}

func (t *keyTracker) Duplicates() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.repeats))
	copy(out, t.repeats)
	return out
}

func (t *keyTracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
