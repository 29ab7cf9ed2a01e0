// Package dedup suppresses re-emission of change events whose identity was
// already emitted within a configurable expiry window.
package dedup

import (
	"sync"
	"time"
)

// Cache maps dedup keys to their suppression deadline.
//
// Expired entries are dropped lazily on lookup and during the insert-time
// prune; there is no background sweep. The entry count is bounded by the
// number of distinct event identities seen within a window, plus a hard cap.
type Cache struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]time.Time
}

// New creates a cache. A zero window disables suppression entirely.
// maxEntries <= 0 applies a generous default cap.
func New(window time.Duration, maxEntries int) *Cache {
	if window < 0 {
		window = 0
	}
	if maxEntries <= 0 {
		maxEntries = 2000
	}
	return &Cache{
		window:  window,
		max:     maxEntries,
		entries: map[string]time.Time{},
	}
}

// Admit reports whether an event with the given key should be emitted at now.
// Admission records the key until now+window. Suppression does NOT refresh
// the deadline: the window decays from first observation, so a flapping
// identity cannot suppress itself forever.
func (c *Cache) Admit(key string, now time.Time) bool {
	if c.window == 0 || key == "" {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if until, ok := c.entries[key]; ok {
		if now.Before(until) {
			return false
		}
		delete(c.entries, key)
	}
	c.entries[key] = now.Add(c.window)

	c.pruneLocked(now)
	return true
}

// Len reports the live entry count (expired entries may still be counted
// until the next prune).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) pruneLocked(now time.Time) {
	for k, until := range c.entries {
		if !now.Before(until) {
			delete(c.entries, k)
		}
	}
	// Cap: drop entries closest to expiry until within bounds.
	for len(c.entries) > c.max {
		var (
			minKey string
			minT   time.Time
			set    bool
		)
		for k, t := range c.entries {
			if !set || t.Before(minT) {
				minKey, minT, set = k, t, true
			}
		}
		if !set {
			break
		}
		delete(c.entries, minKey)
	}
}
