// Package journal keeps the most recent notification outcomes in a fixed-size
// ring buffer for the dashboard's notification history.
package journal

import (
	"sync"

	"github.com/ciops/alertdesk/pkg/types"
)

// DefaultSize is used when New is given a non-positive size.
const DefaultSize = 200

// Journal is a thread-safe ring buffer of notification outcomes.
type Journal struct {
	mu      sync.RWMutex
	entries []types.NotificationOutcome
	head    int // next write position
	count   int
}

// New creates a Journal holding at most size entries.
func New(size int) *Journal {
	if size <= 0 {
		size = DefaultSize
	}
	return &Journal{entries: make([]types.NotificationOutcome, size)}
}

// Record appends o, evicting the oldest entry when full.
func (j *Journal) Record(o types.NotificationOutcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[j.head] = o
	j.head = (j.head + 1) % len(j.entries)
	if j.count < len(j.entries) {
		j.count++
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns everything.
func (j *Journal) Recent(n int) []types.NotificationOutcome {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if n <= 0 || n > j.count {
		n = j.count
	}
	out := make([]types.NotificationOutcome, 0, n)
	for i := 1; i <= n; i++ {
		idx := (j.head - i + len(j.entries)) % len(j.entries)
		out = append(out, j.entries[idx])
	}
	return out
}

// Len returns the number of entries held.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.count
}
