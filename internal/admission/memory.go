package admission

import (
	"context"
	"sync"
	"time"
)

// pruneThreshold bounds the window map; expired entries are dropped once the
// map grows past it.
const pruneThreshold = 4096

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a mutex-guarded fixed-window counter map for the embedded
// topology. The clock is injectable for tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Take(ctx context.Context, key string, limit int, windowDur time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if !ok && len(l.windows) > pruneThreshold {
			l.prune(now)
		}
		w = window{count: 0, resetAt: now.Add(windowDur)}
	}

	if w.count >= limit {
		return false, w.resetAt.Sub(now), nil
	}

	w.count++
	l.windows[key] = w
	return true, 0, nil
}

// prune drops expired windows. Caller holds the lock.
func (l *MemoryLimiter) prune(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
