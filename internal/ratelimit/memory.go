package ratelimit

import (
	"context"
	"sync"
	"time"
)

// windowEntry tracks one client's current window.
type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-memory fixed-window limiter. Each key owns a counter
// and a reset timestamp; the counter is replaced, not decremented, when the
// window rolls over. An optional background sweep evicts expired entries so the
// key map does not grow without bound in long-lived processes.
type MemoryLimiter struct {
	limit  int
	window time.Duration

	// Clock overrides the time source. Nil means time.Now().UTC.
	Clock func() time.Time

	mu      sync.Mutex
	entries map[string]*windowEntry
	done    chan struct{}
	closed  bool
}

// NewMemoryLimiter creates an in-memory limiter allowing limit requests per
// window. A positive sweepInterval starts a background goroutine that evicts
// expired windows; zero disables the sweep and expired entries are only
// replaced when their key is next seen.
func NewMemoryLimiter(limit int, window, sweepInterval time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweep(sweepInterval)
	}
	return m
}

// Check applies the fixed-window algorithm for key.
func (m *MemoryLimiter) Check(_ context.Context, key string) Result {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || now.After(entry.resetAt) {
		// First request of a fresh window, whether the key is new or its
		// previous window has lapsed.
		entry = &windowEntry{count: 1, resetAt: now.Add(m.window)}
		m.entries[key] = entry
		return Result{
			Allowed:   true,
			Limit:     m.limit,
			Remaining: m.limit - 1,
			ResetAt:   entry.resetAt,
		}
	}

	if entry.count >= m.limit {
		// Denied requests do not consume a slot.
		return Result{
			Allowed:    false,
			Limit:      m.limit,
			Remaining:  0,
			ResetAt:    entry.resetAt,
			RetryAfter: entry.resetAt.Sub(now),
		}
	}

	entry.count++
	return Result{
		Allowed:   true,
		Limit:     m.limit,
		Remaining: m.limit - entry.count,
		ResetAt:   entry.resetAt,
	}
}

// Close stops the background sweep goroutine.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
}

// Len reports the number of tracked keys. Used by the sweep tests.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *MemoryLimiter) evictExpired() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.entries {
		if now.After(entry.resetAt) {
			delete(m.entries, key)
		}
	}
}

func (m *MemoryLimiter) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now().UTC()
}
