package opener

import (
	"context"
	"sync"
	"time"
)

// historyEntry tracks one client+category recency list.
type historyEntry struct {
	items   []string
	resetAt time.Time
}

// MemoryStore is the default in-process history store. Entries expire as a
// whole once their TTL passes; an optional background sweep evicts lapsed
// entries so the map does not grow without bound in long-lived processes.
type MemoryStore struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]*historyEntry
	done    chan struct{}
	closed  bool
}

// NewMemoryStore creates an in-memory history store whose entries expire ttl
// after their first write. A positive sweepInterval starts a background
// goroutine that evicts expired histories; zero disables the sweep.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]*historyEntry),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

// Recent returns the live history for key, most-recent-first.
func (s *MemoryStore) Recent(_ context.Context, key string, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	if now.After(entry.resetAt) {
		delete(s.entries, key)
		return nil
	}

	// Copy so callers never observe later mutations.
	items := make([]string, len(entry.items))
	copy(items, entry.items)
	return items
}

// Remember prepends item to the history for key.
func (s *MemoryStore) Remember(_ context.Context, key, item string, cap int, now time.Time) {
	if cap <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &historyEntry{resetAt: now.Add(s.ttl)}
		s.entries[key] = entry
	}

	entry.items = append([]string{item}, entry.items...)
	if len(entry.items) > cap {
		entry.items = entry.items[:cap]
	}
}

// Close stops the background sweep goroutine.
func (s *MemoryStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// Len reports the number of tracked histories.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired(time.Now().UTC())
		}
	}
}

func (s *MemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if now.After(entry.resetAt) {
			delete(s.entries, key)
		}
	}
}
