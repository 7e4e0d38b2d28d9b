// Package opener selects affirmation opening lines while avoiding recent
// repeats. Each client+category pair owns a rolling recency list that expires
// as a whole after a fixed TTL, so long-absent clients cycle back to a clean
// slate. Selection is best-effort: a bounded number of random draws is made
// against the recency list and the final draw is accepted either way.
package opener

import (
	"context"
	"time"
)

// Store persists per-key opener recency lists. Implementations must be safe
// for concurrent use and must degrade silently: a failing backend returns an
// empty history rather than an error, trading opener diversity for
// availability.
type Store interface {
	// Recent returns the most-recent-first history for key, or nil when the
	// key is unknown or its history has expired as of now.
	Recent(ctx context.Context, key string, now time.Time) []string

	// Remember prepends item to the history for key and truncates it to cap
	// entries. A fresh history expires ttl after its first write; later writes
	// do not extend the deadline.
	Remember(ctx context.Context, key, item string, cap int, now time.Time)

	// Close releases background resources.
	Close()
}
