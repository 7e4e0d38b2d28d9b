// Package ratelimit provides fixed-window request limiting keyed by client
// identity. Windows are created lazily on first use and replaced in place once
// their reset time passes; a denied request never consumes a slot. Limiting is
// best-effort by design: state is per-process unless the Redis-backed limiter
// is selected.
package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Check applies the fixed-window algorithm for key and reports whether the
	// request is allowed, along with state for populating response headers.
	// Check never fails: backends that can error degrade to allowing the
	// request.
	Check(ctx context.Context, key string) Result

	// Close stops background goroutines and releases resources.
	Close()
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests left in the current window
	ResetAt    time.Time     // When the current window ends
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
