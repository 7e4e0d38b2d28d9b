package opener

import (
	"context"
	"math/rand"
	"time"

	"github.com/daybreakhq/daybreak/internal/metrics"
)

// Defaults applied when the corresponding Rotator field is unset.
const (
	DefaultHistoryCap  = 20
	DefaultRetryBudget = 12
	DefaultHistoryTTL  = 24 * time.Hour
)

// Rotator picks openers from a bank while avoiding each client's recent picks.
// Selection draws uniformly from the bank up to the retry budget; when every
// draw lands on a recent opener the final draw is accepted anyway, so small
// banks repeat instead of failing.
type Rotator struct {
	store       Store
	historyCap  int
	retryBudget int

	// Clock overrides the time source. Nil means time.Now().UTC.
	Clock func() time.Time

	// Rand overrides the random source with a func returning [0, n). Nil means
	// math/rand.
	Rand func(n int) int
}

// New creates a rotator over the given history store. A historyCap of zero
// disables history entirely; a negative cap or retryBudget falls back to the
// package defaults.
func New(store Store, historyCap, retryBudget int) *Rotator {
	if historyCap < 0 {
		historyCap = DefaultHistoryCap
	}
	if retryBudget <= 0 {
		retryBudget = DefaultRetryBudget
	}
	return &Rotator{
		store:       store,
		historyCap:  historyCap,
		retryBudget: retryBudget,
	}
}

// Pick selects an opener from bank for the client+category pair. The pick is
// recorded in the pair's history so following picks avoid it until it ages
// out. An empty bank returns "".
func (r *Rotator) Pick(ctx context.Context, category, client string, bank []string) string {
	if len(bank) == 0 {
		return ""
	}

	now := r.now()
	key := client + ":" + category
	recent := r.store.Recent(ctx, key, now)

	var pick string
	degraded := true
	for attempt := 0; attempt < r.retryBudget; attempt++ {
		pick = bank[r.intn(len(bank))]
		if !contains(recent, pick) {
			degraded = false
			break
		}
	}

	if r.historyCap > 0 {
		r.store.Remember(ctx, key, pick, r.historyCap, now)
	}

	metrics.RecordOpenerPick(category, degraded)
	return pick
}

// Close releases the underlying store.
func (r *Rotator) Close() {
	r.store.Close()
}

func (r *Rotator) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}

func (r *Rotator) intn(n int) int {
	if r.Rand != nil {
		return r.Rand(n)
	}
	return rand.Intn(n)
}

func contains(values []string, needle string) bool {
	for _, value := range values {
		if value == needle {
			return true
		}
	}
	return false
}
