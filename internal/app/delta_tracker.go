package app

import (
	"sync"
	"time"
)

// DeltaTracker converts a cumulative sensor stream into validated positive
// deltas. The stream resets to an arbitrary baseline whenever a subscription
// starts, so the first event after (re)subscription only primes the baseline.
type DeltaTracker struct {
	mu       sync.Mutex
	maxDelta int
	primed   bool
	baseline int
	lastAt   time.Time
}

// NewDeltaTracker creates a tracker rejecting single deltas above maxDelta.
func NewDeltaTracker(maxDelta int) *DeltaTracker {
	return &DeltaTracker{maxDelta: maxDelta}
}

// Observe records one cumulative reading and returns the derived delta.
// ok is false when no delta should be applied: the priming event, jitter
// (delta <= 0) and implausible jumps (delta > maxDelta) are all dropped.
// An implausible jump still advances the baseline so the same jump is not
// re-applied on the next event.
func (t *DeltaTracker) Observe(reported int, at time.Time) (delta int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAt = at

	if !t.primed {
		t.primed = true
		t.baseline = reported
		return 0, false
	}

	delta = reported - t.baseline
	// Always advance the baseline: a negative delta means the counter
	// restarted underneath us, and an oversized one must not be re-applied
	// on the next event.
	t.baseline = reported
	if delta <= 0 || delta > t.maxDelta {
		return 0, false
	}
	return delta, true
}

// LastEventAt returns when the most recent sensor event of any kind arrived.
// The watchdog uses this to detect a throttled or dead subscription.
func (t *DeltaTracker) LastEventAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastAt
}

// Reset clears the baseline so the next event primes it again. Called on
// resubscription and on midnight rollover.
func (t *DeltaTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primed = false
	t.baseline = 0
}
