package app

import (
	"sync"
	"time"
)

// HistoryAcceptor decides whether a point-in-time reading from the OS
// pedometer history API may replace the authoritative counter. Some devices
// return a cached constant from that API for long stretches; accepting it
// naively freezes the counter even while the live sensor keeps reporting
// motion, so a value that repeats unchanged beyond the staleness window is
// treated as frozen and rejected.
type HistoryAcceptor struct {
	mu        sync.Mutex
	window    time.Duration
	lastValue int
	seen      bool
	firstSeen time.Time
}

// NewHistoryAcceptor creates an acceptor with the given staleness window.
func NewHistoryAcceptor(window time.Duration) *HistoryAcceptor {
	return &HistoryAcceptor{window: window}
}

// ShouldAccept reports whether candidate v observed at now may replace
// current. A value is accepted only while it moves the counter forward and
// has not been repeating unchanged for longer than the window; a changed
// value resets the staleness clock.
func (a *HistoryAcceptor) ShouldAccept(v, current int, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seen || v != a.lastValue {
		a.seen = true
		a.lastValue = v
		a.firstSeen = now
	}

	if v <= current {
		return false
	}
	return now.Sub(a.firstSeen) <= a.window
}

// Reset clears the staleness tracking, e.g. on midnight rollover.
func (a *HistoryAcceptor) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen = false
	a.lastValue = 0
	a.firstSeen = time.Time{}
}
