package app

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"stepquest/internal/domain"
)

// CorrectionSource identifies which secondary source produced an absolute
// correction value.
type CorrectionSource string

const (
	SourceHistory    CorrectionSource = "history"
	SourceAggregator CorrectionSource = "aggregator"
)

// Syncer is the downstream trigger for accepted mutations. The reconciler
// calls it fire-and-forget; implementations catch and log their own errors.
type Syncer interface {
	SyncSteps(ctx context.Context, steps int) error
}

// Reconciler owns the authoritative "today" step counter. It merges live
// sensor deltas with absolute corrections, persists every accepted mutation
// to the local state store before returning, and triggers a best-effort
// remote sync afterwards.
//
// Deltas and corrections are structurally different: a delta is a relative
// adjustment from the live stream, a correction replaces the counter with an
// absolute value from a periodic poll. Exactly one of the two is applied per
// observation; adding a correction would double-count.
type Reconciler struct {
	mu      sync.Mutex
	state   domain.CounterState
	store   domain.StateStore
	syncer  Syncer
	history *HistoryAcceptor
	tracker *DeltaTracker
	now     func() time.Time
	logger  *log.Logger
}

// NewReconciler loads the persisted counter and returns a ready engine. If
// the stored day key does not match the current local date the counter is
// reset to zero and persisted before it is trusted.
func NewReconciler(ctx context.Context, store domain.StateStore, syncer Syncer, tracker *DeltaTracker, history *HistoryAcceptor) (*Reconciler, error) {
	r := &Reconciler{
		store:   store,
		syncer:  syncer,
		tracker: tracker,
		history: history,
		now:     time.Now,
		logger:  log.New(io.Discard, "", 0),
	}

	state, ok, err := store.LoadCounter(ctx)
	if err != nil {
		return nil, err
	}
	today := domain.DayKey(r.now())
	if !ok || state.DayKey != today {
		state = domain.CounterState{DayKey: today, Steps: 0}
		if err := store.SaveCounter(ctx, state); err != nil {
			return nil, err
		}
	}
	r.state = state
	return r, nil
}

// SetLogger sets a custom logger for swallowed persistence and sync errors.
func (r *Reconciler) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// SetClock overrides the time source, for tests.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Steps returns the authoritative step count for today.
func (r *Reconciler) Steps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Steps
}

// Day returns the day key the counter currently belongs to.
func (r *Reconciler) Day() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.DayKey
}

// ApplyDelta adds a validated positive sensor delta to the counter.
func (r *Reconciler) ApplyDelta(ctx context.Context, delta int) {
	if delta <= 0 {
		return
	}
	r.mu.Lock()
	r.state.Steps += delta
	steps := r.state.Steps
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.triggerSync(steps)
}

// ApplyCorrection replaces the counter with an absolute candidate from a
// secondary source, subject to that source's acceptance rule. Corrections
// never move the counter backward.
func (r *Reconciler) ApplyCorrection(ctx context.Context, candidate int, source CorrectionSource) {
	r.mu.Lock()
	accepted := false
	switch source {
	case SourceHistory:
		accepted = r.history.ShouldAccept(candidate, r.state.Steps, r.now())
	case SourceAggregator:
		accepted = candidate > r.state.Steps
	}
	if !accepted {
		r.mu.Unlock()
		return
	}
	r.state.Steps = candidate
	steps := r.state.Steps
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.triggerSync(steps)
}

// CheckRollover compares the current local date to the counter's day key and
// resets the counter on mismatch. Safe to call on every poll tick; checking
// repeatedly on the same date is a no-op.
func (r *Reconciler) CheckRollover(ctx context.Context) (rolled bool) {
	r.mu.Lock()
	today := domain.DayKey(r.now())
	if r.state.DayKey == today {
		r.mu.Unlock()
		return false
	}
	r.state = domain.CounterState{DayKey: today, Steps: 0}
	r.persistLocked(ctx)
	r.mu.Unlock()

	// Source baselines belong to the old day.
	r.tracker.Reset()
	r.history.Reset()
	return true
}

// persistLocked writes the counter through to the local store. A write error
// leaves the in-memory counter correct for this session; the next cold start
// may lose the unpersisted increment, which is accepted given how often this
// runs.
func (r *Reconciler) persistLocked(ctx context.Context) {
	if err := r.store.SaveCounter(ctx, r.state); err != nil {
		r.logger.Printf("persist counter: %v", err)
	}
}

// triggerSync fires the remote sync without blocking the caller. Failures
// are logged, never surfaced, and do not roll back local state; the next
// accepted mutation or poll tick retries naturally.
func (r *Reconciler) triggerSync(steps int) {
	if r.syncer == nil {
		return
	}
	go func() {
		if err := r.syncer.SyncSteps(context.Background(), steps); err != nil {
			r.logger.Printf("remote sync: %v", err)
		}
	}()
}
