package app

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"stepquest/internal/domain"
	"stepquest/internal/identity"
)

// BackgroundPass is the reduced reconciliation+sync path run outside the
// foreground process, on whatever schedule the host grants. It rebuilds
// today's best-known step count from the local store and the absolute
// sources (the live sensor is not subscribed in this context), then invokes
// the same gateway operations under the background throttle.
type BackgroundPass struct {
	sessions   *identity.Manager
	store      domain.StateStore
	history    domain.HistorySource
	aggregator domain.AggregatorSource
	gateway    *SyncGateway
	now        func() time.Time
	logger     *log.Logger
}

// NewBackgroundPass wires a pass. history and aggregator may be nil where
// the platform offers no such source. gateway must be constructed with the
// background throttle and ThrottleKeyBackground.
func NewBackgroundPass(sessions *identity.Manager, store domain.StateStore, history domain.HistorySource, aggregator domain.AggregatorSource, gateway *SyncGateway) *BackgroundPass {
	return &BackgroundPass{
		sessions:   sessions,
		store:      store,
		history:    history,
		aggregator: aggregator,
		gateway:    gateway,
		now:        time.Now,
		logger:     log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger.
func (p *BackgroundPass) SetLogger(logger *log.Logger) { p.logger = logger }

// SetClock overrides the time source, for tests.
func (p *BackgroundPass) SetClock(now func() time.Time) { p.now = now }

// Run executes one pass. A signed-out user is a successful no-op; source
// unavailability falls back to the persisted counter.
func (p *BackgroundPass) Run(ctx context.Context) error {
	if _, err := p.sessions.Current(ctx); err != nil {
		if errors.Is(err, identity.ErrNotSignedIn) {
			return nil
		}
		return err
	}

	steps, err := p.bestTodaySteps(ctx)
	if err != nil {
		return err
	}
	return p.gateway.SyncSteps(ctx, steps)
}

// bestTodaySteps returns the highest trustworthy count for today: the
// persisted counter (reset first if it belongs to a previous day), raised by
// whichever absolute source reports more.
func (p *BackgroundPass) bestTodaySteps(ctx context.Context) (int, error) {
	now := p.now()
	today := domain.DayKey(now)

	state, ok, err := p.store.LoadCounter(ctx)
	if err != nil {
		return 0, err
	}
	if !ok || state.DayKey != today {
		state = domain.CounterState{DayKey: today, Steps: 0}
		if err := p.store.SaveCounter(ctx, state); err != nil {
			return 0, err
		}
	}
	steps := state.Steps

	candidate := p.readSources(ctx, domain.StartOfDay(now), now)
	if candidate > steps {
		steps = candidate
		if err := p.store.SaveCounter(ctx, domain.CounterState{DayKey: today, Steps: steps}); err != nil {
			p.logger.Printf("persist corrected counter: %v", err)
		}
	}
	return steps, nil
}

// readSources queries the aggregator and the history API concurrently and
// returns the larger candidate. Unavailable sources contribute nothing.
func (p *BackgroundPass) readSources(ctx context.Context, start, end time.Time) int {
	var fromAggregator, fromHistory int

	g, gctx := errgroup.WithContext(ctx)
	if p.aggregator != nil {
		g.Go(func() error {
			records, err := p.aggregator.StepRecordsBetween(gctx, start, end)
			if err != nil {
				if !errors.Is(err, domain.ErrUnavailable) {
					p.logger.Printf("aggregator read: %v", err)
				}
				return nil
			}
			fromAggregator = domain.MaxPerOrigin(records)
			return nil
		})
	}
	if p.history != nil {
		g.Go(func() error {
			n, err := p.history.StepsBetween(gctx, start, end)
			if err != nil {
				if !errors.Is(err, domain.ErrUnavailable) {
					p.logger.Printf("history read: %v", err)
				}
				return nil
			}
			fromHistory = n
			return nil
		})
	}
	_ = g.Wait()

	if fromAggregator > fromHistory {
		return fromAggregator
	}
	return fromHistory
}
