package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"stepquest/internal/domain"
)

// Supervisor owns the live sensor subscription and the foreground poll
// ticker. It is the single resource owner: Start acquires both, Stop
// releases both on every exit path. It resubscribes when the sensor has gone
// silent beyond the configured bound (platforms throttle background sensor
// delivery) and on foreground-resume transitions.
type Supervisor struct {
	sensor     domain.SensorStream
	history    domain.HistorySource
	aggregator domain.AggregatorSource
	lifecycle  domain.LifecycleSignal
	reconciler *Reconciler
	tracker    *DeltaTracker
	limits     Limits
	now        func() time.Time
	logger     *log.Logger

	mu      sync.Mutex
	sub     domain.Subscription
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSupervisor wires a supervisor. history, aggregator and lifecycle may be
// nil where the platform offers no such signal.
func NewSupervisor(sensor domain.SensorStream, history domain.HistorySource, aggregator domain.AggregatorSource, lifecycle domain.LifecycleSignal, reconciler *Reconciler, tracker *DeltaTracker, limits Limits) *Supervisor {
	return &Supervisor{
		sensor:     sensor,
		history:    history,
		aggregator: aggregator,
		lifecycle:  lifecycle,
		reconciler: reconciler,
		tracker:    tracker,
		limits:     limits,
		now:        time.Now,
		logger:     log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger.
func (s *Supervisor) SetLogger(logger *log.Logger) { s.logger = logger }

// SetClock overrides the time source, for tests.
func (s *Supervisor) SetClock(now func() time.Time) { s.now = now }

// Start subscribes to the sensor and launches the poll loop.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("supervisor already started")
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.resubscribe(ctx); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}

	go s.loop(ctx)
	return nil
}

// Stop tears down the subscription and the poll ticker. Idempotent.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	if s.sub.Cancel != nil {
		s.sub.Cancel()
		s.sub = domain.Subscription{}
	}
	s.mu.Unlock()
}

func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.limits.PollInterval)
	defer ticker.Stop()

	var foreground <-chan bool
	if s.lifecycle != nil {
		foreground = s.lifecycle.Foreground()
	}

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case resumed := <-foreground:
			// Sensor delivery is frequently suspended while backgrounded;
			// re-establish on resume.
			if resumed {
				if err := s.resubscribe(ctx); err != nil {
					s.logger.Printf("resubscribe on resume: %v", err)
				}
			}
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one poll pass: midnight rollover, corrections from the
// secondary sources, and the sensor watchdog.
func (s *Supervisor) Tick(ctx context.Context) {
	s.reconciler.CheckRollover(ctx)

	now := s.now()
	start := domain.StartOfDay(now)

	if s.history != nil {
		n, err := s.history.StepsBetween(ctx, start, now)
		switch {
		case errors.Is(err, domain.ErrUnavailable):
			// No such API on this platform; nothing to correct with.
		case err != nil:
			s.logger.Printf("history poll: %v", err)
		default:
			s.reconciler.ApplyCorrection(ctx, n, SourceHistory)
		}
	}

	if s.aggregator != nil {
		records, err := s.aggregator.StepRecordsBetween(ctx, start, now)
		switch {
		case errors.Is(err, domain.ErrUnavailable):
		case err != nil:
			s.logger.Printf("aggregator poll: %v", err)
		default:
			s.reconciler.ApplyCorrection(ctx, domain.MaxPerOrigin(records), SourceAggregator)
		}
	}

	if s.sensorStale(now) {
		if err := s.resubscribe(ctx); err != nil {
			s.logger.Printf("watchdog resubscribe: %v", err)
		}
	}
}

// sensorStale reports whether the watchdog bound has elapsed since the last
// sensor event of any kind.
func (s *Supervisor) sensorStale(now time.Time) bool {
	last := s.tracker.LastEventAt()
	if last.IsZero() {
		return false
	}
	return now.Sub(last) > s.limits.SensorSilence
}

// resubscribe tears down the current subscription, clears the delta
// baseline and subscribes anew.
func (s *Supervisor) resubscribe(ctx context.Context) error {
	s.mu.Lock()
	if s.sub.Cancel != nil {
		s.sub.Cancel()
		s.sub = domain.Subscription{}
	}
	s.mu.Unlock()

	s.tracker.Reset()

	sub, err := s.sensor.Subscribe(func(ev domain.SensorEvent) {
		at := ev.At
		if at.IsZero() {
			at = s.now()
		}
		if delta, ok := s.tracker.Observe(ev.Steps, at); ok {
			s.reconciler.ApplyDelta(ctx, delta)
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	s.logger.Printf("sensor subscribed (id=%s)", sub.ID)
	return nil
}
