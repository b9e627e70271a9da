package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"stepquest/internal/domain"
)

var errSaveFailed = errors.New("save failed")

// Sensor is an in-memory sensor stream. Tests and the demo mode drive it by
// calling Emit with cumulative readings.
type Sensor struct {
	mu         sync.Mutex
	handlers   map[uuid.UUID]func(domain.SensorEvent)
	subscribes int
}

// NewSensor creates an idle sensor.
func NewSensor() *Sensor {
	return &Sensor{handlers: make(map[uuid.UUID]func(domain.SensorEvent))}
}

var _ domain.SensorStream = (*Sensor)(nil)

// Subscribe registers a handler and returns its cancellation handle.
func (s *Sensor) Subscribe(handler func(domain.SensorEvent)) (domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.handlers[id] = handler
	s.subscribes++
	return domain.Subscription{
		ID: id,
		Cancel: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.handlers, id)
		},
	}, nil
}

// Emit delivers a cumulative reading to all active subscribers.
func (s *Sensor) Emit(steps int, at time.Time) {
	s.mu.Lock()
	handlers := make([]func(domain.SensorEvent), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(domain.SensorEvent{Steps: steps, At: at})
	}
}

// SubscribeCount returns how many subscriptions were ever established, so
// tests can observe watchdog resubscriptions.
func (s *Sensor) SubscribeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes
}

// ActiveSubscriptions returns the number of live subscriptions.
func (s *Sensor) ActiveSubscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// History is an in-memory system history source.
type History struct {
	mu          sync.Mutex
	steps       int
	unavailable bool
}

// NewHistory creates a history source reporting zero steps.
func NewHistory() *History {
	return &History{}
}

var _ domain.HistorySource = (*History)(nil)

// SetSteps sets the value the source reports.
func (h *History) SetSteps(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = n
}

// SetUnavailable toggles the unavailable state.
func (h *History) SetUnavailable(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unavailable = v
}

// StepsBetween returns the configured value regardless of the interval.
func (h *History) StepsBetween(ctx context.Context, start, end time.Time) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unavailable {
		return 0, domain.ErrUnavailable
	}
	return h.steps, nil
}

// Aggregator is an in-memory health aggregator source.
type Aggregator struct {
	mu          sync.Mutex
	records     []domain.StepRecord
	unavailable bool
}

// NewAggregator creates an aggregator with no records.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

var _ domain.AggregatorSource = (*Aggregator)(nil)

// SetRecords sets the records the source returns.
func (a *Aggregator) SetRecords(records []domain.StepRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append([]domain.StepRecord(nil), records...)
}

// SetUnavailable toggles the unavailable state.
func (a *Aggregator) SetUnavailable(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unavailable = v
}

// StepRecordsBetween returns the configured records.
func (a *Aggregator) StepRecordsBetween(ctx context.Context, start, end time.Time) ([]domain.StepRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unavailable {
		return nil, domain.ErrUnavailable
	}
	return append([]domain.StepRecord(nil), a.records...), nil
}

// Lifecycle is an in-memory foreground/background signal.
type Lifecycle struct {
	ch chan bool
}

// NewLifecycle creates a lifecycle signal.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{ch: make(chan bool, 1)}
}

var _ domain.LifecycleSignal = (*Lifecycle)(nil)

// Foreground returns the transition channel.
func (l *Lifecycle) Foreground() <-chan bool {
	return l.ch
}

// Resume signals a foreground-resume transition.
func (l *Lifecycle) Resume() {
	select {
	case l.ch <- true:
	default:
	}
}
