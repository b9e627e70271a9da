package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable marks a step source that cannot be queried right now (not
// initialized, permission denied, unsupported platform). Callers must treat
// it as "no new information", never as zero steps.
var ErrUnavailable = errors.New("step source unavailable")

// SensorEvent is one reading from the live step sensor. Steps is cumulative
// since subscription start, not since midnight.
type SensorEvent struct {
	Steps int
	At    time.Time
}

// Subscription is a handle to an active sensor stream.
type Subscription struct {
	ID     uuid.UUID
	Cancel func()
}

// SensorStream is the port for the live pedometer stream. Delivery is
// at-least-once at an OS-determined cadence; handlers must be idempotent.
type SensorStream interface {
	Subscribe(handler func(SensorEvent)) (Subscription, error)
}

// HistorySource is the port for the OS pedometer history API. Returns the
// step count covering [start, end), or ErrUnavailable where the platform has
// no such API.
type HistorySource interface {
	StepsBetween(ctx context.Context, start, end time.Time) (int, error)
}

// StepRecord is one aggregator record with the app/device that contributed it.
type StepRecord struct {
	Origin string
	Count  int
}

// AggregatorSource is the port for a third-party health-data store that
// merges multiple origins. Returns ErrUnavailable when it cannot be queried,
// which is distinct from an empty result.
type AggregatorSource interface {
	StepRecordsBetween(ctx context.Context, start, end time.Time) ([]StepRecord, error)
}

// LifecycleSignal is the port for foreground/background transition
// notifications. The returned channel delivers true on foreground-resume.
type LifecycleSignal interface {
	Foreground() <-chan bool
}
