// Package app holds the application services and business logic.
package app

import "time"

// Limits collects the empirically chosen thresholds of the reconciliation
// pipeline. They are configuration, not load-bearing correctness constants;
// tests override them freely.
type Limits struct {
	// MaxDelta is the largest single sensor delta accepted as plausible.
	MaxDelta int
	// StaleWindow bounds how long a repeated identical history reading is
	// still considered live.
	StaleWindow time.Duration
	// SyncMinInterval and SyncMinSteps gate foreground remote syncs: a sync
	// proceeds when either the interval has elapsed or the step delta is met.
	SyncMinInterval time.Duration
	SyncMinSteps    int
	// BackgroundMinInterval and BackgroundMinSteps are the same gate for the
	// background pass, tracked under separate bookkeeping.
	BackgroundMinInterval time.Duration
	BackgroundMinSteps    int
	// SensorSilence is how long the watchdog tolerates no accepted sensor
	// event before resubscribing.
	SensorSilence time.Duration
	// PollInterval is the cadence of the foreground poll tick (rollover
	// check, history/aggregator corrections, watchdog).
	PollInterval time.Duration
}

// DefaultLimits returns the production thresholds.
func DefaultLimits() Limits {
	return Limits{
		MaxDelta:              5000,
		StaleWindow:           20 * time.Second,
		SyncMinInterval:       30 * time.Second,
		SyncMinSteps:          300,
		BackgroundMinInterval: 60 * time.Minute,
		BackgroundMinSteps:    250,
		SensorSilence:         30 * time.Second,
		PollInterval:          5 * time.Second,
	}
}
