package app

import (
	"context"
	"io"
	"log"
	"time"
)

// Scheduler runs the background pass on a best-effort cadence when the host
// is this process itself (the usual host is an external timer invoking
// stepquest-sync). The interval is a minimum hint only; a slow or suspended
// process simply runs less often, and a failed pass waits for the next tick.
type Scheduler struct {
	pass     *BackgroundPass
	interval time.Duration
	logger   *log.Logger

	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates a scheduler invoking pass at least interval apart.
func NewScheduler(pass *BackgroundPass, interval time.Duration) *Scheduler {
	return &Scheduler{
		pass:     pass,
		interval: interval,
		logger:   log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger.
func (s *Scheduler) SetLogger(logger *log.Logger) { s.logger = logger }

// Start launches the loop. The first pass runs after one full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.pass.Run(ctx); err != nil {
					s.logger.Printf("background pass: %v", err)
				}
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}
