// Package sched runs a job on a fixed period.
package sched

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler invokes Job, waits the full Period, and repeats until the
// context is cancelled. Cycles never overlap, and a slow cycle does not
// shorten the wait that follows it.
type Scheduler struct {
	Period time.Duration
	Clock  clockwork.Clock // nil means the real clock
	Job    func(context.Context)
}

// Run executes the loop. The job always runs once immediately; Run returns
// the context's error once it is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Job(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(s.Period):
		}
	}
}
