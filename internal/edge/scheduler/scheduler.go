// FilePath: internal/edge/scheduler/scheduler.go

// Package scheduler runs the edge device's periodic concerns on a single
// goroutine. Each concern is one entry in a fixed task table; one loop
// iteration gives every due task at most one unit of work, so no concern
// can starve another.
package scheduler

import (
	"context"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// tickResolution is how long the loop sleeps between iterations. It bounds
// scheduling jitter for the fastest cadence.
const tickResolution = 5 * time.Millisecond

type task struct {
	name     string
	interval time.Duration // zero means every iteration
	lastRun  time.Time
	run      func(now time.Time)
}

// Scheduler is a cooperative, non-preemptive task loop
type Scheduler struct {
	tasks []*task
	now   func() time.Time
	sleep func(d time.Duration)
}

func New() *Scheduler {
	return &Scheduler{
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// AddTask appends one periodic concern to the table. Tasks run in
// registration order within an iteration; an interval of zero runs the task
// every iteration.
func (s *Scheduler) AddTask(name string, interval time.Duration, run func(now time.Time)) {
	s.tasks = append(s.tasks, &task{
		name:     name,
		interval: interval,
		run:      run,
	})
}

// Tick executes one loop iteration
func (s *Scheduler) Tick() {
	now := s.now()
	for _, t := range s.tasks {
		if t.interval > 0 && now.Sub(t.lastRun) < t.interval {
			continue
		}
		t.lastRun = now
		t.run(now)
	}
}

// Run loops until the context is cancelled. On a real device the context
// never ends; cancellation stands in for a device reset.
func (s *Scheduler) Run(ctx context.Context) {
	nuts.L.Infof("[Scheduler] Loop started with %d tasks", len(s.tasks))
	for {
		select {
		case <-ctx.Done():
			nuts.L.Infof("[Scheduler] Loop stopped: %v", ctx.Err())
			return
		default:
		}
		s.Tick()
		s.sleep(tickResolution)
	}
}
