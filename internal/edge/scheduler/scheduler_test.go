// FilePath: internal/edge/scheduler/scheduler_test.go
package scheduler

import (
	"testing"
	"time"
)

// fakeClock lets a test drive the loop's notion of time
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestScheduler(c *fakeClock) *Scheduler {
	s := New()
	s.now = func() time.Time { return c.current }
	return s
}

func TestTasksRunAtTheirOwnCadence(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	s := newTestScheduler(clock)

	var fast, slow int
	s.AddTask("fast", 20*time.Millisecond, func(now time.Time) { fast++ })
	s.AddTask("slow", 100*time.Millisecond, func(now time.Time) { slow++ })

	// Drive 100ms of loop iterations at 5ms resolution.
	for i := 0; i < 20; i++ {
		s.Tick()
		clock.advance(5 * time.Millisecond)
	}

	if fast != 5 {
		t.Errorf("fast task ran %d times over 100ms at 20ms cadence, want 5", fast)
	}
	if slow != 1 {
		t.Errorf("slow task ran %d times over 100ms at 100ms cadence, want 1", slow)
	}
}

func TestZeroIntervalTaskRunsEveryIteration(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	s := newTestScheduler(clock)

	var every int
	s.AddTask("every", 0, func(now time.Time) { every++ })

	for i := 0; i < 7; i++ {
		s.Tick()
		clock.advance(time.Millisecond)
	}
	if every != 7 {
		t.Errorf("zero-interval task ran %d times over 7 iterations, want 7", every)
	}
}

func TestOneUnitOfWorkPerConcernPerIteration(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	s := newTestScheduler(clock)

	var runs int
	s.AddTask("starved", 10*time.Millisecond, func(now time.Time) { runs++ })

	// A long gap between iterations must not produce catch-up bursts.
	clock.advance(10 * time.Second)
	s.Tick()
	if runs != 1 {
		t.Errorf("task ran %d times in one iteration after a long gap, want 1", runs)
	}
}

func TestRegistrationOrderWithinIteration(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	s := newTestScheduler(clock)

	var order []string
	s.AddTask("first", 0, func(now time.Time) { order = append(order, "first") })
	s.AddTask("second", 0, func(now time.Time) { order = append(order, "second") })

	s.Tick()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("tasks ran out of registration order: %v", order)
	}
}
