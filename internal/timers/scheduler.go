// Package timers owns the periodic and midnight timers of a single view.
package timers

import (
	"sync"
	"time"

	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
)

// Scheduler runs repeating tasks and the midnight rollover task for one view.
// Stop cancels everything it armed; tasks registered after Stop never run.
type Scheduler struct {
	clk clock.Clock

	mu      sync.Mutex
	stopped bool
	nextID  int
	pending map[int]clock.Timer
}

// New returns a Scheduler driven by clk.
func New(clk clock.Clock) *Scheduler {
	return &Scheduler{clk: clk, pending: make(map[int]clock.Timer)}
}

// Every calls fn every d until the returned cancel func or Stop is called.
func (s *Scheduler) Every(d time.Duration, fn func()) (cancel func()) {
	id, ok := s.register()
	if !ok {
		return func() {}
	}

	var fire func()
	fire = func() {
		if !s.rearm(id, d, fire) {
			return
		}
		fn()
	}
	s.arm(id, d, fire)
	return func() { s.cancel(id) }
}

// AtMidnight calls fn each time the local calendar day changes. If the timer
// wakes before the day key has changed it re-arms without calling fn.
func (s *Scheduler) AtMidnight(fn func()) (cancel func()) {
	id, ok := s.register()
	if !ok {
		return func() {}
	}

	day := clock.DayKey(s.clk.Now())
	var fire func()
	fire = func() {
		now := s.clk.Now()
		today := clock.DayKey(now)
		if !s.rearm(id, untilMidnight(now), fire) {
			return
		}
		if today == day {
			return
		}
		day = today
		fn()
	}
	s.arm(id, untilMidnight(s.clk.Now()), fire)
	return func() { s.cancel(id) }
}

// Stop cancels all armed timers. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

// Active reports how many tasks are armed.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) register() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, false
	}
	s.nextID++
	return s.nextID, true
}

func (s *Scheduler) arm(id int, d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending[id] = s.clk.AfterFunc(d, fire)
}

// rearm schedules the next run of a task that just fired. It reports false
// when the task has been cancelled in the meantime.
func (s *Scheduler) rearm(id int, d time.Duration, fire func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if _, ok := s.pending[id]; !ok {
		return false
	}
	s.pending[id] = s.clk.AfterFunc(d, fire)
	return true
}

func (s *Scheduler) cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
}

func untilMidnight(now time.Time) time.Duration {
	d := clock.UntilMidnight(now)
	if d <= 0 {
		return time.Second
	}
	return d
}
