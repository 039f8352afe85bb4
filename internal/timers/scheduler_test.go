package timers

import (
	"testing"
	"time"

	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
)

func newFake() *clock.Fake {
	return clock.NewFake(time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC))
}

func TestEvery_TicksEachInterval(t *testing.T) {
	clk := newFake()
	s := New(clk)

	ticks := 0
	s.Every(time.Second, func() { ticks++ })

	clk.Advance(10 * time.Second)
	if ticks != 10 {
		t.Errorf("ticks = %d, want 10", ticks)
	}
}

func TestEvery_Cancel(t *testing.T) {
	clk := newFake()
	s := New(clk)

	ticks := 0
	cancel := s.Every(time.Second, func() { ticks++ })
	clk.Advance(3 * time.Second)
	cancel()
	clk.Advance(10 * time.Second)

	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
	if s.Active() != 0 {
		t.Errorf("Active = %d, want 0", s.Active())
	}
}

func TestAtMidnight_FiresOnDayChange(t *testing.T) {
	clk := newFake()
	s := New(clk)

	var fired []string
	s.AtMidnight(func() { fired = append(fired, clock.DayKey(clk.Now())) })

	clk.Advance(time.Minute)
	if len(fired) != 1 || fired[0] != "2026-10-16" {
		t.Fatalf("fired %v, want [2026-10-16]", fired)
	}

	clk.Advance(24 * time.Hour)
	if len(fired) != 2 || fired[1] != "2026-10-17" {
		t.Errorf("fired %v, want second rollover on 2026-10-17", fired)
	}
}

// earlyClock wakes AfterFunc callbacks a fixed amount before they are due,
// the way a coarse OS timer can.
type earlyClock struct {
	*clock.Fake
	early time.Duration
}

func (c earlyClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	if d > c.early {
		d -= c.early
	}
	return c.Fake.AfterFunc(d, f)
}

func TestAtMidnight_RearmsWhenWokenEarly(t *testing.T) {
	fake := newFake()
	clk := earlyClock{Fake: fake, early: 5 * time.Second}
	s := New(clk)

	fired := 0
	s.AtMidnight(func() { fired++ })

	// Wakes at 23:59:55, still the same day.
	fake.Advance(55 * time.Second)
	if fired != 0 {
		t.Fatalf("fired %d times before midnight", fired)
	}
	if s.Active() != 1 {
		t.Fatalf("midnight timer not re-armed, Active = %d", s.Active())
	}

	fake.Advance(10 * time.Second)
	if fired != 1 {
		t.Errorf("fired = %d after midnight, want 1", fired)
	}
}

func TestStop_CancelsEverything(t *testing.T) {
	clk := newFake()
	s := New(clk)

	ticks, rollovers := 0, 0
	s.Every(time.Second, func() { ticks++ })
	s.AtMidnight(func() { rollovers++ })
	if s.Active() != 2 {
		t.Fatalf("Active = %d, want 2", s.Active())
	}

	s.Stop()
	clk.Advance(48 * time.Hour)

	if ticks != 0 || rollovers != 0 {
		t.Errorf("ticks=%d rollovers=%d after Stop, want 0", ticks, rollovers)
	}
	if clk.Pending() != 0 {
		t.Errorf("fake clock still has %d timers armed", clk.Pending())
	}
}

func TestStop_FromInsideTick(t *testing.T) {
	clk := newFake()
	s := New(clk)

	ticks := 0
	s.Every(time.Second, func() {
		ticks++
		if ticks == 2 {
			s.Stop()
		}
	})
	clk.Advance(10 * time.Second)

	if ticks != 2 {
		t.Errorf("ticks = %d, want 2", ticks)
	}
}

func TestRegisterAfterStop(t *testing.T) {
	clk := newFake()
	s := New(clk)
	s.Stop()
	s.Stop()

	ran := false
	s.Every(time.Second, func() { ran = true })
	s.AtMidnight(func() { ran = true })
	clk.Advance(48 * time.Hour)

	if ran {
		t.Error("task registered after Stop ran")
	}
}
