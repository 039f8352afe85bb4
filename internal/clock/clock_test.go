package clock

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 21:30 UTC is already the next day at UTC+5.
	ts := time.Date(2026, 3, 1, 21, 30, 0, 0, time.UTC).In(loc)
	if got := DayKey(ts); got != "2026-03-02" {
		t.Errorf("DayKey = %q, want 2026-03-02", got)
	}
}

func TestNextMidnight(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid-day", time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
		{"exactly midnight", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"year end", time.Date(2026, 12, 31, 12, 0, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextMidnight(tt.in); !got.Equal(tt.want) {
				t.Errorf("NextMidnight(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUntilMidnight(t *testing.T) {
	ts := time.Date(2026, 10, 15, 23, 59, 30, 0, time.UTC)
	if got := UntilMidnight(ts); got != 30*time.Second {
		t.Errorf("UntilMidnight = %v, want 30s", got)
	}
}

func TestUntilMidnight_DSTShortDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks go forward at 01:00 on 2026-03-29.
	ts := time.Date(2026, 3, 29, 0, 0, 0, 0, loc)
	if got := UntilMidnight(ts); got != 23*time.Hour {
		t.Errorf("UntilMidnight on DST day = %v, want 23h", got)
	}
}

// ---------------------------------------------------------------------------
// Fake
// ---------------------------------------------------------------------------

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var got []string
	f.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	f.AfterFunc(time.Second, func() { got = append(got, "a") })
	f.AfterFunc(time.Minute, func() { got = append(got, "late") })

	f.Advance(5 * time.Second)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("fired %v, want [a b]", got)
	}
	if !f.Now().Equal(start.Add(5 * time.Second)) {
		t.Errorf("Now = %v", f.Now())
	}
	if f.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", f.Pending())
	}
}

func TestFake_NowInsideCallback(t *testing.T) {
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var seen time.Time
	f.AfterFunc(3*time.Second, func() { seen = f.Now() })
	f.Advance(10 * time.Second)

	if !seen.Equal(start.Add(3 * time.Second)) {
		t.Errorf("callback saw %v, want due time", seen)
	}
}

func TestFake_RearmFromCallback(t *testing.T) {
	f := NewFake(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	count := 0
	var tick func()
	tick = func() {
		count++
		f.AfterFunc(time.Second, tick)
	}
	f.AfterFunc(time.Second, tick)

	f.Advance(5 * time.Second)
	if count != 5 {
		t.Errorf("ticks = %d, want 5", count)
	}
}

func TestFake_Stop(t *testing.T) {
	f := NewFake(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	fired := false
	tm := f.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Error("first Stop should report true")
	}
	if tm.Stop() {
		t.Error("second Stop should report false")
	}
	f.Advance(time.Hour)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFake_SetBackwardsFiresNothing(t *testing.T) {
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	fired := false
	f.AfterFunc(time.Second, func() { fired = true })
	f.Set(start.Add(-time.Hour))

	if fired {
		t.Error("timer fired on backwards jump")
	}
	if !f.Now().Equal(start) {
		t.Errorf("Now moved backwards to %v", f.Now())
	}
}

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := NewReal().Now()
	if got.Before(before) {
		t.Errorf("Real.Now() = %v, before %v", got, before)
	}
}

func TestIn_ReadsInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	f := NewFake(time.Date(2026, 10, 15, 22, 30, 0, 0, time.UTC))
	c := In(f, loc)

	now := c.Now()
	if now.Location() != loc {
		t.Errorf("location = %v, want %v", now.Location(), loc)
	}
	if DayKey(now) != "2026-10-16" {
		t.Errorf("DayKey = %q, want the next day in UTC+3", DayKey(now))
	}

	fired := false
	c.AfterFunc(time.Minute, func() { fired = true })
	f.Advance(time.Minute)
	if !fired {
		t.Error("AfterFunc should go through to the wrapped clock")
	}
}

func TestIn_NilLocation(t *testing.T) {
	f := NewFake(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
	if In(f, nil) != Clock(f) {
		t.Error("In(c, nil) should return c")
	}
}
