// Package clock abstracts wall time so that timer-driven code can be tested
// deterministically. Production code uses Real; tests use Fake.
package clock

import "time"

// Clock provides the current time and delayed callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc waits for d to elapse and then calls f in its own goroutine.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the Timer from firing. It returns false if the timer has
	// already fired or been stopped.
	Stop() bool
}

// Real implements Clock with the time package.
type Real struct{}

// NewReal returns the system clock.
func NewReal() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// In returns a Clock whose readings are in loc. Day keys and midnights
// derived from it follow loc rather than the host zone.
func In(c Clock, loc *time.Location) Clock {
	if loc == nil {
		return c
	}
	return located{Clock: c, loc: loc}
}

type located struct {
	Clock
	loc *time.Location
}

func (l located) Now() time.Time {
	return l.Clock.Now().In(l.loc)
}

// DayKey returns the local calendar date of t as YYYY-MM-DD. Schedule data is
// cached per day key.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NextMidnight returns the start of the calendar day after t, in t's location.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// UntilMidnight returns the duration from t to the next local midnight.
func UntilMidnight(t time.Time) time.Duration {
	return NextMidnight(t).Sub(t)
}
