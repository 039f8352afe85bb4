package prayer

import (
	"sort"
	"time"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
)

// GraceWindow is how long a jamat stays "current" after it has started.
const GraceWindow = 10 * time.Minute

// Resolved is the prayer to highlight at a given instant.
type Resolved struct {
	Name Name
	// IsPast is true while the jamat is inside the grace window (shown as
	// "ago"); false when Target is still ahead.
	IsPast bool
	Target time.Time
}

type candidate struct {
	name Name
	idx  int
	at   time.Time
}

// Resolve picks the prayer to highlight for now. It returns nil when no slot
// has a usable jamat time. Resolve is pure: the result depends only on pt and
// now, and times are placed on now's calendar day in now's location.
func Resolve(pt api.PrayerTimes, now time.Time) *Resolved {
	var cands []candidate
	for i, s := range Slots(pt) {
		c, ok := ParseClockPtr(s.Jamat)
		if !ok {
			continue
		}
		cands = append(cands, candidate{name: s.Name, idx: i, at: c.On(now)})
	}
	if len(cands) == 0 {
		return nil
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].at.Equal(cands[j].at) {
			return cands[i].idx < cands[j].idx
		}
		return cands[i].at.Before(cands[j].at)
	})

	// Latest jamat at or before now. Among equal instants the canonical
	// first one wins, so stop at the first element of the last run.
	past := -1
	for i, c := range cands {
		if c.at.After(now) {
			break
		}
		if past == -1 || !c.at.Equal(cands[past].at) {
			past = i
		}
	}
	if past >= 0 && now.Sub(cands[past].at) <= GraceWindow {
		return &Resolved{Name: cands[past].name, IsPast: true, Target: cands[past].at}
	}

	for _, c := range cands {
		if c.at.After(now) {
			return &Resolved{Name: c.name, Target: c.at}
		}
	}

	// Everything has passed: tomorrow's earliest jamat.
	first := cands[0]
	return &Resolved{Name: first.name, Target: first.at.AddDate(0, 0, 1)}
}
