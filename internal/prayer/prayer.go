package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
)

// Name identifies one of the five daily prayers.
type Name string

const (
	Fajr    Name = "fajr"
	Dhuhr   Name = "dhuhr"
	Asr     Name = "asr"
	Maghrib Name = "maghrib"
	Isha    Name = "isha"
)

// Names lists the daily prayers in canonical order. Ties between identical
// clock times are always broken by position in this list.
var Names = []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

// ShortNames maps prayer names to single-character abbreviations.
var ShortNames = map[Name]string{
	Fajr:    "F",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// Title returns the display form of the name, e.g. "Maghrib".
func (n Name) Title() string {
	if n == "" {
		return ""
	}
	s := string(n)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Index returns the canonical position of n, or -1 for unknown names.
func (n Name) Index() int {
	for i, c := range Names {
		if c == n {
			return i
		}
	}
	return -1
}

// Clock is a wall-clock reading with no date attached.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24-hour). Surrounding whitespace is ignored.
// The second return is false for anything else: wrong segment count,
// non-numeric parts, hours outside [0,23] or minutes outside [0,59].
func ParseClock(s string) (Clock, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Clock{}, false
	}
	// Atoi takes a leading sign; a segment must start with a digit.
	for _, p := range parts {
		if p == "" || p[0] < '0' || p[0] > '9' {
			return Clock{}, false
		}
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return Clock{}, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return Clock{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, false
	}

	return Clock{Hour: hour, Minute: minute}, true
}

// ParseClockPtr is ParseClock for nullable payload fields; nil is unparseable.
func ParseClockPtr(s *string) (Clock, bool) {
	if s == nil {
		return Clock{}, false
	}
	return ParseClock(*s)
}

// On places the clock on date's calendar day, in date's location.
func (c Clock) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// SlotView is one row of a mosque's daily schedule, for display.
type SlotView struct {
	Name   Name
	Starts *string
	Jamat  *string
}

// Slots returns the five daily slots in canonical order.
func Slots(pt api.PrayerTimes) []SlotView {
	return []SlotView{
		{Name: Fajr, Starts: pt.Fajr.Starts, Jamat: pt.Fajr.Jamat},
		{Name: Dhuhr, Starts: pt.Dhuhr.Starts, Jamat: pt.Dhuhr.Jamat},
		{Name: Asr, Starts: pt.Asr.Starts, Jamat: pt.Asr.Jamat},
		{Name: Maghrib, Starts: pt.Maghrib.Starts, Jamat: pt.Maghrib.Jamat},
		{Name: Isha, Starts: pt.Isha.Starts, Jamat: pt.Isha.Jamat},
	}
}

// Unusable lists the prayers whose jamat time cannot take part in resolution.
func Unusable(pt api.PrayerTimes) []Name {
	var out []Name
	for _, s := range Slots(pt) {
		if _, ok := ParseClockPtr(s.Jamat); !ok {
			out = append(out, s.Name)
		}
	}
	return out
}

// Jumah returns the Friday congregation times that parse, in payload order.
func Jumah(pt api.PrayerTimes) []Clock {
	var out []Clock
	for _, s := range []*string{pt.Jumah1, pt.Jumah2} {
		if c, ok := ParseClockPtr(s); ok {
			out = append(out, c)
		}
	}
	return out
}
