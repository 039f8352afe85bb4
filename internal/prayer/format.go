package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Placeholder is shown wherever there is nothing to resolve.
const Placeholder = "—"

// Format constants for status-line modes.
const (
	FormatDeltaLine          = "delta-line"
	FormatTimeRemaining      = "time-remaining"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Display name, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Time      string // Jamat time, e.g. "16:15" or "4:15 PM"
	Delta     string // "01:14:00" or "05:00"
	Direction string // "in" or "ago"
	IsPast    bool
	Line      string // the full delta line
}

// FormatDelta renders |target-now| in whole seconds as HH:MM:SS, or MM:SS
// when the hour component is zero.
func FormatDelta(target, now time.Time) string {
	d := target.Sub(now)
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// DeltaLine renders the countdown line, e.g. "Isha Jamaat in 01:14:00" or
// "Maghrib Jamaat 05:00 ago". A nil resolution renders Placeholder.
func DeltaLine(r *Resolved, now time.Time) string {
	if r == nil {
		return Placeholder
	}
	delta := FormatDelta(r.Target, now)
	if r.IsPast {
		return fmt.Sprintf("%s Jamaat %s ago", r.Name.Title(), delta)
	}
	return fmt.Sprintf("%s Jamaat in %s", r.Name.Title(), delta)
}

// FormatOutput formats a resolution for a status line according to mode.
// timeFormat should be "15:04" for 24h or "3:04 PM" for 12h.
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Name, .ShortName, .Time, .Delta, .Direction,
// .IsPast, .Line
//
// Example: "{{.ShortName}} {{.Delta}}" -> "I 01:14:00"
func FormatOutput(r *Resolved, now time.Time, mode string, timeFormat string) string {
	if r == nil {
		return Placeholder
	}

	name := r.Name.Title()
	short := ShortNames[r.Name]
	timeStr := r.Target.Format(timeFormat)
	delta := FormatDelta(r.Target, now)
	relative := "in " + delta
	direction := "in"
	if r.IsPast {
		relative = delta + " ago"
		direction = "ago"
	}

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      name,
			ShortName: short,
			Time:      timeStr,
			Delta:     delta,
			Direction: direction,
			IsPast:    r.IsPast,
			Line:      DeltaLine(r, now),
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return relative
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", name, timeStr)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", name, relative)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, relative)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", name, timeStr, relative)
	default:
		return DeltaLine(r, now)
	}
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}

// FormatDate renders the long date shown in headers, e.g.
// "Thursday, 15 October 2026".
func FormatDate(t time.Time) string {
	return t.Format("Monday, 02 January 2006")
}

// DisplayTime renders a payload clock string for tables. Parseable values
// are placed on day and formatted with layout; blank or nil values render
// Placeholder; anything else is shown as published.
func DisplayTime(s *string, day time.Time, layout string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return Placeholder
	}
	if c, ok := ParseClock(*s); ok {
		return c.On(day).Format(layout)
	}
	return strings.TrimSpace(*s)
}
