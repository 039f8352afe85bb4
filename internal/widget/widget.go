// Package widget renders a one-shot snapshot of the selected mosque's day
// for status bars and home-screen style hosts. It owns no timers: the host
// decides when to call Render again.
package widget

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
	"github.com/smokyabdulrahman/jamaat-times/internal/prayer"
)

// DefaultTimeout bounds one Render, preferences and fetch included.
const DefaultTimeout = 10 * time.Second

// Preferences is the read side of the preference store.
type Preferences interface {
	Selected(ctx context.Context) (string, error)
}

// Schedule supplies the day's payload.
type Schedule interface {
	Mosques(ctx context.Context) ([]api.Mosque, error)
}

// Deps are the collaborators of Render.
type Deps struct {
	Prefs    Preferences
	Schedule Schedule
	Clock    clock.Clock
	Location *time.Location
	// TimeFormat is the Go layout of the header clock, "15:04" by default.
	TimeFormat string
	Timeout    time.Duration
	Logger     *log.Logger
}

// Cell is one prayer column.
type Cell struct {
	Name    prayer.Name `json:"name"`
	Title   string      `json:"title"`
	Jamat   string      `json:"jamat"`
	Current bool        `json:"current"`
}

// Data is everything a host needs to draw the widget.
type Data struct {
	MosqueID   string `json:"mosque_id,omitempty"`
	MosqueName string `json:"mosque_name"`
	Cells      []Cell `json:"cells"`
	Line       string `json:"line"`
	Clock      string `json:"clock"`
}

// Placeholder returns the data shown when there is no mosque to render.
func Placeholder(clockText string) Data {
	cells := make([]Cell, len(prayer.Names))
	for i, n := range prayer.Names {
		cells[i] = Cell{Name: n, Title: n.Title(), Jamat: prayer.Placeholder}
	}
	return Data{
		MosqueName: "No mosque selected",
		Cells:      cells,
		Line:       prayer.Placeholder,
		Clock:      clockText,
	}
}

// Render reads the selection, loads the schedule and resolves once.
// A missing selection, or a selection absent from the payload, yields
// placeholder data and no error. Storage and fetch failures also yield
// placeholder data, together with the error.
func Render(ctx context.Context, d Deps) (Data, error) {
	d = d.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	now := d.Clock.Now().In(d.Location)
	out := Placeholder(now.Format(d.TimeFormat))

	id, err := d.Prefs.Selected(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read selected mosque: %w", err)
	}
	if id == "" {
		d.Logger.Debug("widget: no mosque selected")
		return out, nil
	}

	ms, err := d.Schedule.Mosques(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to load schedule: %w", err)
	}

	m := api.FindMosque(ms, id)
	if m == nil {
		d.Logger.Debug("widget: selected mosque not in payload", "id", id)
		return out, nil
	}

	return Build(m, now, d.TimeFormat), nil
}

// Build renders data for m at now, formatting the header clock with
// timeFormat.
func Build(m *api.Mosque, now time.Time, timeFormat string) Data {
	r := prayer.Resolve(m.PrayerTimes, now)

	cells := make([]Cell, 0, len(prayer.Names))
	for _, s := range prayer.Slots(m.PrayerTimes) {
		c := Cell{Name: s.Name, Title: s.Name.Title(), Jamat: prayer.Placeholder}
		if s.Jamat != nil && strings.TrimSpace(*s.Jamat) != "" {
			c.Jamat = strings.TrimSpace(*s.Jamat)
		}
		c.Current = r != nil && r.Name == s.Name
		cells = append(cells, c)
	}

	return Data{
		MosqueID:   m.ID,
		MosqueName: m.Name,
		Cells:      cells,
		Line:       prayer.DeltaLine(r, now),
		Clock:      now.Format(timeFormat),
	}
}

// String renders d as three plain lines, the current cell in brackets.
func (d Data) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n", d.MosqueName, d.Clock)

	parts := make([]string, len(d.Cells))
	for i, c := range d.Cells {
		parts[i] = c.Title + " " + c.Jamat
		if c.Current {
			parts[i] = "[" + parts[i] + "]"
		}
	}
	sb.WriteString(strings.Join(parts, " | "))
	sb.WriteString("\n")
	sb.WriteString(d.Line)
	return sb.String()
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.NewReal()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.TimeFormat == "" {
		d.TimeFormat = "15:04"
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	return d
}
