package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
	"github.com/smokyabdulrahman/jamaat-times/internal/display"
	"github.com/smokyabdulrahman/jamaat-times/internal/prayer"
)

func runToday(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.selectedMosque(cmd)
	if err != nil {
		return err
	}

	now := a.clk.Now()
	r := prayer.Resolve(m.PrayerTimes, now)
	if bad := prayer.Unusable(m.PrayerTimes); len(bad) > 0 {
		a.logger.Debug("slots excluded from resolution", "mosque", m.ID, "slots", bad)
	}

	if FlagJSON {
		return printTodayJSON(cmd.OutOrStdout(), m, r, now, a.timeFormat())
	}

	printTodayRich(cmd.OutOrStdout(), m, r, now, a.timeFormat())
	return nil
}

// printTodayRich renders the colored terminal output for today's timetable.
func printTodayRich(w io.Writer, m *api.Mosque, r *prayer.Resolved, now time.Time, goTimeFmt string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(m.Name))
	if m.Postcode != "" {
		fmt.Fprintf(w, "  %s\n", display.Gray(m.Postcode))
	}
	fmt.Fprintf(w, "  %s\n", prayer.FormatDate(now))
	fmt.Fprintf(w, "  %s\n", display.Gray(now.Location().String()))
	fmt.Fprintln(w)

	fmt.Fprint(w, scheduleTable(m.PrayerTimes, r, now, goTimeFmt).Render())

	if jumah := jumahTimes(m.PrayerTimes, now, goTimeFmt); len(jumah) > 0 {
		fmt.Fprintf(w, "  %s %s\n", display.Dim("Jumah"), strings.Join(jumah, ", "))
	}

	fmt.Fprintln(w)
	line := prayer.DeltaLine(r, now)
	switch {
	case r == nil:
		fmt.Fprintf(w, "  %s\n", display.Dim(line))
	case r.IsPast:
		fmt.Fprintf(w, "  %s\n", display.Current(line))
	default:
		fmt.Fprintf(w, "  %s\n", display.Accent(line))
	}
	fmt.Fprintln(w)
}

// scheduleTable builds the five-row timetable with the resolved prayer
// highlighted.
func scheduleTable(pt api.PrayerTimes, r *prayer.Resolved, now time.Time, goTimeFmt string) *display.Table {
	tbl := display.NewTable([]string{"Prayer", "Starts", "Jamaat"})
	for i, s := range prayer.Slots(pt) {
		tbl.AddRow([]string{
			s.Name.Title(),
			prayer.DisplayTime(s.Starts, now, goTimeFmt),
			prayer.DisplayTime(s.Jamat, now, goTimeFmt),
		})
		if r == nil || r.Name != s.Name {
			continue
		}
		if r.IsPast {
			tbl.SetRowState(i, display.RowCurrent)
		} else {
			tbl.SetRowState(i, display.RowNext)
		}
	}
	return tbl
}

func jumahTimes(pt api.PrayerTimes, now time.Time, goTimeFmt string) []string {
	var out []string
	for _, c := range prayer.Jumah(pt) {
		out = append(out, c.On(now).Format(goTimeFmt))
	}
	return out
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Mosque   todayJSONMosque  `json:"mosque"`
	Date     string           `json:"date"`
	Timezone string           `json:"timezone"`
	Timings  []todayJSONSlot  `json:"timings"`
	Jumah    []string         `json:"jumah,omitempty"`
	Resolved *todayJSONStatus `json:"resolved"`
	Line     string           `json:"line"`
}

type todayJSONMosque struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Postcode string `json:"postcode,omitempty"`
	MapsLink string `json:"maps_link,omitempty"`
}

type todayJSONSlot struct {
	Prayer string  `json:"prayer"`
	Starts *string `json:"starts"`
	Jamat  *string `json:"jamat"`
}

type todayJSONStatus struct {
	Prayer string `json:"prayer"`
	Time   string `json:"time"`
	IsPast bool   `json:"is_past"`
	Delta  string `json:"delta"`
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(w io.Writer, m *api.Mosque, r *prayer.Resolved, now time.Time, goTimeFmt string) error {
	out := todayJSON{
		Mosque: todayJSONMosque{
			ID:       m.ID,
			Name:     m.Name,
			Postcode: m.Postcode,
			MapsLink: m.GoogleMapsLink,
		},
		Date:     clock.DayKey(now),
		Timezone: now.Location().String(),
		Jumah:    jumahTimes(m.PrayerTimes, now, goTimeFmt),
		Line:     prayer.DeltaLine(r, now),
	}

	for _, s := range prayer.Slots(m.PrayerTimes) {
		out.Timings = append(out.Timings, todayJSONSlot{
			Prayer: string(s.Name),
			Starts: s.Starts,
			Jamat:  s.Jamat,
		})
	}

	if r != nil {
		out.Resolved = &todayJSONStatus{
			Prayer: string(r.Name),
			Time:   r.Target.Format(goTimeFmt),
			IsPast: r.IsPast,
			Delta:  prayer.FormatDelta(r.Target, now),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
