package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jamaat-times/internal/prayer"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the current or next jamaat on one line",
		Long: "Print a single line for status bars, e.g. \"Isha Jamaat in 01:14:00\".\n" +
			"A jamaat stays current for ten minutes after it starts.\n" +
			"Prints \"—\" instead of failing when there is nothing to show.",
		RunE: runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatDeltaLine,
		"Display format: delta-line, time-remaining, name-and-time, name-and-remaining, "+
			"short-name-and-time, short-name-and-remaining, full, or a custom Go template "+
			"(e.g. '{{.ShortName}} {{.Delta}}'). Template fields: .Name, .ShortName, .Time, "+
			".Delta, .Direction, .IsPast, .Line")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.clk.Now()

	// Status bars redraw on a timer; a failure prints the placeholder rather
	// than an error.
	m, err := a.selectedMosque(cmd)
	if err != nil {
		if !errors.Is(err, errNoSelection) {
			a.logger.Warn("next: no timetable", "err", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), prayer.Placeholder)
		return nil
	}

	r := prayer.Resolve(m.PrayerTimes, now)
	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(r, now, flagFormat, a.timeFormat()))
	return nil
}
