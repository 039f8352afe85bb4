package cli

import (
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jamaat-times/internal/tui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live countdown for the selected and pinned mosques",
		Long: "Full-screen view that updates every second and reloads the timetable\n" +
			"at midnight. Tab cycles through pinned mosques.",
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(cmd.Context(), tui.Deps{
		Schedule:   a.source,
		Prefs:      a.prefs,
		Clock:      a.clk,
		TimeFormat: a.timeFormat(),
		Logger:     a.logger.Logger,
	})
}
