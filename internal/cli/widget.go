package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jamaat-times/internal/display"
	"github.com/smokyabdulrahman/jamaat-times/internal/widget"
)

func newWidgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "widget",
		Short: "Print a one-shot snapshot for widgets and status bars",
		Long: "Render the selected mosque's five jamaat times, the current or next\n" +
			"jamaat and the countdown once, then exit. Use --json for hosts that\n" +
			"draw their own layout.",
		Args: cobra.NoArgs,
		RunE: runWidget,
	}
}

func runWidget(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := widget.Render(cmd.Context(), widget.Deps{
		Prefs:      a.prefs,
		Schedule:   a.source,
		Clock:      a.clk,
		Location:   a.loc,
		TimeFormat: a.timeFormat(),
		Logger:     a.logger.Logger,
	})
	if err != nil {
		// The host still gets placeholder data to draw.
		a.logger.Warn("widget render failed", "err", err)
	}

	if FlagJSON {
		out, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), data.String())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", display.Yellow("warning:"), err)
	}
	return nil
}
