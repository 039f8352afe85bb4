package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jamaat-times/internal/display"
	"github.com/smokyabdulrahman/jamaat-times/internal/report"
)

var (
	flagReportType    string
	flagReportMosque  string
	flagReportMessage string
)

// interactive reports whether the report form may be shown. Tests disable it.
var interactive = func() bool {
	return display.IsTerminal(os.Stdin) && display.IsTerminal(os.Stdout)
}

func newReportCmd() *cobra.Command {
	kinds := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		kinds[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report wrong timings, request a mosque or a feature",
		Long: "Send a report to the timetable maintainers. Without flags, and when\n" +
			"run in a terminal, an interactive form is shown.",
		Args: cobra.NoArgs,
		RunE: runReport,
	}

	cmd.Flags().StringVarP(&flagReportType, "type", "t", "", "Report type: "+strings.Join(kinds, ", "))
	cmd.Flags().StringVarP(&flagReportMosque, "mosque", "m", "", "Mosque name (defaults to the selected mosque)")
	cmd.Flags().StringVar(&flagReportMessage, "message", "", "Details")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req := report.Request{
		Kind:    report.Kind(flagReportType),
		Mosque:  flagReportMosque,
		Message: flagReportMessage,
	}

	if req.Mosque == "" && req.Kind != report.Feature {
		if id, err := a.prefs.Selected(cmd.Context()); err == nil && id != "" {
			if m, err := a.lookupMosque(cmd, id); err == nil {
				req.Mosque = m.Name
			}
		}
	}

	if req.Kind == "" && interactive() {
		if err := reportForm(&req).Run(); err != nil {
			return fmt.Errorf("report cancelled: %w", err)
		}
	}

	sub := report.NewSubmitter(a.client, a.clk, report.DefaultWindow)
	if err := sub.Submit(cmd.Context(), req); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s sent. JazakAllahu khayran!\n", display.Green("✓"), req.Kind.Label())
	return nil
}

// reportForm builds the interactive form, prefilled from req.
func reportForm(req *report.Request) *huh.Form {
	if req.Kind == "" {
		req.Kind = report.IncorrectTimings
	}

	options := make([]huh.Option[report.Kind], len(report.Kinds))
	for i, k := range report.Kinds {
		options[i] = huh.NewOption(k.Label(), k)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[report.Kind]().
				Title("What would you like to report?").
				Options(options...).
				Value(&req.Kind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Mosque").
				Value(&req.Mosque).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("mosque name is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return req.Kind == report.Feature }),
		huh.NewGroup(
			huh.NewText().
				Title("Details").
				Value(&req.Message).
				Validate(func(s string) error {
					if req.Kind == report.Feature && strings.TrimSpace(s) == "" {
						return fmt.Errorf("please describe the feature")
					}
					return nil
				}),
		),
	)
}
