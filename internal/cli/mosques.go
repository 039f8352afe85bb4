package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/display"
	"github.com/smokyabdulrahman/jamaat-times/internal/mosque"
)

var (
	flagSearch string
	flagClear  bool
)

func newMosquesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mosques",
		Short: "List mosques, nearest first",
		Long: "List every mosque in today's timetable. The selected mosque comes first,\n" +
			"then pinned mosques, then the rest; each group is sorted by distance\n" +
			"when your location is known (config latitude/longitude or IP lookup).",
		Args: cobra.NoArgs,
		RunE: runMosques,
	}

	cmd.Flags().StringVarP(&flagSearch, "search", "s", "", "Fuzzy filter on name and postcode")

	return cmd
}

func runMosques(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ms, err := a.mosques(cmd)
	if err != nil {
		return err
	}

	snap, err := a.prefs.Snapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	origin := a.origin(cmd.Context())
	entries := mosque.Search(mosque.Sort(ms, origin, snap.Selected, snap.Pinned), flagSearch)

	if FlagJSON {
		return printMosquesJSON(cmd.OutOrStdout(), entries)
	}

	if origin == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", display.Dim("Location unavailable; distances hidden."))
	}
	printMosques(cmd.OutOrStdout(), entries)
	return nil
}

// printMosques renders the mosque list as a table.
func printMosques(w io.Writer, entries []mosque.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "  No mosques found.")
		return
	}

	tbl := display.NewTable([]string{"", "ID", "Mosque", "Postcode", "Distance"})
	for i, e := range entries {
		mark := ""
		switch {
		case e.Selected:
			mark = "*"
			tbl.SetRowState(i, display.RowCurrent)
		case e.Pinned:
			mark = "+"
			tbl.SetRowState(i, display.RowNext)
		}

		dist := ""
		if e.HasDistance {
			dist = mosque.FormatDistance(e.DistanceM)
		}
		tbl.AddRow([]string{mark, e.ID, e.Name, e.Postcode, dist})
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Dim("* selected  + pinned"))
}

type mosqueJSON struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Postcode  string           `json:"postcode,omitempty"`
	Coords    *api.Coordinates `json:"coordinates,omitempty"`
	MapsLink  string           `json:"maps_link,omitempty"`
	DistanceM *int             `json:"distance_m,omitempty"`
	Selected  bool             `json:"selected"`
	Pinned    bool             `json:"pinned"`
}

func printMosquesJSON(w io.Writer, entries []mosque.Entry) error {
	out := make([]mosqueJSON, len(entries))
	for i, e := range entries {
		out[i] = mosqueJSON{
			ID:       e.ID,
			Name:     e.Name,
			Postcode: e.Postcode,
			Coords:   e.Coordinates,
			MapsLink: e.GoogleMapsLink,
			Selected: e.Selected,
			Pinned:   e.Pinned,
		}
		if e.HasDistance {
			d := e.DistanceM
			out[i].DistanceM = &d
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Select the mosque shown by default",
		Args: func(cmd *cobra.Command, args []string) error {
			if flagClear {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: runSelect,
	}

	cmd.Flags().BoolVar(&flagClear, "clear", false, "Clear the selection")

	return cmd
}

func runSelect(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagClear {
		if err := a.prefs.ClearSelected(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Selection cleared.")
		return nil
	}

	m, err := a.lookupMosque(cmd, args[0])
	if err != nil {
		return err
	}
	if err := a.prefs.SetSelected(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", display.Bold(m.Name))
	return nil
}

func newPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin a mosque so it is listed first and shown in watch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPin(cmd, args[0], true)
		},
	}
}

func newUnpinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin <id>",
		Short: "Unpin a mosque",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPin(cmd, args[0], false)
		},
	}
}

// runPin pins or unpins id. Doing either twice is not an error.
func runPin(cmd *cobra.Command, id string, pin bool) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	pinned, err := a.prefs.Pinned(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if slices.Contains(pinned, id) == pin {
		if pin {
			fmt.Fprintf(out, "%s is already pinned.\n", id)
		} else {
			fmt.Fprintf(out, "%s is not pinned.\n", id)
		}
		return nil
	}

	name := id
	if pin {
		m, err := a.lookupMosque(cmd, id)
		if err != nil {
			return err
		}
		name = m.Name
	}

	if _, err := a.prefs.TogglePinned(cmd.Context(), id); err != nil {
		return err
	}
	if pin {
		fmt.Fprintf(out, "Pinned %s\n", display.Bold(name))
	} else {
		fmt.Fprintf(out, "Unpinned %s\n", name)
	}
	return nil
}

// lookupMosque finds id in today's payload.
func (a *app) lookupMosque(cmd *cobra.Command, id string) (*api.Mosque, error) {
	ms, err := a.mosques(cmd)
	if err != nil {
		return nil, err
	}
	m := api.FindMosque(ms, id)
	if m == nil {
		return nil, fmt.Errorf("unknown mosque id %q; see `jamaat mosques`", id)
	}
	return m, nil
}
