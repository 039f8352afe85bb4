package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/cache"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
	"github.com/smokyabdulrahman/jamaat-times/internal/config"
	"github.com/smokyabdulrahman/jamaat-times/internal/display"
	"github.com/smokyabdulrahman/jamaat-times/internal/geo"
	"github.com/smokyabdulrahman/jamaat-times/internal/logging"
	"github.com/smokyabdulrahman/jamaat-times/internal/prefs"
	"github.com/smokyabdulrahman/jamaat-times/internal/schedule"
)

// errNoSelection is returned by commands that need a selected mosque.
var errNoSelection = errors.New("no mosque selected; find one with `jamaat mosques` and pick it with `jamaat select <id>`")

// newClock returns the wall clock. Tests replace it with a clock.Fake.
var newClock = func() clock.Clock { return clock.NewReal() }

// detectLocation is the IP geolocation lookup. Tests replace it.
var detectLocation = geo.Detect

// app holds the collaborators one command invocation works with.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	loc    *time.Location
	clk    clock.Clock
	client *api.Client
	files  *cache.File // nil when the cache directory is unusable
	caches *cache.Stores
	kv     *prefs.SQLiteKV
	prefs  *prefs.Store
	source *schedule.Source
}

// setup builds the app for cmd from the effective config. Callers must Close it.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, loc: cfg.Location()}
	a.clk = clock.In(newClock(), a.loc)

	a.logger = logging.Discard()
	if dir, err := config.Dir(); err == nil {
		l, err := logging.New(logging.Config{Debug: FlagDebug, Dir: dir, Stderr: cmd.ErrOrStderr()})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s logging disabled: %v\n", display.Yellow("warning:"), err)
		} else {
			a.logger = l
		}
	}

	a.client = api.NewClient()
	a.client.Endpoint = cfg.Endpoint
	a.client.ReportEndpoint = cfg.ReportEndpoint

	opts := cfg.CacheOptions()
	opts.Logger = a.logger.Logger
	a.caches = cache.Open(cmd.Context(), opts)
	a.files = a.caches.Files

	path, err := cfg.PrefsPath()
	if err != nil {
		a.Close()
		return nil, err
	}
	kv, err := prefs.OpenSQLite(path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	a.kv = kv
	a.prefs = prefs.NewStore(kv)

	a.source = schedule.New(a.client, a.caches.Mosques, a.clk)
	a.source.Logger = a.logger.Logger

	a.logger.Debug("setup complete",
		"endpoint", cfg.Endpoint, "timezone", a.loc.String(),
		"cache", cfg.CacheBackend, "prefs", path)
	return a, nil
}

// Close releases the preference database, redis connection and log file.
func (a *app) Close() {
	if a.kv != nil {
		a.kv.Close()
	}
	if a.caches != nil {
		a.caches.Close()
	}
	if a.logger != nil {
		a.logger.Close()
	}
}

// timeFormat returns the Go layout for rendered times.
func (a *app) timeFormat() string {
	return a.cfg.GoTimeFormat()
}

// mosques loads today's payload, warning on stderr when it belongs to an
// earlier day.
func (a *app) mosques(cmd *cobra.Command) ([]api.Mosque, error) {
	ms, err := a.source.Mosques(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load timetable: %w", err)
	}
	if a.source.Stale() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s showing the timetable for %s; today's could not be fetched\n",
			display.Yellow("warning:"), a.source.Day())
	}
	return ms, nil
}

// selectedMosque returns the selected mosque from today's payload.
func (a *app) selectedMosque(cmd *cobra.Command) (*api.Mosque, error) {
	id, err := a.prefs.Selected(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if id == "" {
		return nil, errNoSelection
	}

	ms, err := a.mosques(cmd)
	if err != nil {
		return nil, err
	}

	m := api.FindMosque(ms, id)
	if m == nil {
		return nil, fmt.Errorf("selected mosque %q is not in today's timetable", id)
	}
	return m, nil
}

// origin returns the user's coordinates for distance sorting, or nil when
// they cannot be determined.
func (a *app) origin(ctx context.Context) *api.Coordinates {
	loc := &geo.Locator{Detect: detectLocation}
	if a.cfg.HasLocation() {
		loc.Manual = &geo.Location{Latitude: a.cfg.Latitude, Longitude: a.cfg.Longitude}
	}
	if a.files != nil {
		loc.Cache = a.files
	}

	l, err := loc.Locate(ctx)
	if err != nil {
		a.logger.Warn("location unavailable", "err", err)
		return nil
	}
	return &api.Coordinates{Lat: l.Latitude, Long: l.Longitude}
}
