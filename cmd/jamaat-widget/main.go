// Command jamaat-widget prints a one-shot jamaat snapshot for status bars and
// desktop widgets. It shares the preferences database and timetable cache with
// the jamaat CLI, so selecting a mosque there is enough.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/cache"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
	"github.com/smokyabdulrahman/jamaat-times/internal/config"
	"github.com/smokyabdulrahman/jamaat-times/internal/prefs"
	"github.com/smokyabdulrahman/jamaat-times/internal/schedule"
	"github.com/smokyabdulrahman/jamaat-times/internal/widget"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

// newClock returns the wall clock. Tests replace it.
var newClock = func() clock.Clock { return clock.NewReal() }

// fetchTimeout bounds a whole invocation.
const fetchTimeout = 15 * time.Second

type options struct {
	endpoint   string
	prefsPath  string
	cacheDir   string
	timezone   string
	timeFormat string
	mosque     string
	jsonOut    bool
	verbose    bool
}

func main() {
	var opts options
	fs := flag.NewFlagSet("jamaat-widget", flag.ExitOnError)
	fs.StringVar(&opts.endpoint, "endpoint", "", "Timetable endpoint URL (default: config or built-in)")
	fs.StringVar(&opts.prefsPath, "prefs", "", "Preferences database (default: <config dir>/prefs.db)")
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/jamaat-times/)")
	fs.StringVar(&opts.timezone, "timezone", "", "IANA timezone (default: config or system zone)")
	fs.StringVar(&opts.timeFormat, "time-format", "", "Time format: 12h or 24h")
	fs.StringVar(&opts.mosque, "mosque", "", "Mosque id to show instead of the selected one")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print JSON for hosts that draw their own layout")
	fs.BoolVar(&opts.verbose, "v", false, "Log to stderr")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("jamaat-widget %s\n", version)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	err := run(ctx, opts, os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// selection answers the widget's preference lookup, preferring an explicit id.
type selection struct {
	id    string
	store *prefs.Store
}

func (s selection) Selected(ctx context.Context) (string, error) {
	if s.id != "" || s.store == nil {
		return s.id, nil
	}
	return s.store.Selected(ctx)
}

// run renders one snapshot to stdout. Timetable failures still print the
// placeholder and return nil so the host keeps drawing.
func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := log.New(io.Discard)
	if opts.verbose {
		logger = log.NewWithOptions(stderr, log.Options{Prefix: "jamaat-widget", Level: log.DebugLevel})
	}

	loc := cfg.Location()
	clk := clock.In(newClock(), loc)

	client := api.NewClient()
	client.Endpoint = cfg.Endpoint

	cacheOpts := cfg.CacheOptions()
	cacheOpts.Logger = logger
	caches := cache.Open(ctx, cacheOpts)
	defer caches.Close()

	sel := selection{id: opts.mosque}
	if sel.id == "" {
		path, err := cfg.PrefsPath()
		if err != nil {
			return err
		}
		kv, err := prefs.OpenSQLite(path)
		if err != nil {
			return fmt.Errorf("failed to open preferences: %w", err)
		}
		defer kv.Close()
		sel.store = prefs.NewStore(kv)
	}

	src := schedule.New(client, caches.Mosques, clk)
	src.Logger = logger

	data, err := widget.Render(ctx, widget.Deps{
		Prefs:      sel,
		Schedule:   src,
		Clock:      clk,
		Location:   loc,
		TimeFormat: cfg.GoTimeFormat(),
		Timeout:    widget.DefaultTimeout,
		Logger:     logger,
	})
	if err != nil {
		logger.Warn("render failed", "err", err)
	}

	if opts.jsonOut {
		out, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(stdout, string(out))
		return nil
	}
	fmt.Fprintln(stdout, data.String())
	return nil
}

// loadConfig merges the shared config file, the environment and flags.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	for _, f := range []struct{ key, value string }{
		{"endpoint", opts.endpoint},
		{"prefs_db", opts.prefsPath},
		{"cache_dir", opts.cacheDir},
		{"timezone", opts.timezone},
		{"time_format", opts.timeFormat},
	} {
		if f.value == "" {
			continue
		}
		if err := cfg.Set(f.key, f.value); err != nil {
			return nil, fmt.Errorf("-%s: %w", flagName(f.key), err)
		}
	}

	merged := cfg.WithDefaults()
	return &merged, nil
}

func flagName(key string) string {
	switch key {
	case "prefs_db":
		return "prefs"
	case "cache_dir":
		return "cache-dir"
	case "time_format":
		return "time-format"
	}
	return key
}
