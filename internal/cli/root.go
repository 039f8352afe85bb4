package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/jamaat-times/internal/config"
	"github.com/smokyabdulrahman/jamaat-times/internal/display"
)

// Global flags shared across all subcommands.
var (
	FlagEndpoint     string
	FlagTimezone     string
	FlagTimeFormat   string
	FlagLatitude     string
	FlagLongitude    string
	FlagCacheDir     string
	FlagCacheBackend string
	FlagPrefs        string
	FlagJSON         bool
	FlagDebug        bool
)

// flagKeys maps each config-backed flag to its config key. Values are
// applied through config.Set so flags get the same validation as the file.
var flagKeys = []struct {
	flag  string
	key   string
	value *string
}{
	{"endpoint", "endpoint", &FlagEndpoint},
	{"timezone", "timezone", &FlagTimezone},
	{"time-format", "time_format", &FlagTimeFormat},
	{"latitude", "latitude", &FlagLatitude},
	{"longitude", "longitude", &FlagLongitude},
	{"cache-dir", "cache_dir", &FlagCacheDir},
	{"cache-backend", "cache_backend", &FlagCacheBackend},
	{"prefs", "prefs_db", &FlagPrefs},
}

// loadedConfig holds the config file merged with the environment, loaded
// during PersistentPreRunE.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the jamaat CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jamaat",
		Short: "Mosque jamaat times in your terminal",
		Long: "Shows today's congregation (jamaat) times for your selected mosque,\n" +
			"with a live countdown to the next jamaat.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ApplyEnv(); err != nil {
				return fmt.Errorf("invalid environment: %w", err)
			}
			loadedConfig = cfg
			if FlagJSON {
				display.SetEnabled(false)
			}
			return nil
		},
		// Default action: show today's timetable.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagEndpoint, "endpoint", "", "Timetable endpoint URL (overrides config)")
	pf.StringVar(&FlagTimezone, "timezone", "", "IANA timezone, e.g. Europe/London (default: system zone)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLatitude, "latitude", "", "Your latitude, for mosque distances")
	pf.StringVar(&FlagLongitude, "longitude", "", "Your longitude, for mosque distances")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/jamaat-times/)")
	pf.StringVar(&FlagCacheBackend, "cache-backend", "", "Timetable cache: file or redis")
	pf.StringVar(&FlagPrefs, "prefs", "", "Preferences database (default: <config dir>/prefs.db)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.BoolVar(&FlagDebug, "debug", false, "Log debug output to stderr")

	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newMosquesCmd())
	rootCmd.AddCommand(newSelectCmd())
	rootCmd.AddCommand(newPinCmd())
	rootCmd.AddCommand(newUnpinCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newWidgetCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg config.Config
	if loadedConfig != nil {
		cfg = *loadedConfig
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	for _, f := range flagKeys {
		if !flagWasSet(flags, root, f.flag) {
			continue
		}
		if err := cfg.Set(f.key, *f.value); err != nil {
			return nil, fmt.Errorf("--%s: %w", f.flag, err)
		}
	}

	merged := cfg.WithDefaults()
	return &merged, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}
