// Package config provides persistent configuration for the jamaat CLI.
//
// Configuration is stored as JSON at ~/.config/jamaat-times/config.json
// (XDG-compliant). The merge priority is: CLI flags > environment
// (JAMAAT_*, optionally from a .env file) > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/cache"
)

const (
	configDirName  = "jamaat-times"
	configFileName = "config.json"
	prefsFileName  = "prefs.db"

	// EnvPrefix prefixes the environment variable of every key, e.g.
	// JAMAAT_ENDPOINT for "endpoint".
	EnvPrefix = "JAMAAT_"

	BackendFile  = "file"
	BackendRedis = "redis"

	// RedisPasswordEnv holds the redis password; it is kept out of the config file.
	RedisPasswordEnv = EnvPrefix + "REDIS_PASSWORD"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"endpoint", "report_endpoint",
	"timezone", "time_format",
	"latitude", "longitude",
	"cache_dir", "cache_backend", "redis_addr",
	"prefs_db",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	Endpoint       string  `json:"endpoint,omitempty"`
	ReportEndpoint string  `json:"report_endpoint,omitempty"`
	Timezone       string  `json:"timezone,omitempty"`    // IANA name; empty means the system zone
	TimeFormat     string  `json:"time_format,omitempty"` // "12h" or "24h"
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
	CacheDir       string  `json:"cache_dir,omitempty"`
	CacheBackend   string  `json:"cache_backend,omitempty"` // "file" or "redis"
	RedisAddr      string  `json:"redis_addr,omitempty"`
	PrefsDB        string  `json:"prefs_db,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	return Config{
		Endpoint:       api.DefaultEndpoint,
		ReportEndpoint: api.DefaultReportEndpoint,
		TimeFormat:     "24h",
		CacheBackend:   BackendFile,
		RedisAddr:      "localhost:6379",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "endpoint", "report_endpoint":
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an http(s) URL", key, value)
		}
		if key == "endpoint" {
			c.Endpoint = value
		} else {
			c.ReportEndpoint = value
		}
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		c.Timezone = value
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "latitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: must be a number", value)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("invalid latitude %q: must be between -90 and 90", value)
		}
		c.Latitude = v
	case "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: must be a number", value)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("invalid longitude %q: must be between -180 and 180", value)
		}
		c.Longitude = v
	case "cache_dir":
		c.CacheDir = value
	case "cache_backend":
		if value != BackendFile && value != BackendRedis {
			return fmt.Errorf("invalid cache_backend %q: must be %q or %q", value, BackendFile, BackendRedis)
		}
		c.CacheBackend = value
	case "redis_addr":
		if !strings.Contains(value, ":") {
			return fmt.Errorf("invalid redis_addr %q: must be host:port", value)
		}
		c.RedisAddr = value
	case "prefs_db":
		c.PrefsDB = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "endpoint":
		return c.Endpoint, nil
	case "report_endpoint":
		return c.ReportEndpoint, nil
	case "timezone":
		return c.Timezone, nil
	case "time_format":
		return c.TimeFormat, nil
	case "latitude":
		if c.Latitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Latitude, 'f', -1, 64), nil
	case "longitude":
		if c.Longitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Longitude, 'f', -1, 64), nil
	case "cache_dir":
		return c.CacheDir, nil
	case "cache_backend":
		return c.CacheBackend, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "prefs_db":
		return c.PrefsDB, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// LoadDotEnv loads KEY=value pairs from the given files (default ".env")
// into the process environment. Missing files are skipped and variables that
// are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with every JAMAAT_* variable that is set, validating
// each value as Set does.
func (c *Config) ApplyEnv() error {
	for _, key := range ValidKeys {
		value, ok := os.LookupEnv(EnvName(key))
		if !ok || value == "" {
			continue
		}
		if err := c.Set(key, value); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	return nil
}

// WithDefaults returns a copy of c with every unset field taken from Defaults.
func (c Config) WithDefaults() Config {
	d := Defaults()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.ReportEndpoint == "" {
		c.ReportEndpoint = d.ReportEndpoint
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.CacheBackend == "" {
		c.CacheBackend = d.CacheBackend
	}
	if c.RedisAddr == "" {
		c.RedisAddr = d.RedisAddr
	}
	return c
}

// Location returns the configured timezone, or time.Local when unset or
// invalid.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GoTimeFormat returns the Go layout for the configured time format.
func (c *Config) GoTimeFormat() string {
	if c.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// HasLocation reports whether a manual latitude/longitude is configured.
func (c *Config) HasLocation() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

// PrefsPath returns the preferences database path, defaulting to
// <config dir>/prefs.db.
func (c *Config) PrefsPath() (string, error) {
	if c.PrefsDB != "" {
		return c.PrefsDB, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, prefsFileName), nil
}

// CacheOptions returns the cache settings every binary opens its store with.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Dir:           c.CacheDir,
		Redis:         c.CacheBackend == BackendRedis,
		RedisAddr:     c.RedisAddr,
		RedisPassword: os.Getenv(RedisPasswordEnv),
	}
}
