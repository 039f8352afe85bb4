package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/geo"
)

const (
	mosqueCachePrefix = "mosques_"
	mosqueCacheFile   = mosqueCachePrefix + "%s.json" // keyed by local day
	geoCacheFile      = "geolocation.json"
	geoTTL            = 24 * time.Hour
)

// ErrMiss is returned by a Store when it holds nothing for the requested day.
var ErrMiss = errors.New("cache miss")

// Store persists the daily mosques payload keyed by local calendar day
// (YYYY-MM-DD).
type Store interface {
	LoadMosques(ctx context.Context, day string) ([]api.Mosque, error)
	SaveMosques(ctx context.Context, day string, ms []api.Mosque) error
	// LoadLatest returns the most recent day held, or ErrMiss when empty.
	LoadLatest(ctx context.Context) (string, []api.Mosque, error)
}

// Pruner is implemented by stores that do not expire old days themselves.
type Pruner interface {
	Prune(keepDay string) (int, error)
}

// File provides file-based caching for the mosques payload and geolocation.
type File struct {
	dir string
}

// MosqueCacheEntry stores one day's payload along with the day it belongs to.
type MosqueCacheEntry struct {
	Date      string       `json:"date"` // YYYY-MM-DD
	FetchedAt time.Time    `json:"fetched_at"`
	Mosques   []api.Mosque `json:"mosques"`
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns ~/.cache/jamaat-times.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "jamaat-times"), nil
}

// New creates a File cache rooted at dir, or DefaultDir when dir is empty.
func New(dir string) (*File, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &File{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *File) Dir() string {
	return c.dir
}

func (c *File) mosquePath(day string) string {
	return filepath.Join(c.dir, fmt.Sprintf(mosqueCacheFile, day))
}

// LoadMosques reads the cached payload for day. A missing, unreadable or
// mislabelled file is a miss.
func (c *File) LoadMosques(_ context.Context, day string) ([]api.Mosque, error) {
	data, err := os.ReadFile(c.mosquePath(day))
	if err != nil {
		return nil, ErrMiss
	}

	var entry MosqueCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, ErrMiss
	}

	// A file renamed or copied from another day is useless.
	if entry.Date != day {
		return nil, ErrMiss
	}

	return entry.Mosques, nil
}

// SaveMosques writes the payload for day.
func (c *File) SaveMosques(_ context.Context, day string, ms []api.Mosque) error {
	entry := MosqueCacheEntry{
		Date:      day,
		FetchedAt: time.Now(),
		Mosques:   ms,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.mosquePath(day), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadLatest returns the newest readable payload in the directory.
func (c *File) LoadLatest(ctx context.Context) (string, []api.Mosque, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return "", nil, ErrMiss
	}

	var days []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, mosqueCachePrefix) || filepath.Ext(name) != ".json" {
			continue
		}
		days = append(days, strings.TrimSuffix(strings.TrimPrefix(name, mosqueCachePrefix), ".json"))
	}
	return latest(ctx, c, days)
}

// latest tries days newest first. Day keys sort lexically.
func latest(ctx context.Context, s Store, days []string) (string, []api.Mosque, error) {
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	for _, day := range days {
		ms, err := s.LoadMosques(ctx, day)
		if err == nil {
			return day, ms, nil
		}
		if !errors.Is(err, ErrMiss) {
			return "", nil, err
		}
	}
	return "", nil, ErrMiss
}

// Prune removes cached payloads for every day other than keepDay and reports
// how many files were removed. The geolocation cache is left alone.
func (c *File) Prune(keepDay string) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	keep := fmt.Sprintf(mosqueCacheFile, keepDay)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == keep {
			continue
		}
		if !strings.HasPrefix(name, mosqueCachePrefix) || filepath.Ext(name) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}

	return removed, nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *File) LoadGeo() *geo.Location {
	path := filepath.Join(c.dir, geoCacheFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *File) SaveGeo(loc *geo.Location) error {
	path := filepath.Join(c.dir, geoCacheFile)

	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}
