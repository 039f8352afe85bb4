// Package schedule keeps the day's mosques payload and refetches it when the
// local calendar day changes.
package schedule

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/cache"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
)

const (
	DefaultRetryInterval = 30 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
)

// Fetcher loads the payload from the network.
type Fetcher interface {
	FetchMosques(ctx context.Context) ([]api.Mosque, error)
}

// Source is the only writer of cached schedule data. Readers get the last
// known good payload; a payload for an older day is still served while the
// refetch for today is in flight.
type Source struct {
	fetcher Fetcher
	store   cache.Store
	clk     clock.Clock

	// RetryInterval throttles refetches triggered by reads after a failure.
	RetryInterval time.Duration
	// FetchTimeout bounds one load, store lookup included.
	FetchTimeout time.Duration
	Logger       *log.Logger

	mu       sync.Mutex
	day      string
	data     []api.Mosque
	loaded   bool
	err      error
	failedAt time.Time
	failDay  string
	gen      int
	inflight *call
}

type call struct {
	day  string
	gen  int
	done chan struct{}
}

// New returns a Source. store may be nil.
func New(f Fetcher, store cache.Store, clk clock.Clock) *Source {
	return &Source{
		fetcher:       f,
		store:         store,
		clk:           clk,
		RetryInterval: DefaultRetryInterval,
		FetchTimeout:  DefaultFetchTimeout,
		Logger:        log.New(io.Discard),
	}
}

// Mosques returns the payload. When the cached day differs from today it
// starts one refetch and returns the cached payload without waiting. It only
// blocks when nothing has been loaded yet. If that first fetch fails, the
// newest day in the store is served and Stale reports it.
func (s *Source) Mosques(ctx context.Context) ([]api.Mosque, error) {
	s.mu.Lock()
	today := clock.DayKey(s.clk.Now())
	if s.loaded && s.day == today {
		data := s.data
		s.mu.Unlock()
		return data, nil
	}

	c := s.inflight
	if c == nil || c.day != today {
		if s.throttledLocked(today) {
			c = nil
		} else {
			c = s.startLocked(today)
		}
	}

	if s.loaded {
		data := s.data
		s.mu.Unlock()
		return data, nil
	}
	if c == nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	for {
		select {
		case <-c.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		s.mu.Lock()
		// A superseded call leaves no result; wait for the one replacing it.
		if !s.loaded && c.gen != s.gen && s.inflight != nil {
			c = s.inflight
			s.mu.Unlock()
			continue
		}
		data, err := s.data, s.err
		loaded := s.loaded
		s.mu.Unlock()
		if loaded {
			return data, nil
		}
		return nil, err
	}
}

// Refresh starts a fetch for the current day, superseding any fetch in
// flight. The superseded result is discarded when it lands.
func (s *Source) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(clock.DayKey(s.clk.Now()))
}

// Wait blocks until the fetch in flight, if any, has finished.
func (s *Source) Wait(ctx context.Context) error {
	s.mu.Lock()
	c := s.inflight
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error of the most recent completed fetch, or nil.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Day returns the day key of the payload being served, or "" before the first
// successful load.
func (s *Source) Day() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.day
}

// Stale reports whether the payload being served belongs to another day.
func (s *Source) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && s.day != clock.DayKey(s.clk.Now())
}

func (s *Source) throttledLocked(today string) bool {
	if s.err == nil || s.failDay != today {
		return false
	}
	return s.clk.Now().Sub(s.failedAt) < s.RetryInterval
}

func (s *Source) startLocked(day string) *call {
	s.gen++
	c := &call{day: day, gen: s.gen, done: make(chan struct{})}
	s.inflight = c
	go s.run(c)
	return c
}

func (s *Source) run(c *call) {
	ctx, cancel := context.WithTimeout(context.Background(), s.FetchTimeout)
	defer cancel()

	ms, err := s.load(ctx, c.day)

	var lastDay string
	var last []api.Mosque
	if err != nil && !s.hasData() {
		lastDay, last = s.lastKnown()
	}

	s.mu.Lock()
	if s.inflight == c {
		s.inflight = nil
	}
	if c.gen == s.gen {
		if err != nil {
			s.err = err
			s.failedAt = s.clk.Now()
			s.failDay = c.day
			if last != nil && !s.loaded {
				s.Logger.Warn("serving last known schedule", "day", lastDay, "today", c.day)
				s.data = last
				s.day = lastDay
				s.loaded = true
			}
		} else {
			s.data = ms
			s.day = c.day
			s.loaded = true
			s.err = nil
		}
	} else {
		s.Logger.Debug("discarding superseded fetch", "day", c.day)
	}
	s.mu.Unlock()

	close(c.done)
}

func (s *Source) load(ctx context.Context, day string) ([]api.Mosque, error) {
	if s.store != nil {
		ms, err := s.store.LoadMosques(ctx, day)
		if err == nil {
			s.Logger.Debug("schedule loaded from cache", "day", day, "mosques", len(ms))
			return ms, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.Logger.Warn("schedule cache read failed", "day", day, "err", err)
		}
	}

	ms, err := s.fetcher.FetchMosques(ctx)
	if err != nil {
		s.Logger.Warn("schedule fetch failed", "day", day, "err", err)
		return nil, err
	}

	kept, dropped := api.Sanitize(ms)
	if dropped > 0 {
		s.Logger.Debug("dropped malformed mosque records", "count", dropped)
	}

	if s.store != nil {
		if err := s.store.SaveMosques(ctx, day, kept); err != nil {
			s.Logger.Warn("schedule cache write failed", "day", day, "err", err)
		} else {
			s.prune(day)
		}
	}
	return kept, nil
}

func (s *Source) hasData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// lastKnown returns the newest payload the store holds, for use when today's
// cannot be fetched.
func (s *Source) lastKnown() (string, []api.Mosque) {
	if s.store == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.FetchTimeout)
	defer cancel()

	day, ms, err := s.store.LoadLatest(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.Logger.Warn("schedule cache scan failed", "err", err)
		}
		return "", nil
	}
	return day, ms
}

// prune drops older days once keepDay is safely stored.
func (s *Source) prune(keepDay string) {
	p, ok := s.store.(cache.Pruner)
	if !ok {
		return
	}
	if n, err := p.Prune(keepDay); err != nil {
		s.Logger.Debug("cache prune failed", "err", err)
	} else if n > 0 {
		s.Logger.Debug("pruned old timetables", "count", n)
	}
}
