package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/cache"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
)

// stubFetcher answers call n with a single mosque named "fetch-n". A call
// blocks on gates[n] when one is set; errs[n] makes it fail.
type stubFetcher struct {
	mu    sync.Mutex
	calls int
	gates map[int]chan struct{}
	errs  map[int]error
}

func newStub() *stubFetcher {
	return &stubFetcher{gates: map[int]chan struct{}{}, errs: map[int]error{}}
}

func (f *stubFetcher) gate(n int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[n] = ch
	return ch
}

func (f *stubFetcher) fail(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[n] = err
}

func (f *stubFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *stubFetcher) FetchMosques(ctx context.Context) ([]api.Mosque, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	gate := f.gates[n]
	err := f.errs[n]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("fetch-%d", n)
	return []api.Mosque{{ID: name, Name: name}}, nil
}

// memStore is an in-memory cache.Store.
type memStore struct {
	mu   sync.Mutex
	days map[string][]api.Mosque
}

func (m *memStore) LoadMosques(_ context.Context, day string) ([]api.Mosque, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.days[day]
	if !ok {
		return nil, cache.ErrMiss
	}
	return ms, nil
}

func (m *memStore) SaveMosques(_ context.Context, day string, ms []api.Mosque) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.days == nil {
		m.days = map[string][]api.Mosque{}
	}
	m.days[day] = ms
	return nil
}

func (m *memStore) LoadLatest(_ context.Context) (string, []api.Mosque, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var day string
	for d := range m.days {
		if d > day {
			day = d
		}
	}
	if day == "" {
		return "", nil, cache.ErrMiss
	}
	return day, m.days[day], nil
}

func start() *clock.Fake {
	return clock.NewFake(time.Date(2026, 10, 15, 21, 0, 0, 0, time.UTC))
}

func firstName(t *testing.T, ms []api.Mosque) string {
	t.Helper()
	if len(ms) == 0 {
		t.Fatal("empty payload")
	}
	return ms[0].Name
}

// waitCalls waits until the fetcher has been entered n times, so that gates
// line up with the Refresh that started each call.
func waitCalls(t *testing.T, f *stubFetcher, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("fetcher entered %d times, want %d", f.count(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func mustMosques(t *testing.T, s *Source) []api.Mosque {
	t.Helper()
	ms, err := s.Mosques(context.Background())
	if err != nil {
		t.Fatalf("Mosques: %v", err)
	}
	return ms
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

func TestMosques_FirstLoadBlocks(t *testing.T) {
	f := newStub()
	s := New(f, nil, start())

	if got := firstName(t, mustMosques(t, s)); got != "fetch-0" {
		t.Errorf("got %q, want fetch-0", got)
	}
	if s.Day() != "2026-10-15" {
		t.Errorf("Day = %q", s.Day())
	}

	// Same day: served from memory.
	mustMosques(t, s)
	mustMosques(t, s)
	if f.count() != 1 {
		t.Errorf("fetches = %d, want 1", f.count())
	}
}

func TestMosques_StoreBeforeNetwork(t *testing.T) {
	f := newStub()
	store := &memStore{}
	_ = store.SaveMosques(context.Background(), "2026-10-15", []api.Mosque{{ID: "c", Name: "cached"}})
	s := New(f, store, start())

	if got := firstName(t, mustMosques(t, s)); got != "cached" {
		t.Errorf("got %q, want cached", got)
	}
	if f.count() != 0 {
		t.Errorf("network fetches = %d, want 0", f.count())
	}
}

func TestMosques_FetchWritesStore(t *testing.T) {
	store := &memStore{}
	s := New(newStub(), store, start())
	mustMosques(t, s)

	ms, err := store.LoadMosques(context.Background(), "2026-10-15")
	if err != nil || firstName(t, ms) != "fetch-0" {
		t.Errorf("store = %v, %v; want fetch-0", ms, err)
	}
}

func TestMosques_DropsMalformedRecords(t *testing.T) {
	f := fetcherFunc(func(context.Context) ([]api.Mosque, error) {
		return []api.Mosque{{ID: "ok", Name: "ok"}, {ID: "", Name: "no id"}}, nil
	})
	s := New(f, nil, start())

	if ms := mustMosques(t, s); len(ms) != 1 {
		t.Errorf("got %d mosques, want 1", len(ms))
	}
}

func TestMosques_FirstLoadSupersededByRefresh(t *testing.T) {
	f := newStub()
	gate0 := f.gate(0)
	gate1 := f.gate(1)
	s := New(f, nil, start())

	type result struct {
		ms  []api.Mosque
		err error
	}
	done := make(chan result, 1)
	go func() {
		ms, err := s.Mosques(context.Background())
		done <- result{ms, err}
	}()

	waitCalls(t, f, 1)
	first := inflight(s)
	s.Refresh()
	waitCalls(t, f, 2)

	// The first fetch lands after being superseded; the reader keeps waiting.
	close(gate0)
	<-first.done
	select {
	case r := <-done:
		t.Fatalf("reader returned %v, %v before the replacing fetch landed", r.ms, r.err)
	case <-time.After(20 * time.Millisecond):
	}

	close(gate1)
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Mosques: %v", r.err)
		}
		if got := firstName(t, r.ms); got != "fetch-1" {
			t.Errorf("got %q, want fetch-1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader never returned")
	}
}

type fetcherFunc func(ctx context.Context) ([]api.Mosque, error)

func (fn fetcherFunc) FetchMosques(ctx context.Context) ([]api.Mosque, error) { return fn(ctx) }

func TestMosques_ContextCancelledWhileWaiting(t *testing.T) {
	f := newStub()
	gate := f.gate(0)
	defer close(gate)
	s := New(f, nil, start())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Mosques(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// Day rollover
// ---------------------------------------------------------------------------

func TestMosques_ExactlyOneRefetchAfterSuspend(t *testing.T) {
	clk := start()
	f := newStub()
	s := New(f, nil, clk)
	mustMosques(t, s)

	// The machine sleeps through midnight; nothing fired.
	clk.Set(time.Date(2026, 10, 16, 7, 30, 0, 0, time.UTC))
	gate := f.gate(1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ms, err := s.Mosques(context.Background())
			if err != nil || len(ms) == 0 || ms[0].Name != "fetch-0" {
				t.Errorf("stale read = %v, %v; want fetch-0", ms, err)
			}
		}()
	}
	wg.Wait()

	if !s.Stale() {
		t.Error("Stale() should be true while the refetch is in flight")
	}

	close(gate)
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if f.count() != 2 {
		t.Errorf("fetches = %d, want exactly 2 (initial + one refetch)", f.count())
	}
	if got := firstName(t, mustMosques(t, s)); got != "fetch-1" {
		t.Errorf("after refetch got %q, want fetch-1", got)
	}
	if s.Day() != "2026-10-16" || s.Stale() {
		t.Errorf("Day = %q stale=%v", s.Day(), s.Stale())
	}
}

func TestRefresh_LastInvalidationWins(t *testing.T) {
	clk := start()
	f := newStub()
	s := New(f, nil, clk)
	mustMosques(t, s)

	gate1 := f.gate(1)
	gate2 := f.gate(2)

	s.Refresh()
	first := inflight(s)
	waitCalls(t, f, 2)
	s.Refresh()
	second := inflight(s)

	// The older fetch lands first and must be discarded.
	close(gate1)
	<-first.done
	if got := firstName(t, mustMosques(t, s)); got != "fetch-0" {
		t.Errorf("superseded result applied: got %q", got)
	}

	close(gate2)
	<-second.done
	if got := firstName(t, mustMosques(t, s)); got != "fetch-2" {
		t.Errorf("got %q, want fetch-2", got)
	}
}

func TestRefresh_LateSupersededResultIgnored(t *testing.T) {
	f := newStub()
	s := New(f, nil, start())
	mustMosques(t, s)

	gate1 := f.gate(1)
	s.Refresh()
	first := inflight(s)
	waitCalls(t, f, 2)
	s.Refresh()
	if err := s.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	close(gate1)
	<-first.done

	if got := firstName(t, mustMosques(t, s)); got != "fetch-2" {
		t.Errorf("got %q, want fetch-2", got)
	}
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestMosques_FailureWithoutData(t *testing.T) {
	clk := start()
	f := newStub()
	boom := &api.NetworkError{Op: "fetch mosques", StatusCode: 503, Err: errors.New("down")}
	f.fail(0, boom)
	f.fail(1, boom)
	s := New(f, nil, clk)

	if _, err := s.Mosques(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want network error", err)
	}

	// Inside the retry interval: no new request.
	clk.Advance(10 * time.Second)
	if _, err := s.Mosques(context.Background()); err == nil {
		t.Error("expected the last error while throttled")
	}
	if f.count() != 1 {
		t.Errorf("fetches = %d, want 1 while throttled", f.count())
	}

	clk.Advance(25 * time.Second)
	s.Mosques(context.Background())
	if f.count() != 2 {
		t.Errorf("fetches = %d, want 2 after the retry interval", f.count())
	}

	// The third attempt succeeds.
	clk.Advance(time.Minute)
	if got := firstName(t, mustMosques(t, s)); got != "fetch-2" {
		t.Errorf("got %q, want fetch-2", got)
	}
	if s.Err() != nil {
		t.Errorf("Err = %v after success, want nil", s.Err())
	}
}

func TestMosques_FailureKeepsStaleData(t *testing.T) {
	clk := start()
	f := newStub()
	f.fail(1, errors.New("offline"))
	s := New(f, nil, clk)
	mustMosques(t, s)

	clk.Set(time.Date(2026, 10, 16, 0, 0, 1, 0, time.UTC))
	mustMosques(t, s)
	if err := s.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ms := mustMosques(t, s)
	if firstName(t, ms) != "fetch-0" {
		t.Errorf("got %q, want stale fetch-0", firstName(t, ms))
	}
	if s.Err() == nil {
		t.Error("Err() should report the failed refetch")
	}
	if !s.Stale() {
		t.Error("Stale() should be true")
	}
}

func TestMosques_FailureServesLastCachedDay(t *testing.T) {
	files, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = files.SaveMosques(ctx, "2026-10-13", []api.Mosque{{ID: "a", Name: "older"}})
	_ = files.SaveMosques(ctx, "2026-10-14", []api.Mosque{{ID: "y", Name: "yesterday"}})

	clk := start()
	f := newStub()
	f.fail(0, errors.New("offline"))
	f.fail(1, errors.New("offline"))
	s := New(f, files, clk)

	if got := firstName(t, mustMosques(t, s)); got != "yesterday" {
		t.Errorf("got %q, want yesterday", got)
	}
	if !s.Stale() || s.Day() != "2026-10-14" {
		t.Errorf("Stale = %v, Day = %q; want stale 2026-10-14", s.Stale(), s.Day())
	}
	if s.Err() == nil {
		t.Error("Err() should report the failed fetch")
	}

	// Throttled reads keep serving it without a new request.
	clk.Advance(5 * time.Second)
	if got := firstName(t, mustMosques(t, s)); got != "yesterday" {
		t.Errorf("throttled read got %q", got)
	}
	if f.count() != 1 {
		t.Errorf("fetches = %d, want 1", f.count())
	}

	// A failed fetch must not remove what it fell back to.
	if _, err := files.LoadMosques(ctx, "2026-10-14"); err != nil {
		t.Errorf("yesterday's entry was removed: %v", err)
	}
}

func TestMosques_FailureWithEmptyStore(t *testing.T) {
	files, _ := cache.New(t.TempDir())
	f := newStub()
	f.fail(0, errors.New("offline"))
	s := New(f, files, start())

	if _, err := s.Mosques(context.Background()); err == nil {
		t.Fatal("expected the fetch error with nothing cached")
	}
	if s.Stale() || s.Day() != "" {
		t.Errorf("Stale = %v, Day = %q; want nothing loaded", s.Stale(), s.Day())
	}
}

func TestMosques_PrunesOlderDaysAfterSave(t *testing.T) {
	files, _ := cache.New(t.TempDir())
	ctx := context.Background()
	_ = files.SaveMosques(ctx, "2026-10-14", []api.Mosque{{ID: "y", Name: "yesterday"}})

	s := New(newStub(), files, start())
	mustMosques(t, s)

	if _, err := files.LoadMosques(ctx, "2026-10-14"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("yesterday's entry survived a successful save: %v", err)
	}
	if ms, err := files.LoadMosques(ctx, "2026-10-15"); err != nil || firstName(t, ms) != "fetch-0" {
		t.Errorf("today's entry = %v, %v", ms, err)
	}
}

func TestRefresh_IgnoresThrottle(t *testing.T) {
	f := newStub()
	f.fail(0, errors.New("offline"))
	s := New(f, nil, start())

	s.Mosques(context.Background())
	s.Refresh()
	if err := s.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	if f.count() != 2 {
		t.Errorf("fetches = %d, want 2", f.count())
	}
	if got := firstName(t, mustMosques(t, s)); got != "fetch-1" {
		t.Errorf("got %q, want fetch-1", got)
	}
}

func inflight(s *Source) *call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}
