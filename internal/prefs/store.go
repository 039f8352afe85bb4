package prefs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/goccy/go-json"
)

const (
	KeySelected = "selected-mosque"
	KeyPinned   = "pinned-mosques"
)

// Snapshot is the full preference state at one moment.
type Snapshot struct {
	Selected string
	Pinned   []string
}

// Store is the typed view over a KV. Every successful write notifies
// subscribers with the new snapshot.
type Store struct {
	kv KV

	mu     sync.Mutex // serialises read-modify-write
	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Snapshot)
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, subs: make(map[int]func(Snapshot))}
}

// Selected returns the selected mosque id, or "" when none is set.
func (s *Store) Selected(ctx context.Context) (string, error) {
	var id string
	if err := s.get(ctx, KeySelected, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetSelected(ctx context.Context, id string) error {
	if id == "" {
		return s.ClearSelected(ctx)
	}
	s.mu.Lock()
	err := s.put(ctx, KeySelected, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *Store) ClearSelected(ctx context.Context) error {
	s.mu.Lock()
	err := s.kv.Delete(ctx, KeySelected)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	s.notify(ctx)
	return nil
}

// Pinned returns the pinned mosque ids in the order they were pinned.
func (s *Store) Pinned(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.get(ctx, KeyPinned, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetPinned replaces the pinned list. Duplicates and empty ids are dropped.
func (s *Store) SetPinned(ctx context.Context, ids []string) error {
	s.mu.Lock()
	err := s.put(ctx, KeyPinned, dedupe(ids))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// TogglePinned pins id if it is not pinned and unpins it otherwise. It
// reports whether id is pinned afterwards.
func (s *Store) TogglePinned(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("mosque id is required")
	}

	s.mu.Lock()
	var ids []string
	if err := s.get(ctx, KeyPinned, &ids); err != nil {
		s.mu.Unlock()
		return false, err
	}
	pinned := !slices.Contains(ids, id)
	if pinned {
		ids = append(ids, id)
	} else {
		ids = slices.DeleteFunc(ids, func(x string) bool { return x == id })
	}
	err := s.put(ctx, KeyPinned, ids)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.notify(ctx)
	return pinned, nil
}

// Snapshot reads both preferences.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	sel, err := s.Selected(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	pinned, err := s.Pinned(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Selected: sel, Pinned: pinned}, nil
}

// Subscribe registers fn to run after every change made through this Store.
// fn runs on the writer's goroutine.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(ctx context.Context) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	if len(fns) == 0 {
		return
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return
	}
	for _, fn := range fns {
		fn(snap)
	}
}

// get decodes key into v. A missing key leaves v untouched.
func (s *Store) get(ctx context.Context, key string, v any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("corrupt preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode preference %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, string(data))
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
