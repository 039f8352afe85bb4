package mosque

import (
	"slices"
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
)

// Entry is a mosque with its distance from the user, if known.
type Entry struct {
	api.Mosque
	DistanceM   int
	HasDistance bool
	Selected    bool
	Pinned      bool
}

// Annotate computes distances and flags without reordering.
func Annotate(ms []api.Mosque, origin *api.Coordinates, selected string, pinned []string) []Entry {
	out := make([]Entry, len(ms))
	for i, m := range ms {
		d, ok := Distance(origin, m)
		out[i] = Entry{
			Mosque:      m,
			DistanceM:   d,
			HasDistance: ok,
			Selected:    selected != "" && m.ID == selected,
			Pinned:      slices.Contains(pinned, m.ID),
		}
	}
	return out
}

// group orders selected before pinned before the rest.
func (e Entry) group() int {
	switch {
	case e.Selected:
		return 0
	case e.Pinned:
		return 1
	default:
		return 2
	}
}

// Sort annotates ms and orders it: the selected mosque, then pinned mosques,
// then everything else. Within a group entries go by ascending distance and
// entries without one go last. Ties keep their input order.
func Sort(ms []api.Mosque, origin *api.Coordinates, selected string, pinned []string) []Entry {
	out := Annotate(ms, origin, selected, pinned)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.group() != b.group() {
			return a.group() < b.group()
		}
		if a.HasDistance != b.HasDistance {
			return a.HasDistance
		}
		return a.DistanceM < b.DistanceM
	})
	return out
}

type searchSource []Entry

func (s searchSource) String(i int) string {
	if s[i].Postcode == "" {
		return s[i].Name
	}
	return s[i].Name + " " + s[i].Postcode
}

func (s searchSource) Len() int { return len(s) }

// Search filters entries by a fuzzy match on name and postcode, best match
// first. An empty query returns entries unchanged.
func Search(entries []Entry, query string) []Entry {
	if query == "" {
		return entries
	}
	matches := fuzzy.FindFrom(query, searchSource(entries))
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
