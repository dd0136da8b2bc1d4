package engine

import (
	"fmt"
	"sort"
	"strings"

	serrors "github.com/Aman-CERP/seekr/internal/errors"
)

// Backend describes one member of the universe.
type Backend struct {
	ID   ID
	Name string
}

// Universe is the ordered, read-only list of configured backends.
// It is rebuilt (never mutated) when configuration changes.
type Universe struct {
	backends []Backend
	byName   map[string]ID
	all      Set
}

// NewUniverse assigns IDs to names in order. Names are case-insensitive and
// must be unique.
func NewUniverse(names ...string) (*Universe, error) {
	if len(names) > MaxBackends {
		return nil, fmt.Errorf("too many backends: %d (max %d)", len(names), MaxBackends)
	}

	u := &Universe{
		backends: make([]Backend, 0, len(names)),
		byName:   make(map[string]ID, len(names)),
	}
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, fmt.Errorf("backend %d has an empty name", i)
		}
		if _, dup := u.byName[key]; dup {
			return nil, fmt.Errorf("duplicate backend name %q", key)
		}
		id := ID(i)
		u.byName[key] = id
		u.backends = append(u.backends, Backend{ID: id, Name: key})
		u.all = u.all.Union(Of(id))
	}
	return u, nil
}

// All returns the set of every configured backend.
func (u *Universe) All() Set { return u.all }

// Len returns the number of configured backends.
func (u *Universe) Len() int { return len(u.backends) }

// Backends returns the backends in ID order.
func (u *Universe) Backends() []Backend {
	out := make([]Backend, len(u.backends))
	copy(out, u.backends)
	return out
}

// Lookup returns the ID for name.
func (u *Universe) Lookup(name string) (ID, bool) {
	id, ok := u.byName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Name returns the backend name for id, or "" if id is unknown.
func (u *Universe) Name(id ID) string {
	if int(id) >= len(u.backends) {
		return ""
	}
	return u.backends[id].Name
}

// Resolve turns a list of names into a Set. Unknown names are reported as
// BadParameters. An empty list resolves to the empty set.
func (u *Universe) Resolve(names []string) (Set, error) {
	var s Set
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, ok := u.Lookup(name)
		if !ok {
			return Set{}, serrors.BadParameters("unknown search engine %q", name).
				WithSuggestion("run `seekr engines` to list configured backends")
		}
		s = s.Union(Of(id))
	}
	return s, nil
}

// ParseList resolves a comma-separated list such as "bing,duckduckgo".
func (u *Universe) ParseList(list string) (Set, error) {
	return u.Resolve(strings.Split(list, ","))
}

// Names returns the sorted backend names in s.
func (u *Universe) Names(s Set) []string {
	out := make([]string, 0, s.Len())
	for _, id := range s.IDs() {
		if name := u.Name(id); name != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Format renders s with backend names, e.g. "bing,mojeek".
func (u *Universe) Format(s Set) string {
	return strings.Join(u.Names(s), ",")
}
