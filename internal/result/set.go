package result

import (
	"slices"
)

// Set is the arena of Results owned by one query context. The ordered
// sequence is the presentation order; the indices hold positions into it
// and are rebuilt after every reorder, so they never reference a Result
// that is not in the sequence.
//
// Set is not safe for concurrent use; the owning context's lock guards it.
type Set struct {
	stride int

	items   []*Result
	byURL   map[string]int
	byTitle map[string]int
	byID    map[int]int

	perPage  map[int]int
	overflow int
}

// overflowBase is where ids go once a page exhausts its id stride.
const overflowBase = 1 << 30

// NewSet returns an empty arena. Ids of Results first seen on page p are
// allocated from [p*stride, (p+1)*stride).
func NewSet(stride int) *Set {
	if stride <= 0 {
		stride = 1
	}
	return &Set{
		stride:  stride,
		byURL:   make(map[string]int),
		byTitle: make(map[string]int),
		byID:    make(map[int]int),
		perPage: make(map[int]int),
	}
}

// Len returns the number of canonical Results.
func (s *Set) Len() int { return len(s.items) }

// At returns the Result at position i in presentation order.
func (s *Set) At(i int) *Result { return s.items[i] }

// All returns the Results in presentation order. The slice is a copy;
// the Results are not.
func (s *Set) All() []*Result {
	return slices.Clone(s.items)
}

// ByURL looks a Result up by canonical URL.
func (s *Set) ByURL(canonical string) (*Result, bool) {
	return lookup(s, s.byURL, canonical)
}

// ByTitle looks a Result up by normalized title.
func (s *Set) ByTitle(normalized string) (*Result, bool) {
	return lookup(s, s.byTitle, normalized)
}

// ByID looks a Result up by id.
func (s *Set) ByID(id int) (*Result, bool) {
	return lookup(s, s.byID, id)
}

func lookup[K comparable](s *Set, idx map[K]int, key K) (*Result, bool) {
	pos, ok := idx[key]
	if !ok {
		return nil, false
	}
	return s.items[pos], true
}

// Insert appends r as a new canonical Result, assigns its id and clears
// its pending flag. The caller must have checked that r's canonical URL is
// not already present.
func (s *Set) Insert(r *Result) {
	r.ID = s.allocID(r.Page)
	r.Pending = false
	r.BaseRank = float64(r.Votes.Len())

	s.items = append(s.items, r)
	s.index(len(s.items) - 1)
}

func (s *Set) allocID(page int) int {
	n := s.perPage[page]
	if n < s.stride {
		s.perPage[page] = n + 1
		return page*s.stride + n
	}
	s.overflow++
	return overflowBase + s.overflow
}

func (s *Set) index(pos int) {
	r := s.items[pos]
	s.byURL[r.CanonicalURL] = pos
	s.byID[r.ID] = pos
	if t := NormalizeTitle(r.Title); t != "" {
		if _, taken := s.byTitle[t]; !taken {
			s.byTitle[t] = pos
		}
	}
}

func (s *Set) reindex() {
	clear(s.byURL)
	clear(s.byTitle)
	clear(s.byID)
	for i := range s.items {
		s.index(i)
	}
}

// SortStable reorders the sequence with a stable sort (ties keep their
// previous relative order) and rebuilds the indices.
func (s *Set) SortStable(cmp func(a, b *Result) int) {
	slices.SortStableFunc(s.items, cmp)
	s.reindex()
}

// ResetSimScores zeroes every Result's transient similarity score.
func (s *Set) ResetSimScores() {
	for _, r := range s.items {
		r.SimScore = 0
	}
}

// Slice returns up to size Results starting at page*size in presentation
// order.
func (s *Set) Slice(page, size int) []*Result {
	if size <= 0 || page < 0 {
		return nil
	}
	start := page * size
	if start >= len(s.items) {
		return nil
	}
	end := min(start+size, len(s.items))
	return slices.Clone(s.items[start:end])
}
