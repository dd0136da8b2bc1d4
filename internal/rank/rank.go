// Package rank orders a query context's Results and coordinates the
// personalization task that runs alongside a request's fetches.
package rank

import (
	"cmp"

	"github.com/Aman-CERP/seekr/internal/result"
)

// SortBase stable-sorts set by descending base rank.
func SortBase(set *result.Set) {
	set.SortStable(func(a, b *result.Result) int {
		return cmp.Compare(b.BaseRank, a.BaseRank)
	})
}

// Reset drops personal ranks left by an earlier request.
func Reset(set *result.Set) {
	for _, r := range set.All() {
		r.PersonalRank = nil
	}
}

// Apply stores the estimates as personal ranks and re-sorts set with
// SortPersonalized. It returns how many Results got a personal rank.
func Apply(set *result.Set, ranks map[int]float64) int {
	if len(ranks) == 0 {
		return 0
	}
	n := 0
	for _, r := range set.All() {
		v, ok := ranks[r.ID]
		if !ok {
			continue
		}
		r.PersonalRank = &v
		n++
	}
	SortPersonalized(set)
	return n
}

// SortPersonalized stable-sorts set by descending personal rank. Results
// without one compete with their base rank scaled to a share of the total
// base rank, which puts both keys on the same [0,1] footing.
func SortPersonalized(set *result.Set) {
	var total float64
	for _, r := range set.All() {
		total += r.BaseRank
	}
	key := func(r *result.Result) float64 {
		if r.PersonalRank != nil {
			return *r.PersonalRank
		}
		if total == 0 {
			return 0
		}
		return r.BaseRank / total
	}
	set.SortStable(func(a, b *result.Result) int {
		return cmp.Compare(key(b), key(a))
	})
}
