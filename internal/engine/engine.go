// Package engine defines the backend identifiers a node can query and the
// immutable set type used both for backend selection and as a Result's
// vote set.
package engine

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxBackends is the size of the backend universe.
const MaxBackends = 64

// ID identifies one backend within a Universe.
type ID uint8

// Set is an immutable set of backend IDs. The zero value is the empty set.
// Set values are comparable and can be used as map keys.
type Set struct {
	bits uint64
}

// Of returns the set containing ids. IDs outside the universe are ignored.
func Of(ids ...ID) Set {
	var s Set
	for _, id := range ids {
		if id < MaxBackends {
			s.bits |= 1 << id
		}
	}
	return s
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set { return Set{s.bits | o.bits} }

// Intersect returns s ∩ o.
func (s Set) Intersect(o Set) Set { return Set{s.bits & o.bits} }

// Difference returns s − o.
func (s Set) Difference(o Set) Set { return Set{s.bits &^ o.bits} }

// Len returns the cardinality of s.
func (s Set) Len() int { return bits.OnesCount64(s.bits) }

// Equal reports whether s and o hold the same IDs.
func (s Set) Equal(o Set) bool { return s.bits == o.bits }

// IsEmpty reports whether s holds no IDs.
func (s Set) IsEmpty() bool { return s.bits == 0 }

// Has reports whether id is in s.
func (s Set) Has(id ID) bool {
	return id < MaxBackends && s.bits&(1<<id) != 0
}

// IDs returns the members of s in ascending order.
func (s Set) IDs() []ID {
	out := make([]ID, 0, s.Len())
	for b := s.bits; b != 0; b &= b - 1 {
		out = append(out, ID(bits.TrailingZeros64(b)))
	}
	return out
}

// String renders s as {0,3,5}.
func (s Set) String() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
