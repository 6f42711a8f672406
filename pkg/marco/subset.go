package marco

import (
	"strconv"
	"strings"

	"github.com/constraintlab/marco/internal/bitset"
)

// Subset is a set of constraint indices in [0, n). It is the currency
// of the whole package: seeds, MUSes and MSSes are all Subsets.
type Subset struct {
	bits bitset.Set
}

// NewSubset returns the empty Subset over a universe of n constraints.
func NewSubset(n int) Subset {
	return Subset{bits: bitset.New(n)}
}

// SubsetFromIndices builds a Subset over a universe of n constraints
// containing exactly the given indices.
func SubsetFromIndices(n int, indices ...int) Subset {
	s := NewSubset(n)
	for _, i := range indices {
		s.bits.Set(i)
	}
	return s
}

// FullSubset returns the Subset containing every index in [0, n).
func FullSubset(n int) Subset {
	s := NewSubset(n)
	for i := 0; i < n; i++ {
		s.bits.Set(i)
	}
	return s
}

// N returns the size of the universe this Subset is drawn from.
func (s Subset) N() int { return s.bits.Len() }

// Len returns the number of indices in s.
func (s Subset) Len() int { return s.bits.Count() }

// Contains reports whether i is a member of s.
func (s Subset) Contains(i int) bool { return s.bits.Test(i) }

// Clone returns an independent copy of s.
func (s Subset) Clone() Subset { return Subset{bits: s.bits.Clone()} }

// With returns a copy of s with i added.
func (s Subset) With(i int) Subset {
	c := s.Clone()
	c.bits.Set(i)
	return c
}

// Without returns a copy of s with i removed.
func (s Subset) Without(i int) Subset {
	c := s.Clone()
	c.bits.Clear(i)
	return c
}

// Union returns the union of s and o.
func (s Subset) Union(o Subset) Subset { return Subset{bits: s.bits.Union(o.bits)} }

// Complement returns [0, n) \ s.
func (s Subset) Complement() Subset { return Subset{bits: s.bits.Complement()} }

// Equal reports whether s and o contain the same indices.
func (s Subset) Equal(o Subset) bool { return s.bits.Equal(o.bits) }

// IsSubsetOf reports whether every index of s is also in o.
func (s Subset) IsSubsetOf(o Subset) bool { return s.bits.Subset(o.bits) }

// Indices returns the sorted member indices of s.
func (s Subset) Indices() []int { return s.bits.Indices() }

// Key returns a canonical representation of s suitable for deduplication.
func (s Subset) Key() string { return s.bits.Key() }

// String renders s as a space-separated, 0-based, sorted index list.
func (s Subset) String() string {
	idx := s.Indices()
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
