package marco

// MapSolver is the abstract oracle over the power-set lattice of
// constraint indices. Its satisfying assignments correspond exactly to
// subsets not yet ruled out by a prior block_up/block_down/
// block_above_size call; it is mutated monotonically and is never
// un-blocked.
//
// Implementations may be backed by a plain CDCL SAT solver (the general
// case) or by a cardinality-constrained solver (SMUS / MAX mode); the
// Enumerator is oblivious to the backing. See pkg/mapsolver for the
// gini-backed implementations.
type MapSolver interface {
	// N returns the number of constraints (the lattice dimension).
	N() int

	// NextSeed returns some unexplored subset, biased toward maximal or
	// minimal subsets according to the solver's configured polarity, or
	// ok=false if the Map formula is UNSAT (every subset has been
	// ruled out).
	NextSeed() (s Subset, ok bool, err error)

	// BlockUp removes every superset of u from the unexplored region:
	// u was found UNSAT, and any superset is therefore UNSAT too and
	// cannot be a MUS.
	BlockUp(u Subset) error

	// BlockDown removes every subset of m from the unexplored region:
	// m was found SAT-maximal, and any subset is therefore SAT too and
	// cannot be an MSS.
	BlockDown(m Subset) error

	// BlockAboveSize adds the cardinality constraint |S| <= k to the
	// unexplored region. Used only in SMUS mode, after emitting a MUS
	// of size k+1, so that only strictly smaller candidates remain.
	BlockAboveSize(k int) error

	// MaximizeSeed returns s' that is maximal (direction=true) or
	// minimal (direction=false) within the still-unexplored region,
	// with s as a subset (direction=true) or superset (direction=false)
	// of s'. The invariant that s' remains unexplored is preserved.
	MaximizeSeed(s Subset, direction bool) (Subset, error)

	// FindAbove returns some unexplored strict superset of s, or
	// ok=false if none exists.
	FindAbove(s Subset) (s2 Subset, ok bool, err error)
}
