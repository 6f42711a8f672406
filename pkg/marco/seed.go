package marco

// Seed is a candidate subset drawn from the unexplored region of the
// Map's lattice, together with a flag recording whether it is already
// known to be extremal (maximal if the Enumerator aims for MUSes and
// the seed turns out SAT; minimal if it aims for MCSes and the seed
// turns out UNSAT) so that the refinement step (grow/shrink) may be
// skipped entirely.
//
// A Seed is produced by the seedManager, consumed exactly once by the
// Enumerator, and discarded after the corresponding subset is emitted
// and blocked.
type Seed struct {
	Subset   Subset
	KnownMax bool
}
