package marco

// SubsetSolver is the abstract oracle over the underlying constraint
// theory (Boolean clauses or SMT formulas). It answers "is C restricted
// to S satisfiable?" and provides the single-element-probe primitives
// the Enumerator uses to refine a seed into a genuine MUS or MSS.
//
// No concurrent calls are made against the same SubsetSolver instance;
// the Hub gives each worker its own. See pkg/cnfsolver for the
// gini-backed implementation.
type SubsetSolver interface {
	// N returns the number of constraints.
	N() int

	// CheckSubset decides satisfiability of C restricted to s. When
	// improveSeed is true: on a SAT result, the returned subset is
	// extended to include every constraint satisfied by the witnessing
	// model; on an UNSAT result, the returned subset is restricted to
	// the unsat core. When improveSeed is false, the returned subset
	// equals s.
	CheckSubset(s Subset, improveSeed bool) (sat bool, refined Subset, err error)

	// Grow returns some MSS M that is a superset of (or equal to) the
	// given SAT subset s, found by iteratively attempting to add each
	// constraint not in s and keeping the addition if it preserves
	// satisfiability.
	Grow(s Subset) (Subset, error)

	// Shrink returns some MUS U subset of the given UNSAT subset s,
	// found by iterative deletion: elements of hard are never removed.
	Shrink(s Subset, hard Subset) (Subset, error)

	// Complement returns [0, n) \ s.
	Complement(s Subset) Subset
}
