// Package cnfsolver implements a marco.SubsetSolver over CNF theories,
// backed by incremental SAT via gini. It grounds the indicator-variable
// encoding of the original MARCO's Z3SubsetSolver (ind(i) => group_i)
// directly in clauses, the way OLM's litMapping builds its own formula
// by hand rather than through an SMT layer.
package cnfsolver

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/constraintlab/marco/pkg/marco"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Clause is a disjunction of DIMACS-style literals: a positive entry k
// asserts that theory variable k holds, a negative entry -k asserts
// that it does not. Variables are 1-based, matching DIMACS convention.
type Clause []int

// Group is the conjunction of clauses making up a single indexed
// constraint. A plain CNF instance's constraints are all one-clause
// Groups; Group CNF and the SMT-derived Tseitin encoding can both
// produce multi-clause Groups.
type Group []Clause

// Solver is a marco.SubsetSolver backed by one gini instance carrying
// every group behind its own indicator literal: ind(i) => group_i.
// Asking whether a Subset is satisfiable is then a single incremental
// solve under the assumption that each included group's indicator
// holds.
type Solver struct {
	g          *gini.Gini
	n          int
	numVars    int
	vars       []z.Lit // vars[v], 1-based, the positive lit for theory var v
	indicators []z.Lit
}

// New builds a Solver over numVars theory variables and the given
// indexed constraint groups.
func New(numVars int, groups []Group) (*Solver, error) {
	g := gini.NewV(numVars + len(groups))
	vars := make([]z.Lit, numVars+1)
	for v := 1; v <= numVars; v++ {
		vars[v] = g.Lit()
	}

	s := &Solver{g: g, n: len(groups), numVars: numVars, vars: vars}

	indicators := make([]z.Lit, len(groups))
	for i, grp := range groups {
		ind := g.Lit()
		indicators[i] = ind
		for _, cl := range grp {
			g.Add(ind.Not())
			for _, x := range cl {
				m, err := s.litOf(x)
				if err != nil {
					return nil, errors.Wrapf(err, "group %d", i)
				}
				g.Add(m)
			}
			g.Add(z.LitNull)
		}
	}
	s.indicators = indicators
	return s, nil
}

// AddHardClauses asserts clauses unconditionally, with no indicator
// guard: they hold regardless of which groups are selected. This is
// Group CNF's group-0 background theory (internal/dimacs folds a
// parsed instance's group-0 clauses into exactly this call).
// AddHardClauses must be called before any CheckSubset/Grow/Shrink.
func (s *Solver) AddHardClauses(clauses []Clause) error {
	for _, cl := range clauses {
		for _, x := range cl {
			m, err := s.litOf(x)
			if err != nil {
				return errors.Wrap(err, "hard clause")
			}
			s.g.Add(m)
		}
		s.g.Add(z.LitNull)
	}
	return nil
}

func (s *Solver) litOf(x int) (z.Lit, error) {
	if x == 0 {
		return z.LitNull, errors.New("literal 0 is not valid DIMACS")
	}
	v := x
	neg := false
	if v < 0 {
		v = -v
		neg = true
	}
	if v > s.numVars {
		return z.LitNull, errors.Errorf("literal %d exceeds declared variable count %d", x, s.numVars)
	}
	m := s.vars[v]
	if neg {
		m = m.Not()
	}
	return m, nil
}

// N returns the number of indexed constraint groups.
func (s *Solver) N() int { return s.n }

func (s *Solver) assumeIndicators(subset marco.Subset) {
	for _, i := range subset.Indices() {
		s.g.Assume(s.indicators[i])
	}
}

// CheckSubset decides satisfiability of subset's groups under the
// shared theory. When improveSeed is true and the result is
// satisfiable, it widens subset with every group whose indicator came
// out true in the witnessing model "for free" — the same trick
// Z3SubsetSolver.py's check_subset uses to skip a separate grow pass
// when the model already does the work. When improveSeed is true and
// the result is unsatisfiable, it narrows subset to the groups whose
// indicators gini reports among the failed assumptions (the unsat
// core).
func (s *Solver) CheckSubset(subset marco.Subset, improveSeed bool) (bool, marco.Subset, error) {
	s.assumeIndicators(subset)
	switch s.g.Solve() {
	case satisfiable:
		refined := subset
		if improveSeed {
			refined = subset.Clone()
			for i := 0; i < s.n; i++ {
				if !refined.Contains(i) && s.g.Value(s.indicators[i]) {
					refined = refined.With(i)
				}
			}
		}
		return true, refined, nil
	case unsatisfiable:
		if !improveSeed {
			return false, subset, nil
		}
		core := marco.NewSubset(s.n)
		for _, m := range s.g.Why(nil) {
			for _, i := range subset.Indices() {
				if s.indicators[i] == m {
					core = core.With(i)
				}
			}
		}
		return false, core, nil
	default:
		return false, subset, errors.New("gini solve was cancelled")
	}
}

// Grow extends seed, known satisfiable, to an inclusion-maximal
// satisfiable superset. Each round tries every group not yet included;
// a successful assume/solve widens the working set by every indicator
// the resulting model happens to satisfy, same as CheckSubset's
// improveSeed path. Rounds repeat until no group can be added.
func (s *Solver) Grow(seed marco.Subset) (marco.Subset, error) {
	current := seed.Clone()
	for {
		grew := false
		for i := 0; i < s.n; i++ {
			if current.Contains(i) {
				continue
			}
			s.assumeIndicators(current)
			s.g.Assume(s.indicators[i])
			switch s.g.Solve() {
			case unsatisfiable:
				continue
			case satisfiable:
				for j := 0; j < s.n; j++ {
					if !current.Contains(j) && s.g.Value(s.indicators[j]) {
						current = current.With(j)
						grew = true
					}
				}
			default:
				return current, errors.New("gini solve was cancelled")
			}
		}
		if !grew {
			return current, nil
		}
	}
}

// Shrink reduces seed, known unsatisfiable, to an inclusion-minimal
// unsatisfiable subset. Indices in hard (the singleton-MCS cache) are
// never tried for removal: for each such index i, the universe without
// i is a known MSS, so dropping i from an unsatisfiable seed always
// makes it satisfiable.
func (s *Solver) Shrink(seed marco.Subset, hard marco.Subset) (marco.Subset, error) {
	current := seed.Clone()
	for _, i := range seed.Indices() {
		if !current.Contains(i) || hard.Contains(i) {
			continue
		}
		candidate := current.Without(i)
		s.assumeIndicators(candidate)
		switch s.g.Solve() {
		case unsatisfiable:
			current = candidate
		case satisfiable:
			// i is necessary to the contradiction; keep it.
		default:
			return current, errors.New("gini solve was cancelled")
		}
	}
	return current, nil
}

// Complement returns the universe minus subset; it needs no solver
// call since the universe size is fixed at construction.
func (s *Solver) Complement(subset marco.Subset) marco.Subset {
	return subset.Complement()
}

var _ marco.SubsetSolver = (*Solver)(nil)
