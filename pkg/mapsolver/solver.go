// Package mapsolver implements a marco.MapSolver over the subset
// lattice {0,1}^n, backed by incremental SAT via gini. It grounds its
// variable allocation and cardinality-constraint wiring on OLM's
// litMapping/dict pair: one circuit (logic.C) owns every literal this
// solver ever creates, atoms and sorting-network gates alike, and is
// transcribed into one gini instance via ToCnf/CnfSince, exactly as
// litMapping.CardinalityConstrainer does it.
package mapsolver

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/constraintlab/marco/pkg/marco"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Solver is a marco.MapSolver with one boolean "map literal" per
// constraint index. BlockUp and BlockDown are each a single clause;
// BlockAboveSize needs a cardinality sorting network, built lazily on
// its first call so instances that never use SMUS mode never pay for
// it.
//
// A cardinality network's counted literals must live in the same
// logic.C as whatever else gets transcribed onto the same gini
// instance (gini.Gini's variable ids and a circuit's node indices are
// the same numbers once transcribed, so mixing two independently
// numbered sources would silently alias unrelated variables). That is
// why the n map literals are allocated from a logic.C from the start,
// instead of directly from gini.Gini.Lit() as pkg/cnfsolver does for
// its theory variables.
type Solver struct {
	c        *logic.C
	g        *gini.Gini
	n        int
	lits     []z.Lit
	bias     bool // true: NextSeed maximizes (MUS bias); false: minimizes (MCS bias)
	cardinal bool // true: NextSeed returns a cardinality-extremal model (-M/--MAX)

	card  *logic.CardSort
	marks []int8
}

// New builds a Solver over n constraint indices under the given bias.
func New(n int, bias marco.Bias) *Solver {
	c := logic.NewCCap(n + 1)
	g := gini.NewV(n)
	lits := make([]z.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = c.Lit()
	}
	c.ToCnf(g)
	return &Solver{c: c, g: g, n: n, lits: lits, bias: bias == marco.BiasMUSes}
}

// N returns the size of the subset lattice's universe.
func (s *Solver) N() int { return s.n }

// SetCardinal switches NextSeed between its default behavior (any
// unblocked model, then greedily extended/shrunk by inclusion) and
// cardinality-extremal mode (-M/--MAX in original_source/marco.py's
// parse_args, backed there by a dedicated MinicardMapSolver): the
// genuinely largest- or smallest-cardinality unblocked model, found via
// this Solver's cardinality network instead of a greedy inclusion walk.
func (s *Solver) SetCardinal(enabled bool) { s.cardinal = enabled }

func (s *Solver) subsetFromModel() marco.Subset {
	seed := marco.NewSubset(s.n)
	for i := 0; i < s.n; i++ {
		if s.g.Value(s.lits[i]) {
			seed = seed.With(i)
		}
	}
	return seed
}

func (s *Solver) assume(subset marco.Subset) {
	for _, i := range subset.Indices() {
		s.g.Assume(s.lits[i])
	}
}

// NextSeed solves for any unblocked point of the lattice and pushes it
// to this Solver's configured bias before returning it, so the
// Enumerator can usually trust knownMax without a separate
// maximization pass (the "solver" Maximize mode of spec.md §4.3). In
// cardinal mode (SetCardinal(true)) it instead returns the genuinely
// largest- or smallest-cardinality unblocked model.
func (s *Solver) NextSeed() (marco.Subset, bool, error) {
	switch s.g.Solve() {
	case unsatisfiable:
		return marco.Subset{}, false, nil
	case satisfiable:
		if s.cardinal {
			return s.cardinalSeed(s.bias)
		}
		seed := s.subsetFromModel()
		maximized, err := s.MaximizeSeed(seed, s.bias)
		if err != nil {
			return marco.Subset{}, false, err
		}
		return maximized, true, nil
	default:
		return marco.Subset{}, false, errors.New("gini solve was cancelled")
	}
}

// ensureCard builds this Solver's cardinality sorting network on first
// use (grounded on litMapping.CardinalityConstrainer) and teaches its
// Leq predicates into the solver. Both BlockAboveSize and cardinalSeed
// share it, so instances that use neither never pay for it.
func (s *Solver) ensureCard() {
	if s.card != nil {
		return
	}
	clen := s.c.Len()
	s.card = s.c.CardSort(s.lits)
	s.marks = make([]int8, clen, s.c.Len())
	for i := range s.marks {
		s.marks[i] = 1
	}
	for w := 0; w <= s.card.N(); w++ {
		s.marks, _ = s.c.CnfSince(s.g, s.marks, s.card.Leq(w))
	}
}

// cardinalSeed returns the unblocked model of largest (direction=true)
// or smallest (direction=false) cardinality, via binary search over
// this Solver's cardinality network. Each trial assumes a Leq bound
// rather than asserting it, so unlike BlockAboveSize the search never
// permanently narrows the unexplored region.
func (s *Solver) cardinalSeed(direction bool) (marco.Subset, bool, error) {
	s.ensureCard()

	feasible := func(target int) (bool, error) {
		if direction {
			if target > 0 {
				s.g.Assume(s.card.Leq(target - 1).Not())
			}
		} else {
			s.g.Assume(s.card.Leq(target))
		}
		switch s.g.Solve() {
		case satisfiable:
			return true, nil
		case unsatisfiable:
			return false, nil
		default:
			return false, errors.New("gini solve was cancelled")
		}
	}

	lo, hi := 0, s.n
	for lo < hi {
		var mid int
		if direction {
			mid = lo + (hi-lo+1)/2
		} else {
			mid = lo + (hi-lo)/2
		}
		ok, err := feasible(mid)
		if err != nil {
			return marco.Subset{}, false, err
		}
		switch {
		case direction && ok:
			lo = mid
		case direction:
			hi = mid - 1
		case ok:
			hi = mid
		default:
			lo = mid + 1
		}
	}

	ok, err := feasible(lo)
	if err != nil {
		return marco.Subset{}, false, err
	}
	if !ok {
		return marco.Subset{}, false, errors.New("cardinality search lost satisfiability")
	}
	return s.subsetFromModel(), true, nil
}

// BlockUp permanently excludes every superset of u from future seeds.
func (s *Solver) BlockUp(u marco.Subset) error {
	for _, i := range u.Indices() {
		s.g.Add(s.lits[i].Not())
	}
	s.g.Add(z.LitNull)
	return nil
}

// BlockDown permanently excludes every subset of d from future seeds.
func (s *Solver) BlockDown(d marco.Subset) error {
	for _, i := range d.Complement().Indices() {
		s.g.Add(s.lits[i])
	}
	s.g.Add(z.LitNull)
	return nil
}

// BlockAboveSize permanently excludes every seed with more than k
// members. On its first call it builds a sorting network over every
// map literal (grounded on litMapping.CardinalityConstrainer) and
// teaches its Leq predicates into the solver; subsequent calls just
// assert the matching Leq(k) literal.
func (s *Solver) BlockAboveSize(k int) error {
	s.ensureCard()
	if k < 0 {
		s.g.Add(z.LitNull)
		return nil
	}
	s.g.Add(s.card.Leq(k))
	s.g.Add(z.LitNull)
	return nil
}

// MaximizeSeed pushes seed to an inclusion-extremal unblocked point in
// the given direction: true grows it, false shrinks it. Each growing
// step re-reads the whole model after a successful solve, so any other
// map literal the solver happens to have set along the way is picked
// up for free, the same trick pkg/cnfsolver's Grow uses. Each shrinking
// step assumes every literal outside the candidate false, so the result
// is always a subset of seed.
func (s *Solver) MaximizeSeed(seed marco.Subset, direction bool) (marco.Subset, error) {
	current := seed.Clone()
	if direction {
		for i := 0; i < s.n; i++ {
			if current.Contains(i) {
				continue
			}
			s.assume(current)
			s.g.Assume(s.lits[i])
			switch s.g.Solve() {
			case satisfiable:
				current = s.subsetFromModel()
			case unsatisfiable:
				// i cannot be added while staying unblocked.
			default:
				return current, errors.New("gini solve was cancelled")
			}
		}
		return current, nil
	}

	for _, i := range seed.Indices() {
		if !current.Contains(i) {
			continue
		}
		remaining := current.Without(i)
		s.assume(remaining)
		for _, j := range remaining.Complement().Indices() {
			s.g.Assume(s.lits[j].Not())
		}
		switch s.g.Solve() {
		case satisfiable:
			current = s.subsetFromModel()
		case unsatisfiable:
			// i cannot be dropped while staying unblocked.
		default:
			return current, errors.New("gini solve was cancelled")
		}
	}
	return current, nil
}

// FindAbove looks for any unblocked strict superset of seed, trying
// each absent index in turn. It is used for MSS-guided seeding, not on
// the hot path, so a linear scan is an acceptable cost.
func (s *Solver) FindAbove(seed marco.Subset) (marco.Subset, bool, error) {
	for j := 0; j < s.n; j++ {
		if seed.Contains(j) {
			continue
		}
		s.assume(seed)
		s.g.Assume(s.lits[j])
		switch s.g.Solve() {
		case satisfiable:
			return s.subsetFromModel(), true, nil
		case unsatisfiable:
			continue
		default:
			return marco.Subset{}, false, errors.New("gini solve was cancelled")
		}
	}
	return marco.Subset{}, false, nil
}

var _ marco.MapSolver = (*Solver)(nil)
