package marco

// Brute-force fakes for the Map and Subset oracles, used to exercise
// Enumerator logic independent of any real SAT backing (the gini
// backings in pkg/mapsolver and pkg/cnfsolver have their own tests).

// lit is a DIMACS-style literal: positive k means boolean variable k is
// true, negative k means it is false.
type lit int

// clause is a disjunction of lits; it is satisfied by an assignment iff
// at least one of its lits holds.
type clause []lit

func (c clause) satisfiedBy(assign map[int]bool) bool {
	for _, l := range c {
		v := int(l)
		want := true
		if v < 0 {
			v = -v
			want = false
		}
		if assign[v] == want {
			return true
		}
	}
	return false
}

// constraintCNF is the conjunction of clauses making up a single
// indexed constraint; most constraints are a single clause, but this
// also lets a test express a constraint that is unsatisfiable on its
// own (e.g. x and not x).
type constraintCNF []clause

func (c constraintCNF) satisfiedBy(assign map[int]bool) bool {
	for _, cl := range c {
		if !cl.satisfiedBy(assign) {
			return false
		}
	}
	return true
}

// bruteTheory is a tiny CNF theory: constraint i is clauses[i].
type bruteTheory struct {
	nvars   int
	clauses []constraintCNF
}

func (t *bruteTheory) n() int { return len(t.clauses) }

// sat reports whether there is some assignment of the theory's boolean
// variables satisfying every clause indexed by s, and if so returns
// that assignment.
func (t *bruteTheory) sat(s Subset) (bool, map[int]bool) {
	indices := s.Indices()
	total := 1 << uint(t.nvars)
	for bits := 0; bits < total; bits++ {
		assign := make(map[int]bool, t.nvars)
		for v := 1; v <= t.nvars; v++ {
			assign[v] = bits&(1<<uint(v-1)) != 0
		}
		ok := true
		for _, i := range indices {
			if !t.clauses[i].satisfiedBy(assign) {
				ok = false
				break
			}
		}
		if ok {
			return true, assign
		}
	}
	return false, nil
}

type bruteSubsetSolver struct {
	t *bruteTheory
}

func (b *bruteSubsetSolver) N() int { return b.t.n() }

func (b *bruteSubsetSolver) CheckSubset(s Subset, improveSeed bool) (bool, Subset, error) {
	ok, assign := b.t.sat(s)
	if !improveSeed {
		return ok, s, nil
	}
	if ok {
		extended := s.Clone()
		for i := 0; i < b.t.n(); i++ {
			if b.t.clauses[i].satisfiedBy(assign) {
				extended = extended.With(i)
			}
		}
		return true, extended, nil
	}
	return false, s, nil
}

func (b *bruteSubsetSolver) Grow(s Subset) (Subset, error) {
	current := s.Clone()
	for i := 0; i < b.t.n(); i++ {
		if current.Contains(i) {
			continue
		}
		candidate := current.With(i)
		if ok, _ := b.t.sat(candidate); ok {
			current = candidate
		}
	}
	return current, nil
}

func (b *bruteSubsetSolver) Shrink(s Subset, hard Subset) (Subset, error) {
	current := s.Clone()
	for _, i := range s.Indices() {
		if hard.Contains(i) {
			continue
		}
		candidate := current.Without(i)
		if ok, _ := b.t.sat(candidate); !ok {
			current = candidate
		}
	}
	return current, nil
}

func (b *bruteSubsetSolver) Complement(s Subset) Subset { return s.Complement() }

// bruteMapSolver implements MapSolver by brute-force scan over the
// 2^n subsets of [0, n), in an order controlled by bias.
type bruteMapSolver struct {
	n           int
	bias        *bool // nil = natural order, true = largest-first, false = smallest-first
	blockedUp   []Subset
	blockedDown []Subset
	maxSize     int // -1 = unlimited
}

func newBruteMapSolver(n int, bias *bool) *bruteMapSolver {
	return &bruteMapSolver{n: n, bias: bias, maxSize: -1}
}

func (m *bruteMapSolver) N() int { return m.n }

func (m *bruteMapSolver) excluded(s Subset) bool {
	if m.maxSize >= 0 && s.Len() > m.maxSize {
		return true
	}
	for _, u := range m.blockedUp {
		if u.IsSubsetOf(s) {
			return true
		}
	}
	for _, d := range m.blockedDown {
		if s.IsSubsetOf(d) {
			return true
		}
	}
	return false
}

func (m *bruteMapSolver) order() []int {
	total := 1 << uint(m.n)
	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	if m.bias == nil {
		return order
	}
	// Sort by population count: descending for "high" bias (maximal
	// subsets first), ascending for "low" bias (minimal subsets first).
	popcount := func(x int) int {
		c := 0
		for x != 0 {
			c += x & 1
			x >>= 1
		}
		return c
	}
	less := func(i, j int) bool {
		pi, pj := popcount(order[i]), popcount(order[j])
		if *m.bias {
			return pi > pj
		}
		return pi < pj
	}
	// simple insertion sort; n is tiny in tests
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

func (m *bruteMapSolver) subsetFromBits(bits int) Subset {
	s := NewSubset(m.n)
	for i := 0; i < m.n; i++ {
		if bits&(1<<uint(i)) != 0 {
			s = s.With(i)
		}
	}
	return s
}

func (m *bruteMapSolver) NextSeed() (Subset, bool, error) {
	for _, bits := range m.order() {
		s := m.subsetFromBits(bits)
		if !m.excluded(s) {
			return s, true, nil
		}
	}
	return Subset{}, false, nil
}

func (m *bruteMapSolver) BlockUp(u Subset) error {
	m.blockedUp = append(m.blockedUp, u.Clone())
	return nil
}

func (m *bruteMapSolver) BlockDown(d Subset) error {
	m.blockedDown = append(m.blockedDown, d.Clone())
	return nil
}

func (m *bruteMapSolver) BlockAboveSize(k int) error {
	if m.maxSize < 0 || k < m.maxSize {
		m.maxSize = k
	}
	return nil
}

func (m *bruteMapSolver) MaximizeSeed(s Subset, direction bool) (Subset, error) {
	current := s.Clone()
	if direction {
		for i := 0; i < m.n; i++ {
			if current.Contains(i) {
				continue
			}
			candidate := current.With(i)
			if !m.excluded(candidate) {
				current = candidate
			}
		}
		return current, nil
	}
	for _, i := range s.Indices() {
		candidate := current.Without(i)
		if !m.excluded(candidate) {
			current = candidate
		}
	}
	return current, nil
}

func (m *bruteMapSolver) FindAbove(s Subset) (Subset, bool, error) {
	for bits := 0; bits < (1 << uint(m.n)); bits++ {
		cand := m.subsetFromBits(bits)
		if !s.IsSubsetOf(cand) || cand.Equal(s) {
			continue
		}
		if !m.excluded(cand) {
			return cand, true, nil
		}
	}
	return Subset{}, false, nil
}

func boolPtr(b bool) *bool { return &b }
