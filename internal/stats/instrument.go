package stats

import "github.com/constraintlab/marco/pkg/marco"

// WrapSubsetSolver returns a marco.SubsetSolver that forwards every
// call to subs, recording it under RecordSolverCall with the same op
// names pkg/marco/errors.go's wrapSolverError already attributes
// failures to (check_subset, grow, shrink). Complement is a pure,
// in-memory bit-flip that never reaches the solver and never fails, so
// it is forwarded unrecorded. cmd/marco wires this in at the CLI
// boundary so a library consumer embedding pkg/marco directly is never
// forced to pay for this bookkeeping.
func (r *Recorder) WrapSubsetSolver(subs marco.SubsetSolver) marco.SubsetSolver {
	return instrumentedSubsetSolver{subs: subs, rec: r}
}

// WrapMapSolver returns a marco.MapSolver that forwards every call to
// mp, recording it the same way WrapSubsetSolver does.
func (r *Recorder) WrapMapSolver(mp marco.MapSolver) marco.MapSolver {
	return instrumentedMapSolver{mp: mp, rec: r}
}

type instrumentedSubsetSolver struct {
	subs marco.SubsetSolver
	rec  *Recorder
}

func (s instrumentedSubsetSolver) N() int { return s.subs.N() }

func (s instrumentedSubsetSolver) CheckSubset(subset marco.Subset, improveSeed bool) (bool, marco.Subset, error) {
	s.rec.RecordSolverCall("check_subset")
	return s.subs.CheckSubset(subset, improveSeed)
}

func (s instrumentedSubsetSolver) Grow(seed marco.Subset) (marco.Subset, error) {
	s.rec.RecordSolverCall("grow")
	return s.subs.Grow(seed)
}

func (s instrumentedSubsetSolver) Shrink(seed, hard marco.Subset) (marco.Subset, error) {
	s.rec.RecordSolverCall("shrink")
	return s.subs.Shrink(seed, hard)
}

func (s instrumentedSubsetSolver) Complement(subset marco.Subset) marco.Subset {
	return s.subs.Complement(subset)
}

var _ marco.SubsetSolver = instrumentedSubsetSolver{}

type instrumentedMapSolver struct {
	mp  marco.MapSolver
	rec *Recorder
}

func (m instrumentedMapSolver) N() int { return m.mp.N() }

func (m instrumentedMapSolver) NextSeed() (marco.Subset, bool, error) {
	m.rec.RecordSolverCall("next_seed")
	return m.mp.NextSeed()
}

func (m instrumentedMapSolver) BlockUp(u marco.Subset) error {
	m.rec.RecordSolverCall("block_up")
	return m.mp.BlockUp(u)
}

func (m instrumentedMapSolver) BlockDown(d marco.Subset) error {
	m.rec.RecordSolverCall("block_down")
	return m.mp.BlockDown(d)
}

func (m instrumentedMapSolver) BlockAboveSize(k int) error {
	m.rec.RecordSolverCall("block_above_size")
	return m.mp.BlockAboveSize(k)
}

func (m instrumentedMapSolver) MaximizeSeed(s marco.Subset, direction bool) (marco.Subset, error) {
	m.rec.RecordSolverCall("maximize_seed")
	return m.mp.MaximizeSeed(s, direction)
}

func (m instrumentedMapSolver) FindAbove(s marco.Subset) (marco.Subset, bool, error) {
	m.rec.RecordSolverCall("find_above")
	return m.mp.FindAbove(s)
}

var _ marco.MapSolver = instrumentedMapSolver{}
