package marco

import "context"

// EmitFunc receives one extremal subset as it is discovered. Returning
// a non-nil error aborts the Enumerator.
type EmitFunc func(Result) error

// Enumerator drives the main MARCO loop of spec.md §4.4: obtain a seed,
// classify it, refine it to a genuine extremal subset, emit it, block
// it, and repeat until the Seed Manager is exhausted.
//
// An Enumerator owns its MapSolver and SubsetSolver exclusively (no
// concurrent calls are made against either); the seedManager is a
// non-owning view onto the MapSolver with a lifetime tied to the
// Enumerator.
type Enumerator struct {
	subs   SubsetSolver
	mp     MapSolver
	seeds  *seedManager
	config Config
	n      int

	// gotTop becomes true once any UNSAT subset has been observed,
	// per invariant 5: the top of the lattice, [0, n), is then known
	// UNSAT-covered and need not be rediscovered.
	gotTop bool

	// singletons is H, the singleton-MCS cache: {j} such that C\{j}
	// has been emitted as an MSS (SAT, while adding j back makes it
	// UNSAT), so every MUS contains j. Passed as hard assumptions to
	// Shrink so those elements are never tested for removal.
	singletons Subset
}

// NewEnumerator constructs an Enumerator over the given oracles with
// the given configuration.
func NewEnumerator(subs SubsetSolver, mp MapSolver, config Config) *Enumerator {
	n := mp.N()
	solverProvidesMax := config.Maximize == MaximizeSolver
	return &Enumerator{
		subs:       subs,
		mp:         mp,
		seeds:      newSeedManager(mp, solverProvidesMax),
		config:     config,
		n:          n,
		singletons: NewSubset(n),
	}
}

// InjectBlock applies a peer's emitted result to this Enumerator's own
// Map, as a block_down (for an "S" result) or block_up (for a "U"
// result), before the next seed is drawn. This is how the Hub prevents
// peers from rediscovering each other's results (spec.md §4.5).
func (e *Enumerator) InjectBlock(r Result) error {
	switch r.Kind {
	case KindSat:
		return wrapSolverError("block_down", e.mp.BlockDown(r.Subset))
	case KindUnsat:
		return wrapSolverError("block_up", e.mp.BlockUp(r.Subset))
	default:
		return invariantFailure("unrecognised result kind %q", r.Kind)
	}
}

// AddSeed injects an externally hinted seed; within this package it is
// used by MSS-guided exploration (emitSat).
func (e *Enumerator) AddSeed(s Subset, knownMax bool) {
	e.seeds.addSeed(s, knownMax)
}

// pollInbound drains any pending peer-block messages without blocking.
// This is the Enumerator's only cancellation-check point (spec.md §5):
// between two emits, before requesting the next seed.
func pollInbound(ctx context.Context, inbound <-chan Result, e *Enumerator) (cancelled bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case r, ok := <-inbound:
			if !ok {
				return false, nil
			}
			if err := e.InjectBlock(r); err != nil {
				return false, err
			}
		default:
			return false, nil
		}
	}
}

// Run executes the main loop until the Seed Manager is exhausted (a
// genuinely complete enumeration from this worker's point of view), the
// context is cancelled, or a solver error occurs. Every result already
// passed to emit before an error or cancellation remains a valid,
// genuine MUS or MSS: partial output is never retracted.
func (e *Enumerator) Run(ctx context.Context, inbound <-chan Result, emit EmitFunc) error {
	for {
		cancelled, err := pollInbound(ctx, inbound, e)
		if err != nil {
			return err
		}
		if cancelled {
			return ctx.Err()
		}

		seed, ok, err := e.seeds.next()
		if err != nil {
			return wrapSolverError("next_seed", err)
		}
		if !ok {
			return nil
		}

		if err := e.step(ctx, seed, emit); err != nil {
			return err
		}
	}
}

func (e *Enumerator) step(ctx context.Context, seed Seed, emit EmitFunc) error {
	aimHigh := e.config.aimHigh()
	s := seed.Subset
	knownMax := seed.KnownMax

	// Step 1 — optional aggressive maximisation.
	if e.config.Maximize == MaximizeAlways {
		maximized, err := e.mp.MaximizeSeed(s, aimHigh)
		if err != nil {
			return wrapSolverError("maximize_seed", err)
		}
		s = maximized
	}

	// Step 2 — classification.
	sat, refined, err := e.subs.CheckSubset(s, true)
	if err != nil {
		return wrapSolverError("check_subset", err)
	}
	s = refined
	knownMax = knownMax && (sat == aimHigh)

	// Step 3 — half-max re-maximisation.
	if e.config.Maximize == MaximizeHalf && sat == aimHigh {
		oldLen := s.Len()
		maximized, err := e.mp.MaximizeSeed(s, aimHigh)
		if err != nil {
			return wrapSolverError("maximize_seed", err)
		}
		s = maximized
		newLen := s.Len()
		if oldLen != newLen {
			sat, s, err = e.subs.CheckSubset(s, true)
			if err != nil {
				return wrapSolverError("check_subset", err)
			}
		}
		knownMax = oldLen == newLen
	}

	if sat {
		return e.emitSat(s, knownMax, emit)
	}
	return e.emitUnsat(s, knownMax, emit)
}

// emitSat handles Step 4: the seed classified SAT.
func (e *Enumerator) emitSat(seed Subset, knownMax bool, emit EmitFunc) error {
	m := seed
	if !knownMax {
		grown, err := e.subs.Grow(seed)
		if err != nil {
			return wrapSolverError("grow", err)
		}
		m = grown
	}

	if err := emit(Result{Kind: KindSat, Subset: m}); err != nil {
		return err
	}
	if err := wrapSolverError("block_down", e.mp.BlockDown(m)); err != nil {
		return err
	}

	n := e.n
	if e.config.UseSingletons && m.Len() == n-1 {
		for _, j := range e.subs.Complement(m).Indices() {
			e.singletons = e.singletons.With(j)
		}
	}

	if e.config.MSSGuided && !(m.Len() == n-1 && e.gotTop) {
		above, ok, err := e.mp.FindAbove(m)
		if err != nil {
			return wrapSolverError("find_above", err)
		}
		if ok {
			e.AddSeed(above, false)
		}
	}

	return nil
}

// emitUnsat handles Step 5: the seed classified UNSAT.
func (e *Enumerator) emitUnsat(seed Subset, knownMax bool, emit EmitFunc) error {
	e.gotTop = true

	u := seed
	if !knownMax {
		shrunk, err := e.subs.Shrink(seed, e.singletons)
		if err != nil {
			return wrapSolverError("shrink", err)
		}
		u = shrunk
	}

	if err := emit(Result{Kind: KindUnsat, Subset: u}); err != nil {
		return err
	}
	if err := wrapSolverError("block_up", e.mp.BlockUp(u)); err != nil {
		return err
	}

	if e.config.SMUS {
		if err := wrapSolverError("block_down", e.mp.BlockDown(u)); err != nil {
			return err
		}
		if err := wrapSolverError("block_above_size", e.mp.BlockAboveSize(u.Len()-1)); err != nil {
			return err
		}
	}

	return nil
}
