package marco

// seedManager is a FIFO queue of externally injected seeds layered over
// the Map's own next_seed generator (spec.md §4.3). It is non-owning
// with respect to the Map: its lifetime is tied to the Enumerator that
// holds it.
type seedManager struct {
	mapSolver MapSolver
	injected  []Seed
	// solverProvidesMax is true when the owning Enumerator's config
	// trusts the Map solver's own polarity bias to return already
	// extremal seeds (Maximize == MaximizeSolver).
	solverProvidesMax bool
}

func newSeedManager(m MapSolver, solverProvidesMax bool) *seedManager {
	return &seedManager{mapSolver: m, solverProvidesMax: solverProvidesMax}
}

// addSeed enqueues an externally hinted seed (used by MSS-guided
// exploration, spec.md §4.4 Step 4).
func (q *seedManager) addSeed(s Subset, knownMax bool) {
	q.injected = append(q.injected, Seed{Subset: s, KnownMax: knownMax})
}

// next returns the next seed in the sequence, or ok=false once the
// injection queue is empty and the Map's next_seed is exhausted. The
// sequence is finite and non-restartable: the Map formula only ever
// grows more constrained.
func (q *seedManager) next() (seed Seed, ok bool, err error) {
	if len(q.injected) > 0 {
		seed = q.injected[0]
		q.injected = q.injected[1:]
		return seed, true, nil
	}

	s, found, err := q.mapSolver.NextSeed()
	if err != nil {
		return Seed{}, false, err
	}
	if !found {
		return Seed{}, false, nil
	}
	return Seed{Subset: s, KnownMax: q.solverProvidesMax}, true, nil
}
