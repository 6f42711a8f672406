package marco

// Bias selects which kind of extremal subset the search heuristics
// favour finding early in the enumeration; every MUS and MSS is found
// eventually regardless of bias.
type Bias string

const (
	BiasMUSes Bias = "MUSes"
	BiasMCSes Bias = "MCSes"
)

// Maximize selects the seed-maximisation strategy of Enumerator Step 1
// and Step 3.
type Maximize string

const (
	// MaximizeNone ("--nomax") disables maximisation entirely: every
	// seed is unconditionally refined with Grow or Shrink, never
	// trusted as already extremal.
	MaximizeNone Maximize = "none"
	// MaximizeSolver is the default: the Map solver's own per-variable
	// polarity bias already returns maximal/minimal unexplored models,
	// so a freshly drawn (non-injected) seed is trusted as extremal
	// without an explicit MaximizeSeed call.
	MaximizeSolver Maximize = "solver"
	// MaximizeAlways ("-m always") maximises every seed via
	// MapSolver.MaximizeSeed before classification.
	MaximizeAlways Maximize = "always"
	// MaximizeHalf ("-m half") re-maximises only when the first
	// classification disagrees with the configured Bias.
	MaximizeHalf Maximize = "half"
)

// Config holds the per-Enumerator knobs of spec.md §4.4 and the CLI
// surface of §6.
type Config struct {
	// Bias selects whether this Enumerator aims for MUSes or MCSes.
	Bias Bias
	// Maximize selects the seed-maximisation strategy.
	Maximize Maximize
	// SMUS enables smallest-MUS mode: on every emitted MUS, also
	// block_down it and block_above_size(len-1).
	SMUS bool
	// MSSGuided enables MSS-guided seeding (find_above injection).
	MSSGuided bool
	// UseSingletons enables the singleton-MCS cache, passed as hard
	// assumptions to Shrink.
	UseSingletons bool
}

// aimHigh reports whether this Enumerator's bias is toward MUSes, the
// "high" direction in the lattice (maximise seeds before shrinking).
func (c Config) aimHigh() bool { return c.Bias == BiasMUSes }

// DefaultConfig returns the reference tool's default configuration:
// MUS-biased, solver-level maximisation (the MapSolver's own polarity
// bias supplies already-extremal seeds), MSS-guided seeding and the
// singleton-MCS cache both enabled.
func DefaultConfig() Config {
	return Config{
		Bias:          BiasMUSes,
		Maximize:      MaximizeSolver,
		MSSGuided:     true,
		UseSingletons: true,
	}
}
