package marco

// Kind distinguishes the two flavours of extremal subset the
// Enumerator emits.
type Kind string

const (
	// KindUnsat tags an emitted MUS: C restricted to Subset is UNSAT
	// and inclusion-minimal with that property.
	KindUnsat Kind = "U"
	// KindSat tags an emitted MSS: C restricted to Subset is SAT and
	// inclusion-maximal with that property.
	KindSat Kind = "S"
)

// Result is one emitted extremal subset.
type Result struct {
	Kind   Kind
	Subset Subset
}
