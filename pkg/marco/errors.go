package marco

import (
	"fmt"

	"github.com/pkg/errors"
)

// SolverError wraps a failure reported by an underlying Map or Subset
// solver (resource exhaustion, solver crash, protocol violation). It is
// always fatal to the Enumerator that observed it.
type SolverError struct {
	Op    string
	cause error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver error during %s: %s", e.Op, e.cause)
}

func (e *SolverError) Unwrap() error { return e.cause }

// wrapSolverError annotates err, if non-nil, as a SolverError attributed
// to operation op.
func wrapSolverError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SolverError{Op: op, cause: errors.Wrap(err, op)}
}

// InternalInvariantFailure indicates the Enumerator detected a broken
// invariant. Its only source is InjectBlock receiving a Result of
// unrecognised Kind. It indicates a bug, never a runtime condition, and
// is never recovered from.
type InternalInvariantFailure struct {
	Invariant string
}

func (e *InternalInvariantFailure) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Invariant)
}

func invariantFailure(format string, args ...interface{}) error {
	return &InternalInvariantFailure{Invariant: fmt.Sprintf(format, args...)}
}
