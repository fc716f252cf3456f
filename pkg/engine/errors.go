package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy. Infeasibility and Degradation are expected, recoverable
// conditions that the driver handles internally; Timeout/Quit are expected
// terminal conditions surfaced to the caller; InvariantViolation indicates a
// bug and is always fatal.

// Infeasibility is returned when a bound tightening would cross lb(v) >
// ub(v), or when the simplex's Phase-1 objective cannot be driven to zero.
// It propagates out of the current simplex/propagation operation; the
// search driver catches it and either performs conflict analysis or, at
// context level 0, reports UNSAT.
type Infeasibility struct {
	Variable int
	Reason   string
}

func (e *Infeasibility) Error() string {
	return fmt.Sprintf("infeasible at variable %d: %s", e.Variable, e.Reason)
}

// NewInfeasibility constructs an Infeasibility signal for the given variable.
func NewInfeasibility(variable int, reason string) *Infeasibility {
	return &Infeasibility{Variable: variable, Reason: reason}
}

// Degradation indicates accumulated numeric error exceeded the configured
// threshold. It is recoverable via refactorization and, if necessary,
// precision restoration; it is never visible outside the engine.
type Degradation struct {
	Residual  float64
	Threshold float64
}

func (e *Degradation) Error() string {
	return fmt.Sprintf("numeric degradation: residual %g exceeds threshold %g", e.Residual, e.Threshold)
}

// MalformedBasis indicates the basis factorization could not be built or
// applied (e.g. a singular basis matrix). Recoverable via the precision
// restorer.
type MalformedBasis struct {
	Reason string
}

func (e *MalformedBasis) Error() string {
	return fmt.Sprintf("malformed basis: %s", e.Reason)
}

// InvariantViolation indicates a bug: an assertion the engine relies on for
// correctness did not hold (e.g. popping an empty decision stack). Always
// fatal; the engine reports ERROR and stops.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Detail)
}

// Sentinel errors surfaced at the library boundary.
var (
	// ErrTimeout names the condition of the configured timeout elapsing
	// before a verdict is reached. Engine.Solve does not return it: it
	// reports that case as a Result with Status Timeout and a nil error.
	ErrTimeout = errors.New("pwlsat: timeout exceeded")

	// ErrQuitRequested names the condition of the caller cancelling the
	// context passed to Engine.Solve before a verdict is reached. Solve does
	// not return it: it reports a Result with Status QuitRequested.
	ErrQuitRequested = errors.New("pwlsat: quit requested")

	// ErrProofsUnsupported is returned by NewEngine when Config.ProduceProofs
	// is set to true; proof-certificate emission is an explicit non-goal of
	// this package (delegated to an external collaborator).
	ErrProofsUnsupported = errors.New("pwlsat: proof production is not implemented")

	// ErrEmptyDecisionStack signals an attempt to pop past context level 0.
	ErrEmptyDecisionStack = errors.New("pwlsat: cannot pop below context level 0")
)

// invariant panics with an InvariantViolation if cond is false. Used at the
// handful of sites where violation indicates an engine bug rather than a
// property of the input problem (spec §7: InvariantViolation is fatal).
func invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&InvariantViolation{Detail: fmt.Sprintf(format, args...)})
	}
}
