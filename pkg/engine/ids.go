package engine

import "sync/atomic"

// constraintIDCounter is a process-wide atomic counter, mirroring the
// teacher's generateConstraintID convention in constraint_types.go: every
// constraint constructor calls newConstraintID() for a stable, hashable ID
// used in trail entries, clause literals, and log output.
var constraintIDCounter int64

func newConstraintID() int {
	return int(atomic.AddInt64(&constraintIDCounter, 1))
}
