package engine

// costState is the lifecycle of a cached cost vector, mirroring the
// teacher's OperationTracker.completed guard: a cached value is either
// trustworthy, needs a full rebuild, or can be patched incrementally from
// the last pivot.
type costState int

const (
	costInvalid costState = iota
	costRecomputed
	costUpdated
)

// CostManager maintains the Sum-of-Infeasibilities cost vector used by the
// SoI local-search phase: one scalar per piecewise constraint (its current
// CostComponent), plus their sum, recomputed lazily.
type CostManager struct {
	constraints []PiecewiseConstraint
	components  []float64
	total       float64
	state       costState
}

// NewCostManager builds a cost manager over the given constraints.
func NewCostManager(constraints []PiecewiseConstraint) *CostManager {
	return &CostManager{
		constraints: constraints,
		components:  make([]float64, len(constraints)),
		state:       costInvalid,
	}
}

// Invalidate marks the cached cost as stale, forcing the next Total() call
// to fully recompute. Called whenever a pivot or bound tightening changes
// the tableau assignment.
func (cm *CostManager) Invalidate() {
	cm.state = costInvalid
}

// Recompute fully rebuilds every component from the current tableau
// assignment.
func (cm *CostManager) Recompute(t *Tableau) {
	cm.total = 0
	for i, c := range cm.constraints {
		v := c.CostComponent(t)
		cm.components[i] = v
		cm.total += v
	}
	cm.state = costRecomputed
}

// Total returns the current Sum-of-Infeasibilities, recomputing first if
// the cache is invalid.
func (cm *CostManager) Total(t *Tableau) float64 {
	if cm.state == costInvalid {
		cm.Recompute(t)
	}
	return cm.total
}

// Component returns the i-th constraint's cached cost component, valid only
// immediately after Total or Recompute.
func (cm *CostManager) Component(i int) float64 {
	return cm.components[i]
}

// UpdateComponent patches a single constraint's cached component after a
// targeted local change (e.g. a proposed phase flip under SoI exploration),
// avoiding a full recompute across every constraint.
func (cm *CostManager) UpdateComponent(i int, t *Tableau) {
	old := cm.components[i]
	v := cm.constraints[i].CostComponent(t)
	cm.components[i] = v
	cm.total += v - old
	if cm.state == costRecomputed {
		cm.state = costUpdated
	}
}
