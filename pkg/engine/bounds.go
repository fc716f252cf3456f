package engine

// BoundKind distinguishes a lower-bound tightening from an upper-bound one.
type BoundKind int

const (
	// LowerBound tags a tightening of lb(v).
	LowerBound BoundKind = iota
	// UpperBound tags a tightening of ub(v).
	UpperBound
)

// Tightening is a proposed (and, once returned from GetTightenings, already
// installed) improvement to lb(v) or ub(v).
type Tightening struct {
	Variable int
	Value    float64
	Kind     BoundKind
}

// Watcher receives synchronous callbacks when a bound it is interested in is
// strictly improved. The Tableau and every piecewise constraint referencing
// a variable register as watchers on that variable.
type Watcher interface {
	OnLowerBound(v int, newVal float64) error
	OnUpperBound(v int, newVal float64) error
}

// BoundManager stores context-dependent per-variable lower/upper bounds,
// notifies watchers of bound changes, and detects infeasibility. It is the
// shared ledger through which the tableau, the piecewise constraint layer,
// and the search driver communicate tightenings.
type BoundManager struct {
	ctx  *Context
	cfg  *Config
	lb   []float64
	ub   []float64
	wLow [][]Watcher
	wUp  [][]Watcher

	tightenings []Tightening

	consistent     bool
	offendingVar   int
	offendingKind  BoundKind
	offendingValue float64
}

// NewBoundManager creates a bound manager for n variables, all initially
// unbounded, sharing the given context for undo and configuration for
// tolerances.
func NewBoundManager(ctx *Context, cfg *Config, n int) *BoundManager {
	bm := &BoundManager{
		ctx:        ctx,
		cfg:        cfg,
		lb:         make([]float64, n),
		ub:         make([]float64, n),
		wLow:       make([][]Watcher, n),
		wUp:        make([][]Watcher, n),
		consistent: true,
	}
	for i := 0; i < n; i++ {
		bm.lb[i] = NegInf
		bm.ub[i] = PosInf
	}
	return bm
}

// NumVars returns the number of variables tracked by this manager.
func (bm *BoundManager) NumVars() int {
	return len(bm.lb)
}

// Lb returns the current lower bound of v.
func (bm *BoundManager) Lb(v int) float64 { return bm.lb[v] }

// Ub returns the current upper bound of v.
func (bm *BoundManager) Ub(v int) float64 { return bm.ub[v] }

// SetInitialBounds installs the initial (level-0, non-undoable) bounds for a
// variable, used during problem construction before the search begins.
func (bm *BoundManager) SetInitialBounds(v int, lb, ub float64) {
	bm.lb[v] = lb
	bm.ub[v] = ub
}

// Watch registers w to be notified of future strict improvements to lb(v)
// and ub(v). Watcher registration happens once at initialization and is not
// context-dependent (spec §3: variables and constraints are immutable after
// declaration).
func (bm *BoundManager) Watch(v int, w Watcher) {
	bm.wLow[v] = append(bm.wLow[v], w)
	bm.wUp[v] = append(bm.wUp[v], w)
}

// Consistent reports whether the bound manager's state is known consistent.
// Once false, it remains false until the context is popped past the level
// at which the crossing was recorded.
func (bm *BoundManager) Consistent() bool {
	return bm.consistent
}

// Conflict returns the variable and tightening that caused the last-detected
// bound crossing. Only meaningful when Consistent() is false.
func (bm *BoundManager) Conflict() (variable int, kind BoundKind, value float64) {
	return bm.offendingVar, bm.offendingKind, bm.offendingValue
}

// TightenLower installs x as the lower bound of v iff it strictly improves
// the current bound (beyond SimplexTolerance). If the tightening makes
// lb(v) > ub(v), the context is marked inconsistent and an *Infeasibility is
// returned; callers must stop whatever simplex/propagation operation they
// are in the middle of and let it unwind to the search driver, per spec §4.1.
func (bm *BoundManager) TightenLower(v int, x float64) (bool, error) {
	tol := bm.cfg.SimplexTolerance
	if !gt(x, bm.lb[v], tol) {
		return false, nil
	}
	old := bm.lb[v]
	bm.lb[v] = x
	bm.ctx.Record(func() { bm.lb[v] = old })
	bm.tightenings = append(bm.tightenings, Tightening{Variable: v, Value: x, Kind: LowerBound})

	if gt(bm.lb[v], bm.ub[v], tol) {
		bm.markInconsistent(v, LowerBound, x)
		return true, NewInfeasibility(v, "lower bound exceeds upper bound")
	}

	for _, w := range bm.wLow[v] {
		if err := w.OnLowerBound(v, x); err != nil {
			return true, err
		}
	}
	return true, nil
}

// TightenUpper is the symmetric counterpart of TightenLower.
func (bm *BoundManager) TightenUpper(v int, x float64) (bool, error) {
	tol := bm.cfg.SimplexTolerance
	if !lt(x, bm.ub[v], tol) {
		return false, nil
	}
	old := bm.ub[v]
	bm.ub[v] = x
	bm.ctx.Record(func() { bm.ub[v] = old })
	bm.tightenings = append(bm.tightenings, Tightening{Variable: v, Value: x, Kind: UpperBound})

	if gt(bm.lb[v], bm.ub[v], tol) {
		bm.markInconsistent(v, UpperBound, x)
		return true, NewInfeasibility(v, "upper bound below lower bound")
	}

	for _, w := range bm.wUp[v] {
		if err := w.OnUpperBound(v, x); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (bm *BoundManager) markInconsistent(v int, kind BoundKind, value float64) {
	wasConsistent := bm.consistent
	prevVar, prevKind, prevVal := bm.offendingVar, bm.offendingKind, bm.offendingValue
	bm.consistent = false
	bm.offendingVar, bm.offendingKind, bm.offendingValue = v, kind, value
	bm.ctx.Record(func() {
		bm.consistent = wasConsistent
		bm.offendingVar, bm.offendingKind, bm.offendingValue = prevVar, prevKind, prevVal
	})
}

// GetTightenings returns and clears the queue of tightenings performed
// since the last drain, in FIFO installation order.
func (bm *BoundManager) GetTightenings() []Tightening {
	out := bm.tightenings
	bm.tightenings = nil
	return out
}

// BoundSnapshot is an opaque copy of every variable's current lower and
// upper bound, independent of the context's own undo trail.
type BoundSnapshot struct {
	lb []float64
	ub []float64
}

// Snapshot captures the current lb/ub of every variable. Intended for
// white-box tests that want to assert on bound state at a point in the
// search without threading a Context checkpoint through the call.
func (bm *BoundManager) Snapshot() BoundSnapshot {
	s := BoundSnapshot{lb: make([]float64, len(bm.lb)), ub: make([]float64, len(bm.ub))}
	copy(s.lb, bm.lb)
	copy(s.ub, bm.ub)
	return s
}

// RestoreForDebug overwrites every variable's lb/ub with the values in s,
// bypassing the context's undo trail entirely. Only safe between search
// steps, never mid-propagation: it does not notify watchers and does not
// record an undo closure, so it is for test setup/teardown, not backtracking.
func (bm *BoundManager) RestoreForDebug(s BoundSnapshot) {
	copy(bm.lb, s.lb)
	copy(bm.ub, s.ub)
}
