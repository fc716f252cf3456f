package engine

import "fmt"

// Phase identifies one linear piece of a piecewise-linear constraint (e.g.
// ReLU's "active"/"inactive" halves, Abs's "positive"/"negative" halves,
// Max's "argument k is the maximum" disjuncts). PhaseUnfixed means no case
// split or bound-derived elimination has pinned the constraint to a single
// phase yet.
type Phase int

const PhaseUnfixed Phase = -1

// Split names one candidate case split: fixing a constraint to a given
// phase. The search driver records these as decisions on its trail.
type Split struct {
	ConstraintID int
	Phase        Phase
}

func (s Split) String() string {
	return fmt.Sprintf("split(c%d, phase %d)", s.ConstraintID, s.Phase)
}

// AuxEquation is one fixed equation row a piecewise constraint needs wired
// into the tableau at construction time: AuxVar is pinned, by the row
// itself, to sum(Coeffs[i]*Vars[i]), and starts basic in that row (later
// pivots may move it out of the basis like any other variable). Every constraint that needs one chooses AuxVar
// so that it is structurally non-negative regardless of which phase is
// eventually fixed (e.g. ReLU's aux = f - b); fixing a phase then only has
// to tighten AuxVar's upper bound to 0 to pin the corresponding linear
// equality exactly, rather than mutating a tableau row after pivots have
// already happened. Grounded on the auxiliary-variable convention the
// teacher's source material (Marabou's ReluConstraint, aux = f - b) uses
// for the same problem.
type AuxEquation struct {
	AuxVar int
	Vars   []int
	Coeffs []float64
}

// PiecewiseConstraint is the shared contract every piecewise-linear
// constraint kind (ReLU, LeakyReLU, Abs, Sign, Max, Disjunction) implements.
// It mirrors the teacher's Constraint interface (ID/Variables/Check/Clone)
// re-typed around phases: rather than a three-state
// satisfied/violated/pending result, a piecewise constraint reports whether
// it is phase-fixed, which phases remain possible given current bounds, and
// what it would cost a Sum-of-Infeasibilities search to leave it in a given
// phase.
type PiecewiseConstraint interface {
	// ID returns this constraint's stable identifier, used for trail
	// entries, clause literals, and activity scoring.
	ID() int

	// Variables returns every variable this constraint reads or
	// constrains, used to register as a BoundManager watcher on each.
	Variables() []int

	// Register installs this constraint as a watcher on every variable it
	// depends on.
	Register(bm *BoundManager)

	// NumAux reports how many auxiliary variables this constraint needs
	// wired into the tableau to encode its phase equalities, 0 if its
	// phases are already fully pinned by ordinary bound tightenings (e.g.
	// Sign, Disjunction).
	NumAux() int

	// BindAux assigns this constraint's auxiliary variable indices,
	// contiguous starting at first. Called once by NewEngine before
	// AuxEquations or Register.
	BindAux(first int)

	// AuxEquations returns the equation rows NewEngine must install for
	// this constraint's bound auxiliary variables. Valid only after
	// BindAux.
	AuxEquations() []AuxEquation

	// Satisfied reports whether the current tableau assignment satisfies
	// this constraint in its current (possibly still-unfixed) state: true
	// iff the assignment is consistent with at least one remaining
	// possible phase.
	Satisfied(t *Tableau) bool

	// PhaseFixed reports whether this constraint is narrowed to exactly one
	// phase, by bound reasoning or by Fix, and if so, which.
	PhaseFixed() (Phase, bool)

	// PossibleFixes returns every phase still consistent with the current
	// bounds (before a case split is forced). An empty result means the
	// constraint is unsatisfiable given current bounds.
	PossibleFixes() []Phase

	// EntailedTightenings returns bound tightenings implied by fixing
	// this constraint to its current phase (if fixed) or, for constraints
	// that entail bounds regardless of phase (e.g. ReLU's f >= 0), those
	// unconditional tightenings. Called once per simplex round by the
	// constraint tightener.
	EntailedTightenings() []Tightening

	// CaseSplits returns the Split values the search driver should branch
	// over when this constraint is chosen for case-splitting.
	CaseSplits() []Split

	// Fix permanently narrows this constraint to the given phase for the
	// remainder of the current context level, registering an undo action
	// via ctx so popping the level reverts it.
	Fix(ctx *Context, phase Phase) error

	// CostComponent returns this constraint's contribution to the
	// Sum-of-Infeasibilities objective at the current assignment: 0 if
	// some possible phase is satisfied exactly, otherwise the distance to
	// the nearest feasible phase.
	CostComponent(t *Tableau) float64

	// CostGradient returns the subgradient of CostComponent with respect
	// to every variable this constraint reads, at the current tableau
	// assignment, for variables whose instantaneous movement changes the
	// cost. Used to drive a cost-reducing simplex pivot during
	// Sum-of-Infeasibilities local search.
	CostGradient(t *Tableau) map[int]float64

	// String renders a human-readable description, used in logging and
	// conflict-clause explanations.
	String() string

	// Clone returns a deep copy sharing no mutable state with the
	// original. The search driver and SoI manager do not call it.
	Clone() PiecewiseConstraint
}

// watcherAdapter lets a piecewise constraint implement BoundManager's
// Watcher interface by delegating to closures, so each concrete constraint
// type doesn't need to hand-write OnLowerBound/OnUpperBound boilerplate
// that just re-checks its own feasibility.
type watcherAdapter struct {
	onLower func(v int, newVal float64) error
	onUpper func(v int, newVal float64) error
}

func (w *watcherAdapter) OnLowerBound(v int, newVal float64) error {
	if w.onLower == nil {
		return nil
	}
	return w.onLower(v, newVal)
}

func (w *watcherAdapter) OnUpperBound(v int, newVal float64) error {
	if w.onUpper == nil {
		return nil
	}
	return w.onUpper(v, newVal)
}
