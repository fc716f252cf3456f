package engine

import "fmt"

// DisjunctionCase is one disjunct of a DisjunctionConstraint: a conjunction
// of bound tightenings that becomes entailed once this case is chosen. It
// generalizes the case analysis every other piecewise constraint in this
// package performs by hand (ReLU's two phases, Max's k phases) into a
// single reusable shape, used directly by encodings that reduce to "one of
// these boxes must hold" (spec §3's Disjunction constraint).
type DisjunctionCase struct {
	Tightenings []Tightening
}

// DisjunctionConstraint enforces that at least one of its cases' bound
// tightenings holds under the current assignment.
type DisjunctionConstraint struct {
	id    int
	vars  []int
	cases []DisjunctionCase

	bm    *BoundManager
	phase Phase
}

// NewDisjunctionConstraint constructs a disjunction over the given cases,
// referencing the given variables (the union of every variable appearing
// in any case's tightenings).
func NewDisjunctionConstraint(vars []int, cases []DisjunctionCase) *DisjunctionConstraint {
	v := make([]int, len(vars))
	copy(v, vars)
	cs := make([]DisjunctionCase, len(cases))
	copy(cs, cases)
	return &DisjunctionConstraint{id: newConstraintID(), vars: v, cases: cs, phase: PhaseUnfixed}
}

func (c *DisjunctionConstraint) ID() int          { return c.id }
func (c *DisjunctionConstraint) Variables() []int { return c.vars }

// NumAux is 0: a case's tightenings already pin whatever equalities it
// needs directly (e.g. a lower and upper tightening on the same variable),
// so no extra equation row is needed.
func (c *DisjunctionConstraint) NumAux() int                 { return 0 }
func (c *DisjunctionConstraint) BindAux(int)                 {}
func (c *DisjunctionConstraint) AuxEquations() []AuxEquation { return nil }

func (c *DisjunctionConstraint) Register(bm *BoundManager) {
	c.bm = bm
	for _, v := range c.vars {
		bm.Watch(v, &watcherAdapter{
			onLower: func(v int, val float64) error { return c.onBoundChange() },
			onUpper: func(v int, val float64) error { return c.onBoundChange() },
		})
	}
}

func (c *DisjunctionConstraint) onBoundChange() error {
	if c.phase != PhaseUnfixed {
		return nil
	}
	possible := c.possibleIndices()
	if len(possible) == 1 {
		c.phase = Phase(possible[0])
	}
	return nil
}

// caseStillPossible reports whether every tightening in a case is still
// compatible with the current bounds (doesn't immediately cross the
// opposite existing bound).
func (c *DisjunctionConstraint) caseStillPossible(idx int) bool {
	for _, tg := range c.cases[idx].Tightenings {
		switch tg.Kind {
		case LowerBound:
			if tg.Value > c.bm.Ub(tg.Variable) {
				return false
			}
		case UpperBound:
			if tg.Value < c.bm.Lb(tg.Variable) {
				return false
			}
		}
	}
	return true
}

func (c *DisjunctionConstraint) possibleIndices() []int {
	var out []int
	for i := range c.cases {
		if c.caseStillPossible(i) {
			out = append(out, i)
		}
	}
	return out
}

func (c *DisjunctionConstraint) PhaseFixed() (Phase, bool) {
	if c.phase == PhaseUnfixed {
		return PhaseUnfixed, false
	}
	return c.phase, true
}

func (c *DisjunctionConstraint) PossibleFixes() []Phase {
	if c.phase != PhaseUnfixed {
		return []Phase{c.phase}
	}
	var out []Phase
	for _, i := range c.possibleIndices() {
		out = append(out, Phase(i))
	}
	return out
}

func (c *DisjunctionConstraint) CaseSplits() []Split {
	var out []Split
	for _, p := range c.PossibleFixes() {
		out = append(out, Split{ConstraintID: c.id, Phase: p})
	}
	return out
}

// caseViolation sums how far the assignment is from satisfying every
// tightening in a case (0 if the case is fully satisfied by the assignment).
func (c *DisjunctionConstraint) caseViolation(t *Tableau, idx int) float64 {
	sum := 0.0
	for _, tg := range c.cases[idx].Tightenings {
		val := t.Assignment(tg.Variable)
		switch tg.Kind {
		case LowerBound:
			if val < tg.Value {
				sum += tg.Value - val
			}
		case UpperBound:
			if val > tg.Value {
				sum += val - tg.Value
			}
		}
	}
	return sum
}

func (c *DisjunctionConstraint) Satisfied(t *Tableau) bool {
	tol := 1e-7
	for i := range c.cases {
		if c.caseViolation(t, i) <= tol {
			return true
		}
	}
	return false
}

func (c *DisjunctionConstraint) EntailedTightenings() []Tightening {
	if c.phase == PhaseUnfixed {
		return nil
	}
	return c.cases[int(c.phase)].Tightenings
}

func (c *DisjunctionConstraint) Fix(ctx *Context, phase Phase) error {
	old := c.phase
	c.phase = phase
	ctx.Record(func() { c.phase = old })
	return nil
}

func (c *DisjunctionConstraint) CostComponent(t *Tableau) float64 {
	best := PosInf
	for i := range c.cases {
		if v := c.caseViolation(t, i); v < best {
			best = v
		}
	}
	return best
}

// CostGradient returns the subgradient of the least-violated case's
// violation sum with respect to each variable it tightens.
func (c *DisjunctionConstraint) CostGradient(t *Tableau) map[int]float64 {
	bestIdx, bestVal := -1, PosInf
	for i := range c.cases {
		if v := c.caseViolation(t, i); v < bestVal {
			bestVal = v
			bestIdx = i
		}
	}
	grad := make(map[int]float64)
	if bestIdx < 0 {
		return grad
	}
	for _, tg := range c.cases[bestIdx].Tightenings {
		val := t.Assignment(tg.Variable)
		switch tg.Kind {
		case LowerBound:
			if val < tg.Value {
				grad[tg.Variable] += -1
			}
		case UpperBound:
			if val > tg.Value {
				grad[tg.Variable] += 1
			}
		}
	}
	return grad
}

func (c *DisjunctionConstraint) String() string {
	return fmt.Sprintf("Disjunction(vars=%v, cases=%d, phase=%v)", c.vars, len(c.cases), c.phase)
}

func (c *DisjunctionConstraint) Clone() PiecewiseConstraint {
	clone := *c
	clone.vars = make([]int, len(c.vars))
	copy(clone.vars, c.vars)
	clone.cases = make([]DisjunctionCase, len(c.cases))
	for i, cs := range c.cases {
		tgs := make([]Tightening, len(cs.Tightenings))
		copy(tgs, cs.Tightenings)
		clone.cases[i] = DisjunctionCase{Tightenings: tgs}
	}
	return &clone
}
