package engine

import "fmt"

// ReLU phases: Active means b >= 0 and f = b; Inactive means b <= 0 and
// f = 0.
const (
	ReLUActive Phase = iota
	ReLUInactive
)

// ReLUConstraint enforces f = max(0, b) over an input variable b and an
// output variable f, following the per-constraint-type file convention of
// the teacher's fd_domains.go (one constraint kind per file, a constructor,
// and the shared accessor set).
type ReLUConstraint struct {
	id  int
	b   int
	f   int
	aux int

	bm    *BoundManager
	phase Phase
}

// NewReLUConstraint constructs a ReLU constraint linking input b to
// output f.
func NewReLUConstraint(b, f int) *ReLUConstraint {
	return &ReLUConstraint{id: newConstraintID(), b: b, f: f, phase: PhaseUnfixed}
}

func (c *ReLUConstraint) ID() int          { return c.id }
func (c *ReLUConstraint) Variables() []int { return []int{c.b, c.f} }

func (c *ReLUConstraint) NumAux() int       { return 1 }
func (c *ReLUConstraint) BindAux(first int) { c.aux = first }

// AuxEquations ties aux = f - b into the tableau at construction. aux is
// structurally non-negative regardless of phase (0 when active, -b >= 0
// when inactive), so Fix only needs to collapse aux's upper bound to 0 on
// the active phase to pin f = b exactly for a ranged b.
func (c *ReLUConstraint) AuxEquations() []AuxEquation {
	return []AuxEquation{{AuxVar: c.aux, Vars: []int{c.f, c.b}, Coeffs: []float64{1, -1}}}
}

func (c *ReLUConstraint) Register(bm *BoundManager) {
	c.bm = bm
	bm.Watch(c.b, &watcherAdapter{
		onLower: func(v int, val float64) error { return c.onBoundChange() },
		onUpper: func(v int, val float64) error { return c.onBoundChange() },
	})
	bm.Watch(c.f, &watcherAdapter{
		onLower: func(v int, val float64) error { return c.onBoundChange() },
		onUpper: func(v int, val float64) error { return c.onBoundChange() },
	})
	c.onBoundChange()
}

// onBoundChange re-derives phase fixing from current bounds: if ub(b) <= 0
// the constraint is forced inactive; if lb(b) >= 0 it is forced active.
// Watchers only observe, they never error here — ReLU's own bound crossing
// (if any) is reported through EntailedTightenings on the next propagation
// pass.
func (c *ReLUConstraint) onBoundChange() error {
	if c.phase != PhaseUnfixed {
		return nil
	}
	if c.bm.Ub(c.b) <= 0 {
		c.phase = ReLUInactive
	} else if c.bm.Lb(c.b) >= 0 {
		c.phase = ReLUActive
	}
	return nil
}

func (c *ReLUConstraint) PhaseFixed() (Phase, bool) {
	if c.phase == PhaseUnfixed {
		return PhaseUnfixed, false
	}
	return c.phase, true
}

func (c *ReLUConstraint) PossibleFixes() []Phase {
	if c.phase != PhaseUnfixed {
		return []Phase{c.phase}
	}
	var out []Phase
	if c.bm.Ub(c.b) >= 0 {
		out = append(out, ReLUActive)
	}
	if c.bm.Lb(c.b) <= 0 {
		out = append(out, ReLUInactive)
	}
	return out
}

func (c *ReLUConstraint) CaseSplits() []Split {
	var out []Split
	for _, p := range c.PossibleFixes() {
		out = append(out, Split{ConstraintID: c.id, Phase: p})
	}
	return out
}

func (c *ReLUConstraint) Satisfied(t *Tableau) bool {
	bv, fv := t.Assignment(c.b), t.Assignment(c.f)
	tol := 1e-7
	want := bv
	if bv < 0 {
		want = 0
	}
	return eq(fv, want, tol)
}

// EntailedTightenings returns the unconditional f >= 0 bound ReLU always
// implies, plus, once phase-fixed, the inactive phase's f <= 0 and b <= 0
// (combined with f >= 0 that pins f = 0) or the active phase's b >= 0 and
// aux <= 0 (which pins f = b through aux = f - b).
func (c *ReLUConstraint) EntailedTightenings() []Tightening {
	out := []Tightening{{Variable: c.f, Value: 0, Kind: LowerBound}}
	switch c.phase {
	case ReLUActive:
		out = append(out, Tightening{Variable: c.b, Value: 0, Kind: LowerBound})
		out = append(out, Tightening{Variable: c.aux, Value: 0, Kind: UpperBound})
	case ReLUInactive:
		out = append(out, Tightening{Variable: c.f, Value: 0, Kind: UpperBound})
		out = append(out, Tightening{Variable: c.b, Value: 0, Kind: UpperBound})
	}
	return out
}

func (c *ReLUConstraint) Fix(ctx *Context, phase Phase) error {
	old := c.phase
	c.phase = phase
	ctx.Record(func() { c.phase = old })
	return nil
}

// CostComponent returns the SoI contribution: 0 if f already equals
// max(0, b), otherwise |f - max(0,b)|.
func (c *ReLUConstraint) CostComponent(t *Tableau) float64 {
	bv, fv := t.Assignment(c.b), t.Assignment(c.f)
	want := bv
	if bv < 0 {
		want = 0
	}
	diff := fv - want
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// CostGradient returns d|f - max(0,b)|/d(f,b) at the current assignment.
func (c *ReLUConstraint) CostGradient(t *Tableau) map[int]float64 {
	bv, fv := t.Assignment(c.b), t.Assignment(c.f)
	want := bv
	if bv < 0 {
		want = 0
	}
	diff := fv - want
	sign := 0.0
	if diff > 0 {
		sign = 1
	} else if diff < 0 {
		sign = -1
	}
	dWantDb := 0.0
	if bv > 0 {
		dWantDb = 1
	}
	return map[int]float64{c.f: sign, c.b: -sign * dWantDb}
}

func (c *ReLUConstraint) String() string {
	return fmt.Sprintf("ReLU(b=x%d, f=x%d, phase=%v)", c.b, c.f, c.phase)
}

func (c *ReLUConstraint) Clone() PiecewiseConstraint {
	clone := *c
	return &clone
}
