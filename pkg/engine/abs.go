package engine

import "fmt"

// Abs phases: Positive means b >= 0 and f = b; Negative means b <= 0 and
// f = -b.
const (
	AbsPositive Phase = iota
	AbsNegative
)

// AbsConstraint enforces f = |b|.
type AbsConstraint struct {
	id         int
	b, f       int
	aux1, aux2 int

	bm    *BoundManager
	phase Phase
}

// NewAbsConstraint constructs an absolute-value constraint linking input b
// to output f.
func NewAbsConstraint(b, f int) *AbsConstraint {
	return &AbsConstraint{id: newConstraintID(), b: b, f: f, phase: PhaseUnfixed}
}

func (c *AbsConstraint) ID() int          { return c.id }
func (c *AbsConstraint) Variables() []int { return []int{c.b, c.f} }

func (c *AbsConstraint) NumAux() int { return 2 }
func (c *AbsConstraint) BindAux(first int) {
	c.aux1, c.aux2 = first, first+1
}

// AuxEquations ties aux1 = f - b (collapsed to pin f = b on the positive
// phase) and aux2 = f + b (collapsed to pin f = -b on the negative
// phase). Both are structurally non-negative since f = |b| >= b and
// f = |b| >= -b always.
func (c *AbsConstraint) AuxEquations() []AuxEquation {
	return []AuxEquation{
		{AuxVar: c.aux1, Vars: []int{c.f, c.b}, Coeffs: []float64{1, -1}},
		{AuxVar: c.aux2, Vars: []int{c.f, c.b}, Coeffs: []float64{1, 1}},
	}
}

func (c *AbsConstraint) Register(bm *BoundManager) {
	c.bm = bm
	bm.Watch(c.b, &watcherAdapter{
		onLower: func(v int, val float64) error { return c.onBoundChange() },
		onUpper: func(v int, val float64) error { return c.onBoundChange() },
	})
	bm.Watch(c.f, &watcherAdapter{
		onLower: func(v int, val float64) error { return c.onBoundChange() },
	})
}

func (c *AbsConstraint) onBoundChange() error {
	if c.phase != PhaseUnfixed {
		return nil
	}
	if c.bm.Ub(c.b) <= 0 {
		c.phase = AbsNegative
	} else if c.bm.Lb(c.b) >= 0 {
		c.phase = AbsPositive
	}
	return nil
}

func (c *AbsConstraint) PhaseFixed() (Phase, bool) {
	if c.phase == PhaseUnfixed {
		return PhaseUnfixed, false
	}
	return c.phase, true
}

func (c *AbsConstraint) PossibleFixes() []Phase {
	if c.phase != PhaseUnfixed {
		return []Phase{c.phase}
	}
	var out []Phase
	if c.bm.Ub(c.b) >= 0 {
		out = append(out, AbsPositive)
	}
	if c.bm.Lb(c.b) <= 0 {
		out = append(out, AbsNegative)
	}
	return out
}

func (c *AbsConstraint) CaseSplits() []Split {
	var out []Split
	for _, p := range c.PossibleFixes() {
		out = append(out, Split{ConstraintID: c.id, Phase: p})
	}
	return out
}

func (c *AbsConstraint) Satisfied(t *Tableau) bool {
	bv, fv := t.Assignment(c.b), t.Assignment(c.f)
	abs := bv
	if abs < 0 {
		abs = -abs
	}
	return eq(fv, abs, 1e-7)
}

func (c *AbsConstraint) EntailedTightenings() []Tightening {
	out := []Tightening{{Variable: c.f, Value: 0, Kind: LowerBound}}
	switch c.phase {
	case AbsPositive:
		out = append(out, Tightening{Variable: c.b, Value: 0, Kind: LowerBound})
		out = append(out, Tightening{Variable: c.aux1, Value: 0, Kind: UpperBound})
	case AbsNegative:
		out = append(out, Tightening{Variable: c.b, Value: 0, Kind: UpperBound})
		out = append(out, Tightening{Variable: c.aux2, Value: 0, Kind: UpperBound})
	}
	return out
}

func (c *AbsConstraint) Fix(ctx *Context, phase Phase) error {
	old := c.phase
	c.phase = phase
	ctx.Record(func() { c.phase = old })
	return nil
}

func (c *AbsConstraint) CostComponent(t *Tableau) float64 {
	bv, fv := t.Assignment(c.b), t.Assignment(c.f)
	abs := bv
	if abs < 0 {
		abs = -abs
	}
	diff := fv - abs
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// CostGradient returns d|f - |b||/d(f,b) at the current assignment.
func (c *AbsConstraint) CostGradient(t *Tableau) map[int]float64 {
	bv, fv := t.Assignment(c.b), t.Assignment(c.f)
	abs := bv
	if abs < 0 {
		abs = -abs
	}
	diff := fv - abs
	sign := 0.0
	if diff > 0 {
		sign = 1
	} else if diff < 0 {
		sign = -1
	}
	dAbsDb := 0.0
	if bv > 0 {
		dAbsDb = 1
	} else if bv < 0 {
		dAbsDb = -1
	}
	return map[int]float64{c.f: sign, c.b: -sign * dAbsDb}
}

func (c *AbsConstraint) String() string {
	return fmt.Sprintf("Abs(b=x%d, f=x%d, phase=%v)", c.b, c.f, c.phase)
}

func (c *AbsConstraint) Clone() PiecewiseConstraint {
	clone := *c
	return &clone
}
