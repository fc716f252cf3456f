package engine

import "fmt"

// LeakyReLU phases: Active means b >= 0 and f = b; Inactive means b <= 0 and
// f = alpha*b, for a fixed slope 0 <= alpha < 1.
const (
	LeakyReLUActive Phase = iota
	LeakyReLUInactive
)

// LeakyReLUConstraint enforces f = b if b >= 0, else f = alpha*b.
type LeakyReLUConstraint struct {
	id         int
	b, f       int
	alpha      float64
	aux1, aux2 int

	bm    *BoundManager
	phase Phase
}

// NewLeakyReLUConstraint constructs a leaky-ReLU constraint with the given
// negative-side slope.
func NewLeakyReLUConstraint(b, f int, alpha float64) *LeakyReLUConstraint {
	return &LeakyReLUConstraint{id: newConstraintID(), b: b, f: f, alpha: alpha, phase: PhaseUnfixed}
}

func (c *LeakyReLUConstraint) ID() int          { return c.id }
func (c *LeakyReLUConstraint) Variables() []int { return []int{c.b, c.f} }

func (c *LeakyReLUConstraint) NumAux() int { return 2 }
func (c *LeakyReLUConstraint) BindAux(first int) {
	c.aux1, c.aux2 = first, first+1
}

// AuxEquations ties aux1 = f - b (collapsed to pin f = b on the active
// phase) and aux2 = f - alpha*b (collapsed to pin f = alpha*b on the
// inactive phase). Both are structurally non-negative: aux1 = (alpha-1)*b
// >= 0 when b <= 0 since alpha < 1, and aux2 = (1-alpha)*b >= 0 when b >=
// 0.
func (c *LeakyReLUConstraint) AuxEquations() []AuxEquation {
	return []AuxEquation{
		{AuxVar: c.aux1, Vars: []int{c.f, c.b}, Coeffs: []float64{1, -1}},
		{AuxVar: c.aux2, Vars: []int{c.f, c.b}, Coeffs: []float64{1, -c.alpha}},
	}
}

func (c *LeakyReLUConstraint) Register(bm *BoundManager) {
	c.bm = bm
	bm.Watch(c.b, &watcherAdapter{
		onLower: func(v int, val float64) error { return c.onBoundChange() },
		onUpper: func(v int, val float64) error { return c.onBoundChange() },
	})
}

func (c *LeakyReLUConstraint) onBoundChange() error {
	if c.phase != PhaseUnfixed {
		return nil
	}
	if c.bm.Ub(c.b) <= 0 {
		c.phase = LeakyReLUInactive
	} else if c.bm.Lb(c.b) >= 0 {
		c.phase = LeakyReLUActive
	}
	return nil
}

func (c *LeakyReLUConstraint) PhaseFixed() (Phase, bool) {
	if c.phase == PhaseUnfixed {
		return PhaseUnfixed, false
	}
	return c.phase, true
}

func (c *LeakyReLUConstraint) PossibleFixes() []Phase {
	if c.phase != PhaseUnfixed {
		return []Phase{c.phase}
	}
	var out []Phase
	if c.bm.Ub(c.b) >= 0 {
		out = append(out, LeakyReLUActive)
	}
	if c.bm.Lb(c.b) <= 0 {
		out = append(out, LeakyReLUInactive)
	}
	return out
}

func (c *LeakyReLUConstraint) CaseSplits() []Split {
	var out []Split
	for _, p := range c.PossibleFixes() {
		out = append(out, Split{ConstraintID: c.id, Phase: p})
	}
	return out
}

func (c *LeakyReLUConstraint) expected(bv float64) float64 {
	if bv >= 0 {
		return bv
	}
	return c.alpha * bv
}

func (c *LeakyReLUConstraint) Satisfied(t *Tableau) bool {
	return eq(t.Assignment(c.f), c.expected(t.Assignment(c.b)), 1e-7)
}

func (c *LeakyReLUConstraint) EntailedTightenings() []Tightening {
	var out []Tightening
	switch c.phase {
	case LeakyReLUActive:
		out = append(out, Tightening{Variable: c.b, Value: 0, Kind: LowerBound})
		out = append(out, Tightening{Variable: c.aux1, Value: 0, Kind: UpperBound})
	case LeakyReLUInactive:
		out = append(out, Tightening{Variable: c.b, Value: 0, Kind: UpperBound})
		out = append(out, Tightening{Variable: c.aux2, Value: 0, Kind: UpperBound})
	}
	return out
}

func (c *LeakyReLUConstraint) Fix(ctx *Context, phase Phase) error {
	old := c.phase
	c.phase = phase
	ctx.Record(func() { c.phase = old })
	return nil
}

func (c *LeakyReLUConstraint) CostComponent(t *Tableau) float64 {
	diff := t.Assignment(c.f) - c.expected(t.Assignment(c.b))
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// CostGradient returns d|f - expected(b)|/d(f,b) at the current assignment.
func (c *LeakyReLUConstraint) CostGradient(t *Tableau) map[int]float64 {
	bv, fv := t.Assignment(c.b), t.Assignment(c.f)
	diff := fv - c.expected(bv)
	sign := 0.0
	if diff > 0 {
		sign = 1
	} else if diff < 0 {
		sign = -1
	}
	dWantDb := c.alpha
	if bv >= 0 {
		dWantDb = 1
	}
	return map[int]float64{c.f: sign, c.b: -sign * dWantDb}
}

func (c *LeakyReLUConstraint) String() string {
	return fmt.Sprintf("LeakyReLU(b=x%d, f=x%d, alpha=%g, phase=%v)", c.b, c.f, c.alpha, c.phase)
}

func (c *LeakyReLUConstraint) Clone() PiecewiseConstraint {
	clone := *c
	return &clone
}
