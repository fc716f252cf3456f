package engine

import "fmt"

// Sign phases: Positive means b >= 0 and f = 1; Negative means b <= 0 and
// f = -1. Unlike ReLU/Abs, the two phases overlap only at b = 0, where both
// f = 1 and f = -1 would be accepted by convention f(0) = 1; this
// constraint follows the spec's convention of resolving the boundary to
// the positive phase.
const (
	SignPositive Phase = iota
	SignNegative
)

// SignConstraint enforces f = sign(b), with sign(0) = 1.
type SignConstraint struct {
	id   int
	b, f int

	bm    *BoundManager
	phase Phase
}

// NewSignConstraint constructs a sign constraint linking input b to
// output f.
func NewSignConstraint(b, f int) *SignConstraint {
	return &SignConstraint{id: newConstraintID(), b: b, f: f, phase: PhaseUnfixed}
}

func (c *SignConstraint) ID() int          { return c.id }
func (c *SignConstraint) Variables() []int { return []int{c.b, c.f} }

// NumAux is 0: f is pinned to a constant (1 or -1) directly by
// EntailedTightenings once phase-fixed, so no equation row is needed to
// tie it to b.
func (c *SignConstraint) NumAux() int                 { return 0 }
func (c *SignConstraint) BindAux(int)                 {}
func (c *SignConstraint) AuxEquations() []AuxEquation { return nil }

func (c *SignConstraint) Register(bm *BoundManager) {
	c.bm = bm
	bm.Watch(c.b, &watcherAdapter{
		onLower: func(v int, val float64) error { return c.onBoundChange() },
		onUpper: func(v int, val float64) error { return c.onBoundChange() },
	})
}

func (c *SignConstraint) onBoundChange() error {
	if c.phase != PhaseUnfixed {
		return nil
	}
	if c.bm.Ub(c.b) < 0 {
		c.phase = SignNegative
	} else if c.bm.Lb(c.b) >= 0 {
		c.phase = SignPositive
	}
	return nil
}

func (c *SignConstraint) PhaseFixed() (Phase, bool) {
	if c.phase == PhaseUnfixed {
		return PhaseUnfixed, false
	}
	return c.phase, true
}

func (c *SignConstraint) PossibleFixes() []Phase {
	if c.phase != PhaseUnfixed {
		return []Phase{c.phase}
	}
	var out []Phase
	if c.bm.Ub(c.b) >= 0 {
		out = append(out, SignPositive)
	}
	if c.bm.Lb(c.b) < 0 {
		out = append(out, SignNegative)
	}
	return out
}

func (c *SignConstraint) CaseSplits() []Split {
	var out []Split
	for _, p := range c.PossibleFixes() {
		out = append(out, Split{ConstraintID: c.id, Phase: p})
	}
	return out
}

func (c *SignConstraint) expected(bv float64) float64 {
	if bv >= 0 {
		return 1
	}
	return -1
}

func (c *SignConstraint) Satisfied(t *Tableau) bool {
	return eq(t.Assignment(c.f), c.expected(t.Assignment(c.b)), 1e-7)
}

func (c *SignConstraint) EntailedTightenings() []Tightening {
	switch c.phase {
	case SignPositive:
		return []Tightening{
			{Variable: c.b, Value: 0, Kind: LowerBound},
			{Variable: c.f, Value: 1, Kind: LowerBound},
			{Variable: c.f, Value: 1, Kind: UpperBound},
		}
	case SignNegative:
		return []Tightening{
			{Variable: c.b, Value: 0, Kind: UpperBound},
			{Variable: c.f, Value: -1, Kind: LowerBound},
			{Variable: c.f, Value: -1, Kind: UpperBound},
		}
	}
	return nil
}

func (c *SignConstraint) Fix(ctx *Context, phase Phase) error {
	old := c.phase
	c.phase = phase
	ctx.Record(func() { c.phase = old })
	return nil
}

func (c *SignConstraint) CostComponent(t *Tableau) float64 {
	diff := t.Assignment(c.f) - c.expected(t.Assignment(c.b))
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// CostGradient returns d|f - expected(b)|/df; b's contribution is 0 almost
// everywhere since expected is a step function.
func (c *SignConstraint) CostGradient(t *Tableau) map[int]float64 {
	diff := t.Assignment(c.f) - c.expected(t.Assignment(c.b))
	sign := 0.0
	if diff > 0 {
		sign = 1
	} else if diff < 0 {
		sign = -1
	}
	return map[int]float64{c.f: sign}
}

func (c *SignConstraint) String() string {
	return fmt.Sprintf("Sign(b=x%d, f=x%d, phase=%v)", c.b, c.f, c.phase)
}

func (c *SignConstraint) Clone() PiecewiseConstraint {
	clone := *c
	return &clone
}
