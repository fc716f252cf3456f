package engine

import "fmt"

// MaxConstraint enforces f = max(args[0], ..., args[k-1]). Phase i (0 <= i
// < len(args)) means argument i is the maximum: f = args[i] and args[i] >=
// args[j] for every other j.
type MaxConstraint struct {
	id   int
	args []int
	f    int
	aux  []int

	bm    *BoundManager
	phase Phase // PhaseUnfixed, or Phase(i) for argument i
}

// NewMaxConstraint constructs a max constraint over the given argument
// variables and output variable f.
func NewMaxConstraint(args []int, f int) *MaxConstraint {
	cp := make([]int, len(args))
	copy(cp, args)
	return &MaxConstraint{id: newConstraintID(), args: cp, f: f, phase: PhaseUnfixed}
}

func (c *MaxConstraint) ID() int { return c.id }

func (c *MaxConstraint) NumAux() int { return len(c.args) }

func (c *MaxConstraint) BindAux(first int) {
	c.aux = make([]int, len(c.args))
	for i := range c.args {
		c.aux[i] = first + i
	}
}

// AuxEquations ties aux[i] = f - args[i] for every argument i. Since
// f = max(args), every aux[i] is structurally non-negative regardless of
// which argument eventually wins, so fixing phase i only has to collapse
// aux[i]'s upper bound to 0 to pin f = args[i] exactly.
func (c *MaxConstraint) AuxEquations() []AuxEquation {
	out := make([]AuxEquation, len(c.args))
	for i, a := range c.args {
		out[i] = AuxEquation{AuxVar: c.aux[i], Vars: []int{c.f, a}, Coeffs: []float64{1, -1}}
	}
	return out
}

func (c *MaxConstraint) Variables() []int {
	out := make([]int, 0, len(c.args)+1)
	out = append(out, c.args...)
	out = append(out, c.f)
	return out
}

func (c *MaxConstraint) Register(bm *BoundManager) {
	c.bm = bm
	for _, a := range c.args {
		bm.Watch(a, &watcherAdapter{
			onLower: func(v int, val float64) error { return c.onBoundChange() },
			onUpper: func(v int, val float64) error { return c.onBoundChange() },
		})
	}
	c.onBoundChange()
}

// onBoundChange eliminates argument i from PossibleFixes once some other
// argument j's lower bound exceeds i's upper bound (i can never be the
// max), and fixes the phase once only one argument survives elimination.
func (c *MaxConstraint) onBoundChange() error {
	if c.phase != PhaseUnfixed {
		return nil
	}
	possible := c.possibleIndices()
	if len(possible) == 1 {
		c.phase = Phase(possible[0])
	}
	return nil
}

func (c *MaxConstraint) possibleIndices() []int {
	var out []int
	for i, ai := range c.args {
		eliminated := false
		for j, aj := range c.args {
			if i == j {
				continue
			}
			if c.bm.Lb(aj) > c.bm.Ub(ai) {
				eliminated = true
				break
			}
		}
		if !eliminated {
			out = append(out, i)
		}
	}
	return out
}

func (c *MaxConstraint) PhaseFixed() (Phase, bool) {
	if c.phase == PhaseUnfixed {
		return PhaseUnfixed, false
	}
	return c.phase, true
}

func (c *MaxConstraint) PossibleFixes() []Phase {
	if c.phase != PhaseUnfixed {
		return []Phase{c.phase}
	}
	var out []Phase
	for _, i := range c.possibleIndices() {
		out = append(out, Phase(i))
	}
	return out
}

func (c *MaxConstraint) CaseSplits() []Split {
	var out []Split
	for _, p := range c.PossibleFixes() {
		out = append(out, Split{ConstraintID: c.id, Phase: p})
	}
	return out
}

func (c *MaxConstraint) Satisfied(t *Tableau) bool {
	fv := t.Assignment(c.f)
	best := NegInf
	for _, a := range c.args {
		av := t.Assignment(a)
		if av > best {
			best = av
		}
	}
	return eq(fv, best, 1e-7)
}

func (c *MaxConstraint) EntailedTightenings() []Tightening {
	var out []Tightening
	for _, a := range c.args {
		out = append(out, Tightening{Variable: c.f, Value: c.bm.Lb(a), Kind: LowerBound})
	}
	if c.phase != PhaseUnfixed {
		winnerIdx := int(c.phase)
		winner := c.args[winnerIdx]
		for j, a := range c.args {
			if j == winnerIdx {
				continue
			}
			out = append(out, Tightening{Variable: winner, Value: c.bm.Lb(a), Kind: LowerBound})
		}
		out = append(out, Tightening{Variable: c.aux[winnerIdx], Value: 0, Kind: UpperBound})
	}
	return out
}

func (c *MaxConstraint) Fix(ctx *Context, phase Phase) error {
	old := c.phase
	c.phase = phase
	ctx.Record(func() { c.phase = old })
	return nil
}

func (c *MaxConstraint) CostComponent(t *Tableau) float64 {
	fv := t.Assignment(c.f)
	best := NegInf
	for _, a := range c.args {
		av := t.Assignment(a)
		if av > best {
			best = av
		}
	}
	diff := fv - best
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// CostGradient returns d|f - max(args)|/d(f, argmax) at the current
// assignment: only f and the currently-winning argument have a nonzero
// subgradient.
func (c *MaxConstraint) CostGradient(t *Tableau) map[int]float64 {
	fv := t.Assignment(c.f)
	best := NegInf
	bestIdx := -1
	for i, a := range c.args {
		av := t.Assignment(a)
		if av > best {
			best = av
			bestIdx = i
		}
	}
	diff := fv - best
	sign := 0.0
	if diff > 0 {
		sign = 1
	} else if diff < 0 {
		sign = -1
	}
	grad := map[int]float64{c.f: sign}
	if bestIdx >= 0 {
		grad[c.args[bestIdx]] = -sign
	}
	return grad
}

func (c *MaxConstraint) String() string {
	return fmt.Sprintf("Max(args=%v, f=x%d, phase=%v)", c.args, c.f, c.phase)
}

func (c *MaxConstraint) Clone() PiecewiseConstraint {
	clone := *c
	clone.args = make([]int, len(c.args))
	copy(clone.args, c.args)
	if c.aux != nil {
		clone.aux = make([]int, len(c.aux))
		copy(clone.aux, c.aux)
	}
	return &clone
}
