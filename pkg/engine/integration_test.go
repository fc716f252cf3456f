package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLPFeasiblePure is seed scenario 1: pure linear feasibility with no
// piecewise constraints at all.
func TestLPFeasiblePure(t *testing.T) {
	p := &Problem{
		NumVars: 4,
		Variables: []Variable{
			{Index: 0, Lower: 0, Upper: 2},
			{Index: 1, Lower: -3, Upper: 3},
			{Index: 2, Lower: 4, Upper: 6},
			{Index: 3, Lower: 0, Upper: PosInf},
		},
		Equations: []Equation{
			{Vars: []int{0, 1, 2, 3}, Coeffs: []float64{1, 2, -1, 1}, RHS: 11},
		},
	}

	e, err := NewEngine(p, nil)
	require.NoError(t, err)
	res, err := e.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, SAT, res.Status)

	x0, x1, x2, x3 := res.Assignment[0], res.Assignment[1], res.Assignment[2], res.Assignment[3]
	require.InDelta(t, 11, x0+2*x1-x2+x3, 1e-6)
	require.GreaterOrEqual(t, x0, 0.0)
	require.LessOrEqual(t, x0, 2.0)
	require.GreaterOrEqual(t, x1, -3.0)
	require.LessOrEqual(t, x1, 3.0)
	require.GreaterOrEqual(t, x2, 4.0)
	require.LessOrEqual(t, x2, 6.0)
	require.GreaterOrEqual(t, x3, 0.0)
}

// TestLPInfeasiblePure is seed scenario 2: pure linear infeasibility.
func TestLPInfeasiblePure(t *testing.T) {
	p := &Problem{
		NumVars: 7,
		Variables: []Variable{
			{Index: 0, Lower: 0, Upper: 1},
			{Index: 1, Lower: 0, Upper: 1},
			{Index: 2, Lower: -1, Upper: 0},
			{Index: 3, Lower: 0.5, Upper: 1},
			{Index: 4, Lower: 0, Upper: 0},
			{Index: 5, Lower: 0, Upper: 0},
			{Index: 6, Lower: 0, Upper: 0},
		},
		Equations: []Equation{
			{Vars: []int{0, 1, 4}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{0, 2, 5}, Coeffs: []float64{1, 1, 1}, RHS: 0},
			{Vars: []int{1, 2, 3, 6}, Coeffs: []float64{-1, -1, 1, 1}, RHS: 0},
		},
	}

	e, err := NewEngine(p, nil)
	require.NoError(t, err)
	res, err := e.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, UNSAT, res.Status)
}

// TestReLUFeasible is seed scenario 3: a two-ReLU chain forced by a sign
// flip, x0 = x1b = -x2b, f1 = ReLU(x1b), f2 = ReLU(x2b), f1+f2 = x3.
func TestReLUFeasible(t *testing.T) {
	const (
		x0 = iota
		x3
		x1b
		x2b
		f1
		f2
	)
	p := &Problem{
		NumVars: 6,
		Variables: []Variable{
			{Index: x0, Lower: 0, Upper: 1},
			{Index: x3, Lower: 0.5, Upper: 1},
			{Index: x1b, Lower: NegInf, Upper: PosInf},
			{Index: x2b, Lower: NegInf, Upper: PosInf},
			{Index: f1, Lower: NegInf, Upper: PosInf},
			{Index: f2, Lower: NegInf, Upper: PosInf},
		},
		Equations: []Equation{
			{Vars: []int{x0, x1b}, Coeffs: []float64{1, -1}, RHS: 0},
			{Vars: []int{x0, x2b}, Coeffs: []float64{1, 1}, RHS: 0},
			{Vars: []int{f1, f2, x3}, Coeffs: []float64{1, 1, -1}, RHS: 0},
		},
		Piecewise: []PiecewiseConstraint{
			NewReLUConstraint(x1b, f1),
			NewReLUConstraint(x2b, f2),
		},
	}

	e, err := NewEngine(p, nil)
	require.NoError(t, err)
	res, err := e.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, SAT, res.Status)

	require.InDelta(t, res.Assignment[x0], res.Assignment[f1], 1e-6)
	require.InDelta(t, 0, res.Assignment[f2], 1e-6)
	require.InDelta(t, res.Assignment[x0], res.Assignment[x3], 1e-6)
	require.GreaterOrEqual(t, res.Assignment[x3], 0.5)
}

// TestMaxFeasible is seed scenario 4: a triangle-inequality-flavored
// encoding through a Max constraint and two ReLUs, constrained to t=0.
func TestMaxFeasible(t *testing.T) {
	const (
		a = iota
		b
		c
		amb
		bma
		d
		dc
		cab
		r1
		r2
		t
	)
	p := &Problem{
		NumVars: 11,
		Variables: []Variable{
			{Index: a, Lower: 0.001, Upper: 1},
			{Index: b, Lower: 0.001, Upper: 1},
			{Index: c, Lower: 0.001, Upper: 1},
			{Index: amb, Lower: NegInf, Upper: PosInf},
			{Index: bma, Lower: NegInf, Upper: PosInf},
			{Index: d, Lower: NegInf, Upper: PosInf},
			{Index: dc, Lower: NegInf, Upper: PosInf},
			{Index: cab, Lower: NegInf, Upper: PosInf},
			{Index: r1, Lower: NegInf, Upper: PosInf},
			{Index: r2, Lower: NegInf, Upper: PosInf},
			{Index: t, Lower: 0, Upper: 0},
		},
		Equations: []Equation{
			{Vars: []int{amb, a, b}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{bma, b, a}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{dc, d, c}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{cab, c, a, b}, Coeffs: []float64{1, -1, 1, 1}, RHS: 0},
			{Vars: []int{t, r1, r2}, Coeffs: []float64{1, -1, -1}, RHS: 0},
		},
		Piecewise: []PiecewiseConstraint{
			NewMaxConstraint([]int{amb, bma}, d),
			NewReLUConstraint(dc, r1),
			NewReLUConstraint(cab, r2),
		},
	}

	e, err := NewEngine(p, nil)
	require.NoError(t, err)
	res, err := e.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, SAT, res.Status)

	av, bv, cv := res.Assignment[a], res.Assignment[b], res.Assignment[c]
	mx := av
	if bv > mx {
		mx = bv
	}
	if cv > mx {
		mx = cv
	}
	require.Less(t, 2*mx, av+bv+cv+1e-9)
}

// TestMaxInfeasible is seed scenario 5: two Max constraints whose ranges
// cannot be made equal.
func TestMaxInfeasible(t *testing.T) {
	const (
		x0 = iota
		x1
		x2
		x3
		m1
		m2
	)
	p := &Problem{
		NumVars: 6,
		Variables: []Variable{
			{Index: x0, Lower: 0, Upper: 1},
			{Index: x1, Lower: 0, Upper: 1},
			{Index: x2, Lower: 2, Upper: 3},
			{Index: x3, Lower: 2, Upper: 3},
			{Index: m1, Lower: NegInf, Upper: PosInf},
			{Index: m2, Lower: NegInf, Upper: PosInf},
		},
		Equations: []Equation{
			{Vars: []int{m1, m2}, Coeffs: []float64{1, -1}, RHS: 0},
		},
		Piecewise: []PiecewiseConstraint{
			NewMaxConstraint([]int{x0, x1}, m1),
			NewMaxConstraint([]int{x2, x3}, m2),
		},
	}

	e, err := NewEngine(p, nil)
	require.NoError(t, err)
	res, err := e.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, UNSAT, res.Status)
}

// TestRestartSmoke is seed scenario 6: a chain of ambiguous Abs
// constraints, run with a tiny RestartSequence base. The property under
// test is that the search reaches a verdict rather than looping forever.
// Every phase choice in this chain is satisfiable, so no combination of
// phases is in conflict; the test does not check that a restart occurs.
func TestRestartSmoke(t *testing.T) {
	const n = 14
	numVars := 2 * n
	vars := make([]Variable, 0, numVars)
	var eqs []Equation
	var pw []PiecewiseConstraint
	for i := 0; i < n; i++ {
		bIdx, fIdx := 2*i, 2*i+1
		vars = append(vars,
			Variable{Index: bIdx, Lower: -1, Upper: 1},
			Variable{Index: fIdx, Lower: NegInf, Upper: PosInf},
		)
		pw = append(pw, NewAbsConstraint(bIdx, fIdx))
		if i > 0 {
			prevF := 2*(i-1) + 1
			eqs = append(eqs, Equation{Vars: []int{fIdx, prevF}, Coeffs: []float64{1, -1}, RHS: 0})
		}
	}

	cfg := DefaultConfig()
	cfg.RestartSequence = 4
	cfg.BranchingHeuristic = Polarity

	p := &Problem{NumVars: numVars, Variables: vars, Equations: eqs, Piecewise: pw}

	e, err := NewEngine(p, cfg)
	require.NoError(t, err)
	res, err := e.Solve(context.Background())
	require.NoError(t, err)
	require.Contains(t, []Status{SAT, UNSAT}, res.Status)
	require.GreaterOrEqual(t, res.Stats.Restarts, 0)
}
