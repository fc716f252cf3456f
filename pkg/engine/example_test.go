package engine

import (
	"context"
	"fmt"
)

// ExampleEngine_Solve_pureLP demonstrates solving a problem with no
// piecewise constraints at all: the engine reduces to a plain feasibility
// simplex run.
func ExampleEngine_Solve_pureLP() {
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
	if err != nil {
		panic(err)
	}
	res, err := e.Solve(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Status)
	// Output:
	// SAT
}

// ExampleEngine_Solve_reLUChain demonstrates a ReLU constraint pair forced
// into a unique phase by bounds: with x0 in [0,1], the positive branch of
// x1b = x0 and the negative branch of x2b = -x0 are each fixed before any
// decision is made.
func ExampleEngine_Solve_reLUChain() {
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
	if err != nil {
		panic(err)
	}
	res, err := e.Solve(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s f2=%.1f\n", res.Status, res.Assignment[f2])
	// Output:
	// SAT f2=0.0
}

// ExampleEngine_Solve_maxInfeasible demonstrates two Max constraints whose
// output ranges ([0,1] and [2,3]) cannot be reconciled by the equation
// m1 = m2 between them.
func ExampleEngine_Solve_maxInfeasible() {
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
	if err != nil {
		panic(err)
	}
	res, err := e.Solve(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Status)
	// Output:
	// UNSAT
}
