// Package main demonstrates basic pwlsat usage patterns.
package main

import (
	"context"
	"fmt"

	"github.com/pwlsat/pwlsat/pkg/engine"
)

func main() {
	fmt.Println("=== pwlsat Examples ===")
	fmt.Println()

	lpFeasible()
	lpInfeasible()
	reluFeasible()
	maxFeasible()
	maxInfeasible()
	restartSmoke()
}

func run(name string, p *engine.Problem, cfg *engine.Config) *engine.Result {
	e, err := engine.NewEngine(p, cfg)
	if err != nil {
		fmt.Printf("   %s: construction error: %v\n", name, err)
		return nil
	}
	res, err := e.Solve(context.Background())
	if err != nil {
		fmt.Printf("   %s: solve error: %v\n", name, err)
		return nil
	}
	return res
}

// lpFeasible demonstrates pure linear-arithmetic feasibility with no
// piecewise constraints at all: x0 + 2*x1 - x2 + x3 = 11 over bounded
// variables.
func lpFeasible() {
	fmt.Println("1. LP feasible, pure:")

	p := &engine.Problem{
		NumVars: 4,
		Variables: []engine.Variable{
			{Index: 0, Lower: 0, Upper: 2},
			{Index: 1, Lower: -3, Upper: 3},
			{Index: 2, Lower: 4, Upper: 6},
			{Index: 3, Lower: 0, Upper: engine.PosInf},
		},
		Equations: []engine.Equation{
			{Vars: []int{0, 1, 2, 3}, Coeffs: []float64{1, 2, -1, 1}, RHS: 11},
		},
	}

	res := run("LP feasible", p, nil)
	if res != nil {
		fmt.Printf("   status=%s assignment=%v\n", res.Status, res.Assignment)
	}
	fmt.Println()
}

// lpInfeasible demonstrates pure linear-arithmetic infeasibility: three
// equations over seven tightly bounded variables with no satisfying point.
func lpInfeasible() {
	fmt.Println("2. LP infeasible, pure:")

	p := &engine.Problem{
		NumVars: 7,
		Variables: []engine.Variable{
			{Index: 0, Lower: 0, Upper: 1},
			{Index: 1, Lower: 0, Upper: 1},
			{Index: 2, Lower: -1, Upper: 0},
			{Index: 3, Lower: 0.5, Upper: 1},
			{Index: 4, Lower: 0, Upper: 0},
			{Index: 5, Lower: 0, Upper: 0},
			{Index: 6, Lower: 0, Upper: 0},
		},
		Equations: []engine.Equation{
			{Vars: []int{0, 1, 4}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{0, 2, 5}, Coeffs: []float64{1, 1, 1}, RHS: 0},
			{Vars: []int{1, 2, 3, 6}, Coeffs: []float64{-1, -1, 1, 1}, RHS: 0},
		},
	}

	res := run("LP infeasible", p, nil)
	if res != nil {
		fmt.Printf("   status=%s\n", res.Status)
	}
	fmt.Println()
}

// reluFeasible demonstrates a ReLU chain: x0 = x1b = -x2b, f1 = ReLU(x1b),
// f2 = ReLU(x2b), f1+f2 = x3.
func reluFeasible() {
	fmt.Println("3. ReLU feasible:")

	const (
		x0 = iota
		x3
		x1b
		x2b
		f1
		f2
	)
	p := &engine.Problem{
		NumVars: 6,
		Variables: []engine.Variable{
			{Index: x0, Lower: 0, Upper: 1},
			{Index: x3, Lower: 0.5, Upper: 1},
			{Index: x1b, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: x2b, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: f1, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: f2, Lower: engine.NegInf, Upper: engine.PosInf},
		},
		Equations: []engine.Equation{
			{Vars: []int{x0, x1b}, Coeffs: []float64{1, -1}, RHS: 0},
			{Vars: []int{x0, x2b}, Coeffs: []float64{1, 1}, RHS: 0},
			{Vars: []int{f1, f2, x3}, Coeffs: []float64{1, 1, -1}, RHS: 0},
		},
		Piecewise: []engine.PiecewiseConstraint{
			engine.NewReLUConstraint(x1b, f1),
			engine.NewReLUConstraint(x2b, f2),
		},
	}

	res := run("ReLU feasible", p, nil)
	if res != nil {
		fmt.Printf("   status=%s assignment=%v\n", res.Status, res.Assignment)
	}
	fmt.Println()
}

// maxFeasible demonstrates a triangle-inequality-flavored encoding:
// d = |a-b| via max(a-b, b-a), t = ReLU(d-c) + ReLU(c-a-b), t = 0.
func maxFeasible() {
	fmt.Println("4. Max feasible:")

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
	p := &engine.Problem{
		NumVars: 11,
		Variables: []engine.Variable{
			{Index: a, Lower: 0.001, Upper: 1},
			{Index: b, Lower: 0.001, Upper: 1},
			{Index: c, Lower: 0.001, Upper: 1},
			{Index: amb, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: bma, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: d, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: dc, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: cab, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: r1, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: r2, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: t, Lower: 0, Upper: 0},
		},
		Equations: []engine.Equation{
			{Vars: []int{amb, a, b}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{bma, b, a}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{dc, d, c}, Coeffs: []float64{1, -1, 1}, RHS: 0},
			{Vars: []int{cab, c, a, b}, Coeffs: []float64{1, -1, 1, 1}, RHS: 0},
			{Vars: []int{t, r1, r2}, Coeffs: []float64{1, -1, -1}, RHS: 0},
		},
		Piecewise: []engine.PiecewiseConstraint{
			engine.NewMaxConstraint([]int{amb, bma}, d),
			engine.NewReLUConstraint(dc, r1),
			engine.NewReLUConstraint(cab, r2),
		},
	}

	res := run("Max feasible", p, nil)
	if res != nil {
		fmt.Printf("   status=%s assignment=%v\n", res.Status, res.Assignment)
	}
	fmt.Println()
}

// maxInfeasible demonstrates two max constraints whose ranges cannot
// possibly be made equal: max(x0,x1) over [0,1] inputs can never equal
// max(x2,x3) over [2,3] inputs.
func maxInfeasible() {
	fmt.Println("5. Max infeasible:")

	const (
		x0 = iota
		x1
		x2
		x3
		m1
		m2
	)
	p := &engine.Problem{
		NumVars: 6,
		Variables: []engine.Variable{
			{Index: x0, Lower: 0, Upper: 1},
			{Index: x1, Lower: 0, Upper: 1},
			{Index: x2, Lower: 2, Upper: 3},
			{Index: x3, Lower: 2, Upper: 3},
			{Index: m1, Lower: engine.NegInf, Upper: engine.PosInf},
			{Index: m2, Lower: engine.NegInf, Upper: engine.PosInf},
		},
		Equations: []engine.Equation{
			{Vars: []int{m1, m2}, Coeffs: []float64{1, -1}, RHS: 0},
		},
		Piecewise: []engine.PiecewiseConstraint{
			engine.NewMaxConstraint([]int{x0, x1}, m1),
			engine.NewMaxConstraint([]int{x2, x3}, m2),
		},
	}

	res := run("Max infeasible", p, nil)
	if res != nil {
		fmt.Printf("   status=%s\n", res.Status)
	}
	fmt.Println()
}

// restartSmoke builds a chain of ambiguous Abs constraints and solves it
// with a small RestartSequence base (4 instead of the default 512), printing
// the restart, conflict and decision counts. Every phase choice in this
// chain is satisfiable (all f equal, every b at the same magnitude), so no
// combination of phases is in conflict and reaching SAT needs no restart.
func restartSmoke() {
	fmt.Println("6. Restart smoke:")

	const n = 12
	numVars := 2 * n
	vars := make([]engine.Variable, 0, numVars)
	eqs := make([]engine.Equation, 0, n)
	pw := make([]engine.PiecewiseConstraint, 0, n)
	for i := 0; i < n; i++ {
		bIdx, fIdx := 2*i, 2*i+1
		vars = append(vars,
			engine.Variable{Index: bIdx, Lower: -1, Upper: 1},
			engine.Variable{Index: fIdx, Lower: engine.NegInf, Upper: engine.PosInf},
		)
		pw = append(pw, engine.NewAbsConstraint(bIdx, fIdx))
		if i > 0 {
			prevF := 2*(i-1) + 1
			eqs = append(eqs, engine.Equation{
				Vars: []int{fIdx, prevF}, Coeffs: []float64{1, -1}, RHS: 0,
			})
		}
	}

	cfg := engine.DefaultConfig()
	cfg.RestartSequence = 4
	cfg.BranchingHeuristic = engine.Polarity

	p := &engine.Problem{NumVars: numVars, Variables: vars, Equations: eqs, Piecewise: pw}

	res := run("Restart smoke", p, cfg)
	if res != nil {
		fmt.Printf("   status=%s restarts=%d conflicts=%d decisions=%d\n",
			res.Status, res.Stats.Restarts, res.Stats.Conflicts, res.Stats.Decisions)
	}
	fmt.Println()
}
