package engine

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Engine is the top-level handle for one decision-procedure instance: it
// owns the context, bound manager, tableau, constraint layer, and search
// driver for a single Problem, and exposes Solve as the only entry point.
// Grounded on the teacher's fd_solver.go FDSolver, which likewise wraps a
// BaseSolver, owns its configuration, and exposes a single Solve method;
// SessionID plays the role the teacher leaves to caller-supplied request
// IDs, generated here via github.com/google/uuid so concurrent Engine
// instances in the same process log distinguishable session identifiers.
type Engine struct {
	SessionID uuid.UUID

	problem *Problem
	cfg     *Config
	logger  *log.Logger

	ctx     *Context
	bm      *BoundManager
	tableau *Tableau
	rowT    *RowTightener
	consT   *ConstraintTightener
	cost    *CostManager
	clauses *ClauseDB
	trail   *SearchTrail
}

// NewEngine validates cfg and problem, builds every subsystem, and wires
// the initial tableau (one slack variable per equation, carrying that
// equation's constant term via a fixed bound) and every piecewise
// constraint's watcher registration.
func NewEngine(problem *Problem, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := problem.validate(); err != nil {
		return nil, err
	}

	ctx := NewContext()
	numSlacks := len(problem.Equations)

	numAux := 0
	for _, pc := range problem.Piecewise {
		numAux += pc.NumAux()
	}

	n := problem.NumVars + numSlacks + numAux
	bm := NewBoundManager(ctx, cfg, n)

	for _, v := range problem.Variables {
		bm.SetInitialBounds(v.Index, v.Lower, v.Upper)
	}

	// Assign each piecewise constraint's auxiliary variables a dense block
	// of indices beyond the slacks, then collect the equation each one
	// needs wired into the tableau (spec §3/§4.5: a phase equality is
	// encoded as a fixed aux = linear-combination row plus a structural
	// aux >= 0 bound, not by mutating tableau rows after pivoting).
	next := problem.NumVars + numSlacks
	for _, pc := range problem.Piecewise {
		if k := pc.NumAux(); k > 0 {
			pc.BindAux(next)
			next += k
		}
	}
	var auxEqs []AuxEquation
	for _, pc := range problem.Piecewise {
		auxEqs = append(auxEqs, pc.AuxEquations()...)
	}

	numRows := numSlacks + len(auxEqs)
	tableau := NewTableau(bm, cfg, numRows, n)
	basic := make([]int, numRows)
	for row, eq := range problem.Equations {
		slackVar := problem.NumVars + row
		for i, v := range eq.Vars {
			tableau.SetEntry(row, v, eq.Coeffs[i])
		}
		tableau.SetEntry(row, slackVar, 1.0)
		bm.SetInitialBounds(slackVar, -eq.RHS, -eq.RHS)
		basic[row] = slackVar
	}
	for i, eq := range auxEqs {
		row := numSlacks + i
		tableau.SetEntry(row, eq.AuxVar, 1.0)
		for j, v := range eq.Vars {
			tableau.SetEntry(row, v, -eq.Coeffs[j])
		}
		bm.SetInitialBounds(eq.AuxVar, 0, PosInf)
		basic[row] = eq.AuxVar
	}
	if numRows > 0 {
		if err := tableau.SetInitialBasis(basic); err != nil {
			return nil, err
		}
		if err := tableau.ComputeAssignment(); err != nil {
			return nil, err
		}
	}

	for _, pc := range problem.Piecewise {
		pc.Register(bm)
	}

	rowT := NewRowTightener(tableau, bm, cfg)
	consT := NewConstraintTightener(bm, problem.Piecewise)
	cost := NewCostManager(problem.Piecewise)
	clauses := NewClauseDB()
	trail := NewSearchTrail()

	return &Engine{
		SessionID: uuid.New(),
		problem:   problem,
		cfg:       cfg,
		ctx:       ctx,
		bm:        bm,
		tableau:   tableau,
		rowT:      rowT,
		consT:     consT,
		cost:      cost,
		clauses:   clauses,
		trail:     trail,
	}, nil
}

// SetLogger attaches a logger used for lifecycle events during Solve
// (start, restarts, completion). If never called, Solve runs silently.
func (e *Engine) SetLogger(l *log.Logger) {
	e.logger = l
}

// Solve runs the search driver to completion, honoring cancellation of the
// supplied context and the engine's configured timeout.
//
// An *InvariantViolation raised anywhere in the search (an assertion the
// engine relies on for correctness, e.g. popping an empty decision stack)
// is a bug, not a property of the input problem; per spec §7 it is fatal
// and surfaces here as a returned error rather than a crash, so a calling
// verifier harness can report ERROR and continue rather than going down
// with this one Solve call.
func (e *Engine) Solve(ctx context.Context) (result *Result, err error) {
	epoch := NewEpochMonitor(ctx, e.cfg, e.logger)
	epoch.logf("session %s", e.SessionID)
	defer epoch.Complete()

	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(*InvariantViolation); ok {
				result, err = nil, iv
				return
			}
			panic(r)
		}
	}()

	soi := NewSoIManager(e.ctx, e.cfg, e.bm, e.consT, e.cost)
	search := NewCDCLSearch(e.ctx, e.cfg, e.bm, e.tableau, e.rowT, e.consT, e.cost, soi, e.clauses, e.trail, epoch)
	return search.Run()
}

// Problem returns the problem this engine was constructed from.
func (e *Engine) Problem() *Problem {
	return e.problem
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() *Config {
	return e.cfg
}
