package engine

import "math"

// branchFrame records one open case split: the constraint branched on, the
// phases not yet tried, and the context level the decision was made at.
// Directly grounded on the teacher's search.go DFSSearch.Search, which
// keeps an explicit `frame{snap, varID, valIdx, choices}` stack rather than
// recursing, so the search loop can backtrack by popping frames instead of
// unwinding the Go call stack.
type branchFrame struct {
	constraint PiecewiseConstraint
	remaining  []Phase
	level      int
}

// CDCLSearch is the top-level search driver: it alternates restoring LP
// feasibility (simplex), propagating bound tightenings to a fixpoint,
// attempting Sum-of-Infeasibilities local repair, and — when that stalls —
// case-splitting on a piecewise constraint, recording the split on the
// search trail so conflict analysis can learn a clause and backtrack.
// Restarts follow a Luby sequence scaled by Config.RestartSequence.
//
// Mirrors the teacher's DFSSearch.Search: an explicit stack instead of
// recursion, store.snapshot()/store.undo() replaced by Context.Push/PopTo,
// and a cancellation check at the top of the loop mirroring the teacher's
// `select { case <-ctx.Done(): ...}`.
type CDCLSearch struct {
	ctx       *Context
	cfg       *Config
	bm        *BoundManager
	t         *Tableau
	rowT      *RowTightener
	consT     *ConstraintTightener
	cost      *CostManager
	soi       *SoIManager
	clauses   *ClauseDB
	trail     *SearchTrail
	epoch     *EpochMonitor
	degrader  *DegradationChecker

	branchStack []branchFrame
	stats       Stats
	conflicts   int
}

// NewCDCLSearch assembles a search driver over the given subsystems, all of
// which must already share the same Context.
func NewCDCLSearch(ctx *Context, cfg *Config, bm *BoundManager, t *Tableau, rowT *RowTightener, consT *ConstraintTightener, cost *CostManager, soi *SoIManager, clauses *ClauseDB, trail *SearchTrail, epoch *EpochMonitor) *CDCLSearch {
	return &CDCLSearch{
		ctx: ctx, cfg: cfg, bm: bm, t: t, rowT: rowT, consT: consT,
		cost: cost, soi: soi, clauses: clauses, trail: trail, epoch: epoch,
		degrader: NewDegradationChecker(t, cfg),
	}
}

// Run executes the search loop until SAT, UNSAT, or the epoch monitor
// reports expiry.
func (s *CDCLSearch) Run() (*Result, error) {
	for {
		if timedOut, quit := s.epoch.Expired(); timedOut || quit {
			if timedOut {
				return &Result{Status: Timeout, Stats: s.stats}, nil
			}
			return &Result{Status: QuitRequested, Stats: s.stats}, nil
		}

		if err := s.restoreFeasibilityAndPropagate(); err != nil {
			if _, ok := err.(*Infeasibility); ok {
				ok2, rerr := s.handleConflict()
				if rerr != nil {
					return nil, rerr
				}
				if !ok2 {
					return &Result{Status: UNSAT, Stats: s.stats}, nil
				}
				continue
			}
			return nil, err
		}

		violated := s.consT.FirstUnfixedViolated(s.t)
		if violated == nil {
			if s.allSatisfied() {
				return &Result{Status: SAT, Assignment: s.extractAssignment(), Stats: s.stats}, nil
			}
		}

		if !s.soi.Stalled() {
			applied, err := s.soi.ProposeStep(s.t)
			if err != nil {
				if _, ok := err.(*Infeasibility); ok {
					ok2, rerr := s.handleConflict()
					if rerr != nil {
						return nil, rerr
					}
					if !ok2 {
						return &Result{Status: UNSAT, Stats: s.stats}, nil
					}
					continue
				}
				return nil, err
			}
			if applied {
				before := s.cost.Total(s.t)
				propErr := s.restoreFeasibilityAndPropagate()
				if propErr != nil {
					if _, ok := propErr.(*Infeasibility); ok {
						s.soi.RecordOutcome(0)
						ok2, rerr := s.handleConflict()
						if rerr != nil {
							return nil, rerr
						}
						if !ok2 {
							return &Result{Status: UNSAT, Stats: s.stats}, nil
						}
						continue
					}
					return nil, propErr
				}
				after := s.cost.Total(s.t)
				s.soi.RecordOutcome(before - after)
				continue
			}
		}

		progressed, err := s.decide()
		if err != nil {
			if _, ok := err.(*Infeasibility); ok {
				ok2, rerr := s.handleConflict()
				if rerr != nil {
					return nil, rerr
				}
				if !ok2 {
					return &Result{Status: UNSAT, Stats: s.stats}, nil
				}
				continue
			}
			return nil, err
		}
		if !progressed {
			// No unfixed violated constraint remains to branch on (decide's
			// candidate set is exactly consT.FirstUnfixedViolated's), yet
			// allSatisfied() above was false: some already phase-fixed
			// constraint is violated and neither propagation, SoI, nor
			// case-splitting touches a fixed constraint. That combination
			// should be unreachable once every piecewise constraint's phase
			// equality is properly wired into the tableau, so treat it as
			// an engine bug rather than spin.
			return nil, &InvariantViolation{Detail: "search stalled: no branchable constraint remains but the problem is not satisfied"}
		}

		if s.shouldRestart() {
			s.restart()
		}
	}
}

// restoreFeasibilityAndPropagate alternates simplex pivoting and
// row/constraint bound propagation until both are simultaneously at a
// fixpoint, checking for numeric degradation after every pivot.
func (s *CDCLSearch) restoreFeasibilityAndPropagate() error {
	rule := RuleFor(s.cfg.PivotPickingStrategy)
	for {
		pivoted, err := s.simplexStep(rule)
		if err != nil {
			return err
		}
		rowChanged, err := s.rowT.Saturate()
		if err != nil {
			return err
		}
		consChanged, err := s.consT.Propagate()
		if err != nil {
			return err
		}
		clauseChanged, err := s.propagateLearnedClauses()
		if err != nil {
			return err
		}
		if pivoted {
			s.cost.Invalidate()
		}
		if !pivoted && rowChanged == 0 && !consChanged && !clauseChanged {
			return nil
		}
	}
}

// propagateLearnedClauses drives the clause database's unit-propagation
// rule to a fixpoint: whenever every literal in a learned clause but one
// already holds on the trail, the remaining constraint must avoid that
// literal's phase. If exactly one possible phase then survives, it is
// asserted as an Implication (not a Decision — no context push, per spec
// §4.8's backjump step 4: "assert the unit literal as an implication at
// that level"). Returns whether any implication was asserted.
func (s *CDCLSearch) propagateLearnedClauses() (bool, error) {
	any := false
	seen := make(map[Literal]bool)
	for {
		lit, ok := s.clauses.UnitImplication(s.trail.PhaseMap())
		if !ok || seen[lit] {
			return any, nil
		}
		seen[lit] = true

		c := s.consT.ConstraintByID(lit.ConstraintID)
		if c == nil {
			continue
		}
		if _, fixed := c.PhaseFixed(); fixed {
			continue
		}
		var remaining []Phase
		for _, p := range c.PossibleFixes() {
			if p != lit.Phase {
				remaining = append(remaining, p)
			}
		}
		if len(remaining) != 1 {
			continue
		}
		if err := c.Fix(s.ctx, remaining[0]); err != nil {
			return any, err
		}
		s.trail.Push(TrailEntry{Constraint: c, Phase: remaining[0], Kind: Implication, Level: s.ctx.Level()})
		s.cost.Invalidate()
		any = true
	}
}

// simplexStep restores LP feasibility by pivoting until no basic variable
// violates its bounds, switching to Bland's rule after too many consecutive
// pivots suggest cycling/degeneracy. Returns whether at least one pivot was
// performed.
func (s *CDCLSearch) simplexStep(rule EnteringRule) (bool, error) {
	any := false
	consecutive := 0
	for {
		row, found := s.t.FindBasicOutOfBounds()
		if !found {
			return any, nil
		}
		activeRule := rule
		if consecutive > s.t.NumRows()*4 {
			activeRule = BlandRule{}
		}

		basicVar := s.t.BasicInRow(row)
		direction := 1
		target := s.bm.Lb(basicVar)
		if s.t.BasicTooHigh(row) {
			direction = -1
			target = s.bm.Ub(basicVar)
		}

		rowVec, err := s.t.ExtractRow(row)
		if err != nil {
			return any, err
		}
		enter, ok := activeRule.Pick(rowVec, direction, s.t, s.bm, s.cfg.SimplexTolerance)
		if !ok {
			return any, NewInfeasibility(basicVar, "no entering variable restores feasibility of this row")
		}

		if err := s.t.Pivot(row, enter, target); err != nil {
			return any, err
		}
		any = true
		s.stats.Pivots++
		consecutive++

		if _, refactorized, derr := s.degrader.Check(); derr != nil {
			return any, derr
		} else if refactorized {
			s.stats.Refactorizations++
		}
	}
}

// allSatisfied reports whether every registered piecewise constraint is
// currently satisfied by the tableau assignment.
func (s *CDCLSearch) allSatisfied() bool {
	for _, c := range s.consT.Constraints() {
		if !c.Satisfied(s.t) {
			return false
		}
	}
	return true
}

// decide picks a branching constraint per Config.BranchingHeuristic,
// case-splits on its first candidate phase, and records the decision.
// Returns false if no violated-and-unfixed constraint remains to branch
// on.
func (s *CDCLSearch) decide() (bool, error) {
	target := s.selectBranchConstraint()
	if target == nil {
		return false, nil
	}
	phases := target.CaseSplits()
	if len(phases) == 0 {
		return false, NewInfeasibility(-1, "constraint has no remaining possible phase")
	}

	s.ctx.Push()
	level := s.ctx.Level()
	first := phases[0].Phase
	rest := make([]Phase, 0, len(phases)-1)
	for _, p := range phases[1:] {
		rest = append(rest, p.Phase)
	}
	s.branchStack = append(s.branchStack, branchFrame{constraint: target, remaining: rest, level: level})

	if err := target.Fix(s.ctx, first); err != nil {
		return false, err
	}
	s.trail.Push(TrailEntry{Constraint: target, Phase: first, Kind: Decision, Level: level})
	s.stats.Decisions++
	s.soi.Reset()
	return true, nil
}

// selectBranchConstraint applies Config.BranchingHeuristic over the
// registered constraints that are violated and not yet phase-fixed.
func (s *CDCLSearch) selectBranchConstraint() PiecewiseConstraint {
	candidates := s.violatedUnfixed()
	if len(candidates) == 0 {
		return nil
	}
	switch s.cfg.BranchingHeuristic {
	case Polarity:
		return s.pickByPolarity(candidates)
	case PseudoImpact:
		return s.pickByPseudoImpact(candidates)
	case LargestInterval:
		return s.pickByLargestInterval(candidates)
	default:
		// Topological: earliest unresolved constraint in declaration
		// order, suited to layered neural-network encodings (spec §4.8).
		return candidates[0]
	}
}

// violatedUnfixed returns every registered constraint that is currently
// violated and not yet phase-fixed, in declaration order.
func (s *CDCLSearch) violatedUnfixed() []PiecewiseConstraint {
	var out []PiecewiseConstraint
	for _, c := range s.consT.Constraints() {
		if _, fixed := c.PhaseFixed(); fixed {
			continue
		}
		if !c.Satisfied(s.t) {
			out = append(out, c)
		}
	}
	return out
}

// pickByPolarity scores each candidate by how often it appears in learned
// clauses (VSIDS-style activity, summed over ClausesMentioning) plus
// balanceScore, the negated cost component, so among equal activity the
// candidate whose assignment is closest to satisfying some phase wins.
// Highest score wins, ties broken by declaration order.
func (s *CDCLSearch) pickByPolarity(candidates []PiecewiseConstraint) PiecewiseConstraint {
	best := candidates[0]
	bestScore := -math.MaxFloat64
	for _, c := range candidates {
		activity := 0.0
		for _, cl := range s.clauses.ClausesMentioning(c.ID()) {
			activity += cl.activity
		}
		score := activity + balanceScore(c, s.t)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// pickByPseudoImpact picks the candidate whose SoI manager has recorded the
// largest average cost reduction from past phase flips, falling back to
// declaration order for constraints with no recorded history yet.
func (s *CDCLSearch) pickByPseudoImpact(candidates []PiecewiseConstraint) PiecewiseConstraint {
	best := candidates[0]
	bestScore := -math.MaxFloat64
	for _, c := range candidates {
		score := s.soi.ImpactScore(c.ID())
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// pickByLargestInterval picks the candidate with the widest current bound
// interval among its participating variables (input splitting: the
// variable contributing the most remaining uncertainty).
func (s *CDCLSearch) pickByLargestInterval(candidates []PiecewiseConstraint) PiecewiseConstraint {
	best := candidates[0]
	bestWidth := -1.0
	for _, c := range candidates {
		width := 0.0
		for _, v := range c.Variables() {
			lb, ub := s.bm.Lb(v), s.bm.Ub(v)
			if IsFinite(lb) && IsFinite(ub) && ub-lb > width {
				width = ub - lb
			}
		}
		if width > bestWidth {
			bestWidth = width
			best = c
		}
	}
	return best
}

// balanceScore is the negated cost component of the constraint at the
// current assignment: 0 when the assignment satisfies some possible phase,
// more negative the further it is from every phase. It does not look at
// where the input's bounds sit relative to the phase boundary.
func balanceScore(c PiecewiseConstraint, t *Tableau) float64 {
	return -c.CostComponent(t)
}

// handleConflict performs conflict analysis (learn a no-good over the
// current decision sequence) and backtracks to the most recent branch
// frame with an untried alternative, trying it next. Returns false if no
// such frame exists (the problem is UNSAT).
func (s *CDCLSearch) handleConflict() (bool, error) {
	s.conflicts++
	s.stats.Conflicts++

	decisions := s.trail.Decisions()
	if len(decisions) > 0 {
		lits := make([]Literal, len(decisions))
		for i, d := range decisions {
			lits[i] = Literal{ConstraintID: d.Constraint.ID(), Phase: d.Phase}
		}
		s.clauses.Learn(lits)
	}
	s.clauses.Decay()

	for len(s.branchStack) > 0 {
		top := &s.branchStack[len(s.branchStack)-1]
		if err := s.ctx.PopTo(top.level - 1); err != nil {
			return false, err
		}
		s.trail.TruncateTo(top.level - 1)

		if len(top.remaining) == 0 {
			s.branchStack = s.branchStack[:len(s.branchStack)-1]
			continue
		}

		next := top.remaining[0]
		top.remaining = top.remaining[1:]
		s.ctx.Push()
		level := s.ctx.Level()
		top.level = level
		if err := top.constraint.Fix(s.ctx, next); err != nil {
			return false, err
		}
		s.trail.Push(TrailEntry{Constraint: top.constraint, Phase: next, Kind: Decision, Level: level})
		s.cost.Invalidate()
		return true, nil
	}
	return false, nil
}

// shouldRestart reports whether the conflict count has reached the next
// entry in the Luby restart sequence scaled by Config.RestartSequence.
func (s *CDCLSearch) shouldRestart() bool {
	if s.cfg.RestartSequence <= 0 {
		return false
	}
	threshold := luby(s.stats.Restarts) * s.cfg.RestartSequence
	return s.conflicts >= threshold
}

// restart pops every open branch frame back to level 0, keeping all
// learned clauses, and resets the local decision trail so search resumes
// from a blank branching state with the accumulated clause database
// pruning the newly explored space.
func (s *CDCLSearch) restart() {
	_ = s.ctx.PopTo(0)
	s.trail.TruncateTo(0)
	s.branchStack = nil
	s.conflicts = 0
	s.stats.Restarts++
	s.epoch.logf("restart %d", s.stats.Restarts)
	s.cost.Invalidate()
	s.soi.Reset()
}

// luby returns the i-th term (0-indexed) of the Luby restart sequence:
// 1 1 2 1 1 2 4 1 1 2 1 1 2 4 8 ...
func luby(i int) int {
	k := 1
	for k < i+1 {
		k = 2*k + 1
	}
	for k != i+1 {
		k = (k - 1) / 2
		if k <= i {
			return luby(i - k)
		}
	}
	return (k + 1) / 2
}

// extractAssignment reads out the final satisfying value of every
// variable, including slacks, from the tableau.
func (s *CDCLSearch) extractAssignment() Assignment {
	out := make(Assignment, s.t.NumColumns())
	for v := 0; v < s.t.NumColumns(); v++ {
		val := s.t.Assignment(v)
		if math.IsNaN(val) {
			val = 0
		}
		out[v] = val
	}
	return out
}
