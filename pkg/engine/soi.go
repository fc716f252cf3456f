package engine

// SoIManager runs Sum-of-Infeasibilities local search: rather than
// case-splitting on a piecewise constraint immediately, it first tries a
// cost-reducing pivot and, when none exists, greedily fixes the
// most-violated unfixed constraint to whichever of its remaining
// possible phases the current assignment already lies closest to, deferring
// the more expensive case-split/backjump machinery until that heuristic
// stalls. Shaped like the teacher's FDSolver.Solve adapter: build a
// tentative choice, hand it back for the caller to apply and re-simplex,
// then judge the outcome on the next call.
//
// The actual cost reduction from a phase fix is only realized once the
// caller re-runs row/constraint tightening and re-optimizes the tableau
// (fixing a phase only narrows bounds; it does not move the assignment by
// itself), so ProposeStep does not attempt to compute an exact delta up
// front. It proposes the single most promising fix per call; the driver
// judges success by comparing CostManager.Total before and after
// re-optimizing and calls Reset or records a rejection accordingly.
type SoIManager struct {
	ctx        *Context
	cfg        *Config
	bm         *BoundManager
	tightener  *ConstraintTightener
	cost       *CostManager
	rejections int

	lastProposed int // ID of the constraint the last ProposeStep call flipped, or -1
	impact       map[int]float64
}

// NewSoIManager builds a manager over the given constraint set and cost
// cache.
func NewSoIManager(ctx *Context, cfg *Config, bm *BoundManager, tightener *ConstraintTightener, cost *CostManager) *SoIManager {
	return &SoIManager{ctx: ctx, cfg: cfg, bm: bm, tightener: tightener, cost: cost, lastProposed: -1, impact: make(map[int]float64)}
}

// ProposeStep first tries a cost-reducing simplex pivot: build the
// Sum-of-Infeasibilities cost vector's subgradient over every unfixed
// constraint's variables, price out reduced costs via BTRAN, and pivot
// along the steepest improving direction a bounded-variable ratio test
// allows (spec §4.6's INVALID/RECOMPUTED/UPDATED reduced-cost lifecycle,
// applied to the SoI objective rather than a fixed linear one). Only once
// no such pivot exists — the relaxed cost surface is at a local minimum —
// does it fall back to greedily fixing the worst-violated constraint's
// nearest phase, handing the remaining non-convexity to case-splitting.
func (s *SoIManager) ProposeStep(t *Tableau) (bool, error) {
	moved, err := s.minimizeCost(t)
	if err != nil {
		return false, err
	}
	if moved {
		s.cost.Invalidate()
		return true, nil
	}
	return s.proposePhaseFix(t)
}

// proposePhaseFix picks the unfixed constraint with the largest current
// cost component and fixes it to the possible phase that minimizes that
// component right now (the phase the assignment is already closest to
// satisfying), on the theory that the nearest phase needs the smallest
// tableau adjustment to become exactly satisfied. Returns false if every
// constraint is already fixed or satisfied.
func (s *SoIManager) proposePhaseFix(t *Tableau) (bool, error) {
	var worst PiecewiseConstraint
	worstCost := 0.0
	for _, c := range s.tightener.Constraints() {
		if _, fixed := c.PhaseFixed(); fixed {
			continue
		}
		if v := c.CostComponent(t); v > worstCost {
			worstCost = v
			worst = c
		}
	}
	if worst == nil {
		return false, nil
	}

	fixes := worst.PossibleFixes()
	if len(fixes) == 0 {
		return false, nil
	}
	chosen := s.nearestPhase(t, worst, fixes)
	if err := worst.Fix(s.ctx, chosen); err != nil {
		return false, err
	}
	s.lastProposed = worst.ID()
	s.cost.Invalidate()
	return true, nil
}

// nearestPhase evaluates each candidate phase's cost under a trial fix
// (within a throwaway context level) and returns the one with the smallest
// resulting component, defaulting to the first candidate on ties.
func (s *SoIManager) nearestPhase(t *Tableau, c PiecewiseConstraint, candidates []Phase) Phase {
	best := candidates[0]
	bestCost := PosInf
	for _, p := range candidates {
		s.ctx.Push()
		_ = c.Fix(s.ctx, p)
		cost := c.CostComponent(t)
		_ = s.ctx.Pop()
		if cost < bestCost {
			bestCost = cost
			best = p
		}
	}
	return best
}

// RecordOutcome tells the manager how much the total SoI cost changed
// (before minus after; positive means improvement) once the caller
// re-optimized the tableau following the last ProposeStep call, resetting
// or incrementing the rejection counter and updating the flipped
// constraint's pseudo-impact score (an exponential moving average of its
// realized cost reduction, consumed by Config.BranchingHeuristic ==
// PseudoImpact, spec §4.7).
func (s *SoIManager) RecordOutcome(delta float64) {
	if delta > 0 {
		s.rejections = 0
	} else {
		s.rejections++
	}
	if s.lastProposed >= 0 {
		const emaWeight = 0.3
		prev := s.impact[s.lastProposed]
		s.impact[s.lastProposed] = (1-emaWeight)*prev + emaWeight*delta
		s.lastProposed = -1
	}
}

// ImpactScore returns the constraint's current pseudo-impact score (0 if
// it has never been flipped by SoI), for the PseudoImpact branching
// heuristic.
func (s *SoIManager) ImpactScore(constraintID int) float64 {
	return s.impact[constraintID]
}

// Stalled reports whether local search has rejected enough consecutive
// proposals that the driver should fall back to case-splitting, per
// Config.DeepSoIRejectionThreshold.
func (s *SoIManager) Stalled() bool {
	return s.rejections >= s.cfg.DeepSoIRejectionThreshold
}

// Reset clears the rejection counter, called after a successful case split
// or backjump gives local search a fresh trail to work with.
func (s *SoIManager) Reset() {
	s.rejections = 0
}

// costGradient sums every unfixed constraint's CostGradient contribution
// into one map, variables shared between constraints accumulating
// additively.
func costGradient(t *Tableau, constraints []PiecewiseConstraint) map[int]float64 {
	grad := make(map[int]float64)
	for _, c := range constraints {
		if _, fixed := c.PhaseFixed(); fixed {
			continue
		}
		for v, g := range c.CostGradient(t) {
			grad[v] += g
		}
	}
	return grad
}

// minimizeCost performs one bounded-variable simplex pivot that strictly
// reduces the Sum-of-Infeasibilities cost, or reports false if the current
// basis is already a local minimum of the relaxed (still-unfixed) cost
// surface. Unlike simplexStep's feasibility-restoring pivots, the entering
// variable here is chosen by reduced cost rather than by which basic
// variable is out of bounds, and the leaving variable is whichever basic
// variable (or the entering variable itself) first hits a bound as the
// entering variable moves — the standard bounded-variable ratio test.
func (s *SoIManager) minimizeCost(t *Tableau) (bool, error) {
	grad := costGradient(t, s.tightener.Constraints())
	if len(grad) == 0 {
		return false, nil
	}

	costBasic := make([]float64, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		costBasic[row] = grad[t.BasicInRow(row)]
	}
	y, err := t.BTRAN(costBasic)
	if err != nil {
		return false, err
	}

	tol := s.cfg.SimplexTolerance
	enter := -1
	increasing := true
	bestReduced := tol
	for _, j := range t.NonBasicColumns() {
		rc := grad[j] - t.ColumnDot(j, y)
		if rc == 0 {
			continue
		}
		lb, ub := s.bm.Lb(j), s.bm.Ub(j)
		atLower := eq(t.Assignment(j), lb, tol)
		if IsFinite(lb) && IsFinite(ub) && ub-lb <= tol {
			continue // fixed variable, cannot move either direction
		}
		if atLower && rc < -bestReduced {
			bestReduced = -rc
			enter = j
			increasing = true
		} else if !atLower && rc > bestReduced {
			bestReduced = rc
			enter = j
			increasing = false
		}
	}
	if enter < 0 {
		return false, nil
	}

	d, err := t.EnteringColumn(enter)
	if err != nil {
		return false, err
	}
	sign := 1.0
	if !increasing {
		sign = -1
	}

	limit := PosInf
	enterLb, enterUb := s.bm.Lb(enter), s.bm.Ub(enter)
	if IsFinite(enterLb) && IsFinite(enterUb) {
		limit = enterUb - enterLb
	}
	leaveRow := -1
	var leaveValue float64
	for row := 0; row < t.NumRows(); row++ {
		coeff := d[row] * sign
		if coeff == 0 {
			continue
		}
		basicVar := t.BasicInRow(row)
		val := t.Assignment(basicVar)
		var bound, delta float64
		if coeff > 0 {
			bound = s.bm.Lb(basicVar)
			if !IsFinite(bound) {
				continue
			}
			delta = (val - bound) / coeff
		} else {
			bound = s.bm.Ub(basicVar)
			if !IsFinite(bound) {
				continue
			}
			delta = (val - bound) / coeff
		}
		if delta < 0 {
			delta = 0
		}
		if delta < limit {
			limit = delta
			leaveRow = row
			leaveValue = bound
		}
	}

	if !IsFinite(limit) {
		return false, nil
	}
	if limit <= tol {
		return false, nil
	}

	if leaveRow < 0 {
		newVal := enterLb + sign*limit
		t.SetNonBasicAssignment(enter, newVal)
		if err := t.ComputeAssignment(); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := t.Pivot(leaveRow, enter, leaveValue); err != nil {
		return false, err
	}
	return true, nil
}
