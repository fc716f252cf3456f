package engine

import "math"

// EnteringRule selects which non-basic variable should enter the basis
// given the current reduced-cost vector, mirroring the teacher's
// LabelingStrategy pluggable-strategy shape (labeling.go) but for pivot
// selection instead of value choice.
type EnteringRule interface {
	// Pick returns the chosen non-basic column index and true, or false if
	// no improving column exists (the row is already optimal with respect
	// to this row's infeasibility).
	Pick(row *SparseVector, direction int, t *Tableau, bm *BoundManager, tol float64) (int, bool)
}

// direction is +1 when the basic variable is too low (needs to increase)
// and -1 when it is too high (needs to decrease); a non-basic column is
// eligible to fix the infeasibility if moving it away from its current
// bound in the appropriate direction, given its coefficient's sign, would
// move the basic variable the right way.
func columnEligible(coeff float64, direction int, atLower bool) bool {
	// A non-basic variable at its lower bound can only increase; at its
	// upper bound it can only decrease. The basic variable's value moves by
	// -coeff * delta for an increase in the non-basic, so:
	wantIncrease := direction > 0
	effectIsIncrease := coeff < 0
	if !atLower {
		effectIsIncrease = !effectIsIncrease
	}
	return wantIncrease == effectIsIncrease
}

// DantzigRule picks the eligible column with the largest-magnitude
// coefficient (the classic most-negative-reduced-cost rule, adapted here
// to infeasibility-row pivoting since this engine has no explicit
// objective function outside SoI).
type DantzigRule struct{}

func (DantzigRule) Pick(row *SparseVector, direction int, t *Tableau, bm *BoundManager, tol float64) (int, bool) {
	best := -1
	bestMag := 0.0
	for _, e := range row.Entries() {
		atLower := eq(t.Assignment(e.Index), bm.Lb(e.Index), tol)
		if !columnEligible(e.Value, direction, atLower) {
			continue
		}
		mag := math.Abs(e.Value)
		if mag > bestMag {
			bestMag = mag
			best = e.Index
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// BlandRule picks the lowest-indexed eligible column, guaranteeing
// termination (no cycling) at the cost of pivot throughput. The search
// driver switches to this rule automatically once a single feasibility
// restoration has made more than 4×rows consecutive pivots.
type BlandRule struct{}

func (BlandRule) Pick(row *SparseVector, direction int, t *Tableau, bm *BoundManager, tol float64) (int, bool) {
	best := -1
	for _, e := range row.Entries() {
		atLower := eq(t.Assignment(e.Index), bm.Lb(e.Index), tol)
		if !columnEligible(e.Value, direction, atLower) {
			continue
		}
		if best < 0 || e.Index < best {
			best = e.Index
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// SteepestEdgeRule picks the eligible column maximizing |coeff| divided by
// the column's approximate norm in the current basis, approximated here by
// the row's own entry magnitude normalized against the row's L2 norm
// (a cheap proxy avoiding a full reference-framework maintenance pass).
type SteepestEdgeRule struct{}

func (SteepestEdgeRule) Pick(row *SparseVector, direction int, t *Tableau, bm *BoundManager, tol float64) (int, bool) {
	norm := 0.0
	for _, e := range row.Entries() {
		norm += e.Value * e.Value
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return 0, false
	}
	best := -1
	bestScore := 0.0
	for _, e := range row.Entries() {
		atLower := eq(t.Assignment(e.Index), bm.Lb(e.Index), tol)
		if !columnEligible(e.Value, direction, atLower) {
			continue
		}
		score := math.Abs(e.Value) / norm
		if score > bestScore {
			bestScore = score
			best = e.Index
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// RuleFor returns the EnteringRule implementation for a configured
// strategy.
func RuleFor(strategy PivotPickingStrategy) EnteringRule {
	switch strategy {
	case Blands:
		return BlandRule{}
	case SteepestEdge:
		return SteepestEdgeRule{}
	default:
		return DantzigRule{}
	}
}
