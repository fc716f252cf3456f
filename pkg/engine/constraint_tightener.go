package engine

// ConstraintTightener drains the bound tightenings entailed by every
// registered piecewise constraint and installs them through the bound
// manager, mirroring the teacher's propagation.go shape of "derive
// tightenings, push into store, drain queue" generalized from finite
// domains to piecewise-linear phase reasoning.
type ConstraintTightener struct {
	bm          *BoundManager
	constraints []PiecewiseConstraint
}

// NewConstraintTightener builds a tightener over the given piecewise
// constraints.
func NewConstraintTightener(bm *BoundManager, constraints []PiecewiseConstraint) *ConstraintTightener {
	return &ConstraintTightener{bm: bm, constraints: constraints}
}

// Propagate asks every constraint for its entailed tightenings and installs
// each through the bound manager, returning true if any bound was strictly
// improved. An *Infeasibility from the bound manager propagates
// immediately.
func (ct *ConstraintTightener) Propagate() (bool, error) {
	changed := false
	for _, c := range ct.constraints {
		for _, tg := range c.EntailedTightenings() {
			var improved bool
			var err error
			switch tg.Kind {
			case LowerBound:
				improved, err = ct.bm.TightenLower(tg.Variable, tg.Value)
			case UpperBound:
				improved, err = ct.bm.TightenUpper(tg.Variable, tg.Value)
			}
			if err != nil {
				return changed, err
			}
			changed = changed || improved
		}
	}
	return changed, nil
}

// FirstUnfixedViolated returns the first registered constraint whose
// current assignment is unsatisfied and not yet phase-fixed, for the
// search driver's Topological branching heuristic. Returns nil if every
// constraint is either satisfied or already fixed.
func (ct *ConstraintTightener) FirstUnfixedViolated(t *Tableau) PiecewiseConstraint {
	for _, c := range ct.constraints {
		if _, fixed := c.PhaseFixed(); fixed {
			continue
		}
		if !c.Satisfied(t) {
			return c
		}
	}
	return nil
}

// Constraints exposes the full registered list, used by the search driver's
// other branching heuristics and by the SoI manager.
func (ct *ConstraintTightener) Constraints() []PiecewiseConstraint {
	return ct.constraints
}

// ConstraintByID returns the registered constraint with the given ID, or
// nil if none matches. Used by the search driver to resolve a clause
// literal (which carries only a constraint ID) back to the constraint it
// must act on.
func (ct *ConstraintTightener) ConstraintByID(id int) PiecewiseConstraint {
	for _, c := range ct.constraints {
		if c.ID() == id {
			return c
		}
	}
	return nil
}
