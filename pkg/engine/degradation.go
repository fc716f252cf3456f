package engine

// DegradationChecker monitors the tableau's residual ||Ax||∞ after pivots
// and requests refactorization. Check does not re-measure the residual
// after refactorizing and does not escalate further; RestorePrecision is a
// separate step that only refactorizes and recomputes the assignment, and
// no phase fix or bound tightening is replayed by either. Modeled on spec
// §4.9's escalation ladder; the wrap-then-escalate shape follows the
// teacher's fd_solver.go convention of wrapping an error and retrying at a
// coarser granularity before giving up.
type DegradationChecker struct {
	t   *Tableau
	cfg *Config
}

// NewDegradationChecker builds a checker over the given tableau and
// configuration.
func NewDegradationChecker(t *Tableau, cfg *Config) *DegradationChecker {
	return &DegradationChecker{t: t, cfg: cfg}
}

// Check computes the current residual and, if it exceeds
// Config.DegradationThreshold, refactorizes the basis. Returns the
// residual observed before any corrective action and whether
// refactorization was triggered.
func (d *DegradationChecker) Check() (float64, bool, error) {
	residual := d.t.Residual()
	if residual <= d.cfg.DegradationThreshold {
		return residual, false, nil
	}
	if err := d.t.Refactorize(); err != nil {
		return residual, true, err
	}
	if err := d.t.ComputeAssignment(); err != nil {
		return residual, true, err
	}
	return residual, true, nil
}

// RestorePrecision is the last-resort recovery step: it reloads a clean
// factorization from the given basic-column set and recomputes every basic
// variable's assignment. Callers are responsible for replaying whatever
// case-split/tightening state the search driver considers authoritative;
// this method only repairs the linear-algebra layer.
func (d *DegradationChecker) RestorePrecision() error {
	if err := d.t.Refactorize(); err != nil {
		return err
	}
	return d.t.ComputeAssignment()
}
