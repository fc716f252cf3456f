package engine

// RowTightener derives bound tightenings from each tableau row directly:
// for a row sum_j a_j x_j = 0 with basic variable at row r, once every
// non-basic variable's contribution is bounded by its own interval, the
// basic variable's own bound can sometimes be tightened beyond what the
// simplex assignment alone would show, and vice versa. This mirrors
// interval constraint propagation over the row treated as a single linear
// equation, run either once per simplex round or iterated to a fixpoint
// bounded by Config.RowTighteningSaturationCap.
type RowTightener struct {
	t   *Tableau
	bm  *BoundManager
	cfg *Config
}

// NewRowTightener builds a row tightener over the given tableau and bound
// manager.
func NewRowTightener(t *Tableau, bm *BoundManager, cfg *Config) *RowTightener {
	return &RowTightener{t: t, bm: bm, cfg: cfg}
}

// TightenRow derives and installs any tightenings implied by row `row`
// alone, treating every other column's term as an interval and solving for
// the tightest interval of each variable's term. Returns true if any bound
// was strictly improved. An *Infeasibility from a BoundManager call
// propagates immediately.
func (rt *RowTightener) TightenRow(row int) (bool, error) {
	coeffs := make(map[int]float64, rt.t.n)
	for col := 0; col < rt.t.n; col++ {
		if v := rt.t.a[row][col]; v != 0 {
			coeffs[col] = v
		}
	}
	if len(coeffs) == 0 {
		return false, nil
	}

	changed := false
	for target, targetCoeff := range coeffs {
		lo, hi := 0.0, 0.0
		boundedLo, boundedHi := true, true
		for col, coeff := range coeffs {
			if col == target {
				continue
			}
			termLo, termHi := termInterval(coeff, rt.bm.Lb(col), rt.bm.Ub(col))
			if !IsFinite(termLo) {
				boundedLo = false
			} else {
				lo += termLo
			}
			if !IsFinite(termHi) {
				boundedHi = false
			} else {
				hi += termHi
			}
		}
		// sum_{j != target} a_j x_j + targetCoeff*x_target = 0
		// => targetCoeff*x_target = -(sum_{j!=target} a_j x_j)
		// the sum lies in [lo, hi], so targetCoeff*x_target in [-hi, -lo].
		if boundedHi {
			candidateBound := -hi / targetCoeff
			improved, err := rt.installBound(target, targetCoeff, candidateBound, true)
			if err != nil {
				return changed, err
			}
			changed = changed || improved
		}
		if boundedLo {
			candidateBound := -lo / targetCoeff
			improved, err := rt.installBound(target, targetCoeff, candidateBound, false)
			if err != nil {
				return changed, err
			}
			changed = changed || improved
		}
	}
	return changed, nil
}

// installBound converts a candidate bound on targetCoeff*x_target into a
// lower or upper bound on x_target itself, accounting for sign flip when
// targetCoeff is negative, and installs it via the bound manager.
// fromUpperSum indicates the candidate was derived from the sum's upper
// bound (so yields an upper bound on x_target when targetCoeff > 0).
func (rt *RowTightener) installBound(target int, targetCoeff, candidate float64, fromUpperSum bool) (bool, error) {
	isUpper := fromUpperSum
	if targetCoeff < 0 {
		isUpper = !isUpper
	}
	if isUpper {
		return rt.bm.TightenUpper(target, candidate)
	}
	return rt.bm.TightenLower(target, candidate)
}

// termInterval computes the interval of coeff*x given x in [lb, ub],
// handling sign flips for negative coefficients and propagating
// infinities.
func termInterval(coeff, lb, ub float64) (float64, float64) {
	if coeff == 0 {
		return 0, 0
	}
	a := coeff * lb
	b := coeff * ub
	if coeff > 0 {
		return a, b
	}
	return b, a
}

// Saturate repeatedly tightens every row until no row produces an
// improvement or the configured saturation cap is reached, returning the
// number of passes that tightened at least one bound (0 when the first pass
// finds nothing to tighten).
func (rt *RowTightener) Saturate() (int, error) {
	cap := rt.cfg.RowTighteningSaturationCap
	if cap <= 0 {
		cap = 1
	}
	for pass := 0; pass < cap; pass++ {
		anyChange := false
		for row := 0; row < rt.t.m; row++ {
			changed, err := rt.TightenRow(row)
			if err != nil {
				return pass, err
			}
			anyChange = anyChange || changed
		}
		if !anyChange {
			return pass, nil
		}
	}
	return cap, nil
}
