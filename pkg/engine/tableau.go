package engine

import "fmt"

// Tableau is the revised-simplex engine: it partitions variables into basic
// and non-basic, maintains the current assignment, and restores feasibility
// one pivot at a time via Bland's rule, Dantzig's rule, or steepest-edge,
// per Config.PivotPickingStrategy. It owns a Basis for the product-form
// factorization of the current basis matrix and a BoundManager for the
// interval bounds every assignment must respect.
//
// Variables 0..n-1 are the problem's declared variables plus one auxiliary
// slack per linear equation (spec §4's standard equality-form tableau:
// Ax = 0 after moving every term to one side and introducing a slack column
// per row), followed by the piecewise constraints' auxiliary variables. Rows
// are the linear equations followed by one row per piecewise auxiliary
// equation; basic[row] is the variable currently basic in that row.
type Tableau struct {
	bm  *BoundManager
	cfg *Config

	m int // number of rows (equations)
	n int // number of columns (variables, including slacks)

	// a holds the dense constraint matrix by row, Len n each. Stored dense
	// because row tightening and cost computation scan full rows; m and n
	// are bounded by the problem size, not by search depth.
	a [][]float64

	basic    []int // basic[row] = variable index basic in that row
	basicRow map[int]int // inverse of basic: variable -> row, or absent if non-basic

	assignment []float64

	basis *Basis
}

// NewTableau constructs a tableau for m equations over n variables (n
// includes one slack per row, conventionally the last m columns), sharing
// the given bound manager and configuration.
func NewTableau(bm *BoundManager, cfg *Config, m, n int) *Tableau {
	a := make([][]float64, m)
	for i := range a {
		a[i] = make([]float64, n)
	}
	t := &Tableau{
		bm:         bm,
		cfg:        cfg,
		m:          m,
		n:          n,
		a:          a,
		basic:      make([]int, m),
		basicRow:   make(map[int]int, m),
		assignment: make([]float64, n),
		basis:      NewBasis(m),
	}
	return t
}

// SetEntry installs the coefficient of variable col in equation row.
func (t *Tableau) SetEntry(row, col int, value float64) {
	t.a[row][col] = value
}

// SetInitialBasis declares which variable is basic in each row (conventionally
// that row's slack) and performs the first factorization.
func (t *Tableau) SetInitialBasis(basic []int) error {
	copy(t.basic, basic)
	t.basicRow = make(map[int]int, t.m)
	for row, v := range basic {
		t.basicRow[v] = row
	}
	return t.refactorizeFromScratch()
}

func (t *Tableau) refactorizeFromScratch() error {
	cols := make([][]float64, t.m)
	for row, v := range t.basic {
		col := make([]float64, t.m)
		for r := 0; r < t.m; r++ {
			col[r] = t.a[r][v]
		}
		cols[row] = col
	}
	return t.basis.Refactorize(cols)
}

// Assignment returns the current value assigned to variable v.
func (t *Tableau) Assignment(v int) float64 {
	return t.assignment[v]
}

// SetNonBasicAssignment sets the value of a non-basic variable directly
// (used when fixing a variable at a bound). It does not recompute the basic
// variables; callers follow it with ComputeAssignment.
func (t *Tableau) SetNonBasicAssignment(v int, value float64) {
	t.assignment[v] = value
}

// IsBasic reports whether v is currently basic.
func (t *Tableau) IsBasic(v int) bool {
	_, ok := t.basicRow[v]
	return ok
}

// BasicInRow returns the variable currently basic in the given row.
func (t *Tableau) BasicInRow(row int) int {
	return t.basic[row]
}

// ComputeAssignment recomputes every basic variable's value from the current
// non-basic assignment, x_B = B^-1 (0 - sum_{j non-basic} a_j x_j), per
// spec §4.2's requirement that the assignment always satisfy Ax = 0 exactly
// between pivots (up to numeric tolerance).
func (t *Tableau) ComputeAssignment() error {
	rhs := make([]float64, t.m)
	for row := 0; row < t.m; row++ {
		sum := 0.0
		basicVar := t.basic[row]
		for col := 0; col < t.n; col++ {
			if col == basicVar {
				continue
			}
			if _, isBasic := t.basicRow[col]; isBasic {
				continue
			}
			sum += t.a[row][col] * t.assignment[col]
		}
		rhs[row] = -sum
	}
	x, err := t.basis.SolveForward(rhs)
	if err != nil {
		return err
	}
	for row, v := range t.basic {
		t.assignment[v] = x[row]
	}
	return nil
}

// BasicTooLow reports whether the basic variable in the given row is
// assigned below its lower bound beyond tolerance.
func (t *Tableau) BasicTooLow(row int) bool {
	v := t.basic[row]
	return lt(t.assignment[v], t.bm.Lb(v), t.cfg.SimplexTolerance)
}

// BasicTooHigh reports whether the basic variable in the given row is
// assigned above its upper bound beyond tolerance.
func (t *Tableau) BasicTooHigh(row int) bool {
	v := t.basic[row]
	return gt(t.assignment[v], t.bm.Ub(v), t.cfg.SimplexTolerance)
}

// FindBasicOutOfBounds scans for a row whose basic variable violates its
// bounds, returning (row, true), or (-1, false) if every basic variable is
// within bounds (the LP is feasible).
func (t *Tableau) FindBasicOutOfBounds() (int, bool) {
	for row := 0; row < t.m; row++ {
		if t.BasicTooLow(row) || t.BasicTooHigh(row) {
			return row, true
		}
	}
	return -1, false
}

// ExtractRow computes the row of B^-1*A corresponding to the given basis
// row, as a sparse vector over the non-basic columns (the coefficients a
// pivot's ratio test needs).
func (t *Tableau) ExtractRow(row int) (*SparseVector, error) {
	unit := make([]float64, t.m)
	unit[row] = 1
	y, err := t.basis.SolveBackward(unit)
	if err != nil {
		return nil, err
	}
	out := NewSparseVector()
	for col := 0; col < t.n; col++ {
		if _, isBasic := t.basicRow[col]; isBasic {
			continue
		}
		val := 0.0
		for r := 0; r < t.m; r++ {
			val += y[r] * t.a[r][col]
		}
		if val != 0 {
			out.Set(col, val)
		}
	}
	return out, nil
}

// enteringColumn computes d = B^-1 * a_enter, the entering column expressed
// in the current basis, via FTRAN.
func (t *Tableau) enteringColumn(enter int) ([]float64, error) {
	rhs := make([]float64, t.m)
	for row := 0; row < t.m; row++ {
		rhs[row] = t.a[row][enter]
	}
	return t.basis.SolveForward(rhs)
}

// EnteringColumn exposes enteringColumn for callers (e.g. the SoI
// cost-minimizing pivot) that need the entering column directly rather
// than through a bound-violation ratio test.
func (t *Tableau) EnteringColumn(enter int) ([]float64, error) {
	return t.enteringColumn(enter)
}

// BTRAN computes y such that y^T B = rhs^T for an arbitrary row vector
// rhs (e.g. a cost vector restricted to the current basic variables),
// used to price out reduced costs for every non-basic column at once.
func (t *Tableau) BTRAN(rhs []float64) ([]float64, error) {
	return t.basis.SolveBackward(rhs)
}

// NonBasicColumns returns every column index not currently basic.
func (t *Tableau) NonBasicColumns() []int {
	out := make([]int, 0, t.n-t.m)
	for col := 0; col < t.n; col++ {
		if _, ok := t.basicRow[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

// ColumnDot computes a_col (the column's coefficients down every row)
// dotted against y, i.e. y^T * A_col.
func (t *Tableau) ColumnDot(col int, y []float64) float64 {
	sum := 0.0
	for row := 0; row < t.m; row++ {
		sum += y[row] * t.a[row][col]
	}
	return sum
}

// Pivot performs a basis exchange: `enter` becomes basic in `row`, and the
// variable previously basic there (`leave`) becomes non-basic, pinned at
// `leaveValue` (one of its own bounds, per whatever ratio test selected the
// pivot). Entering variable's value is not set directly — it is, like every
// other basic variable, derived by ComputeAssignment once the leaving
// variable's new non-basic value is in place. An eta update recording the
// exchange is pushed onto the basis factorization.
func (t *Tableau) Pivot(row, enter int, leaveValue float64) error {
	leave := t.basic[row]
	d, err := t.enteringColumn(enter)
	if err != nil {
		return err
	}
	if d[row] == 0 {
		return &MalformedBasis{Reason: fmt.Sprintf("zero pivot element exchanging var %d into row %d", enter, row)}
	}

	delete(t.basicRow, leave)
	t.basic[row] = enter
	t.basicRow[enter] = row

	dv := NewSparseVector()
	for r, val := range d {
		if val != 0 {
			dv.Set(r, val)
		}
	}
	t.basis.PushEtaUpdate(row, dv)

	t.assignment[leave] = leaveValue
	if err := t.ComputeAssignment(); err != nil {
		return err
	}
	if t.cfg.RefactorizationEtaThreshold > 0 && t.basis.ShouldRefactorize(t.cfg) {
		if err := t.refactorizeFromScratch(); err != nil {
			return err
		}
	}
	return nil
}

// Refactorize forces an immediate rebuild of the basis factorization,
// called by the degradation checker after a failed residual check.
func (t *Tableau) Refactorize() error {
	return t.refactorizeFromScratch()
}

// Residual computes ||Ax||∞ over the current assignment, used by the
// degradation checker to decide whether accumulated eta-update error has
// grown unacceptably (spec §4.2/§4.7).
func (t *Tableau) Residual() float64 {
	worst := 0.0
	for row := 0; row < t.m; row++ {
		sum := 0.0
		for col := 0; col < t.n; col++ {
			sum += t.a[row][col] * t.assignment[col]
		}
		if sum < 0 {
			sum = -sum
		}
		if sum > worst {
			worst = sum
		}
	}
	return worst
}

// NumRows returns the number of equations (tableau rows).
func (t *Tableau) NumRows() int { return t.m }

// NumColumns returns the total number of variables, including slacks.
func (t *Tableau) NumColumns() int { return t.n }
