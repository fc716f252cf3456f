package engine

import "math"

// etaMatrix records a single rank-one update to the basis: the column at
// basis row `row` was replaced by the vector `d` (the entering column,
// already expressed in terms of the basis being replaced). d is stored
// sparsely since most ratio-test columns touch few rows in practice.
type etaMatrix struct {
	row int
	d   *SparseVector
}

// Basis maintains a product-form-of-the-inverse factorization of the
// current simplex basis B: a dense LU decomposition of the last fully
// refactorized basis, plus an ordered list of eta matrices recording every
// pivot since. solveForward applies the base LU then each eta in creation
// order (FTRAN); solveBackward applies the etas in reverse order then the
// base LU transpose (BTRAN), per spec §4.2.
type Basis struct {
	m int

	// Dense LU decomposition of the last refactorized basis, with partial
	// pivoting: perm[i] is the row of the original matrix used as pivot row
	// i. lu stores L (unit lower triangular, diagonal implicit) and U
	// (upper triangular) packed into one m x m dense matrix, the usual
	// in-place Doolittle convention.
	lu   [][]float64
	perm []int

	etas []etaMatrix

	refactorizations int
}

// NewBasis constructs a basis of dimension m with no factorization yet;
// Refactorize must be called once before use.
func NewBasis(m int) *Basis {
	return &Basis{m: m}
}

// EtaCount returns the number of eta updates since the last refactorization.
func (b *Basis) EtaCount() int {
	return len(b.etas)
}

// ShouldRefactorize reports whether the eta count has reached the
// configured threshold.
func (b *Basis) ShouldRefactorize(cfg *Config) bool {
	return len(b.etas) >= cfg.RefactorizationEtaThreshold
}

// Refactorize rebuilds the basis factorization from scratch given the m
// dense columns of B (columnsOfB[j] is column j, length m), discarding all
// eta updates. Uses Doolittle LU decomposition with partial pivoting.
func (b *Basis) Refactorize(columnsOfB [][]float64) error {
	invariant(len(columnsOfB) == b.m, "Refactorize: expected %d basis columns, got %d", b.m, len(columnsOfB))
	m := b.m
	a := make([][]float64, m)
	for i := 0; i < m; i++ {
		a[i] = make([]float64, m)
		for j := 0; j < m; j++ {
			a[i][j] = columnsOfB[j][i]
		}
	}
	perm := make([]int, m)
	for i := range perm {
		perm[i] = i
	}

	for k := 0; k < m; k++ {
		// Partial pivot: find the largest |a[i][k]| for i >= k.
		pivotRow := k
		best := math.Abs(a[k][k])
		for i := k + 1; i < m; i++ {
			if v := math.Abs(a[i][k]); v > best {
				best = v
				pivotRow = i
			}
		}
		if best == 0 {
			return &MalformedBasis{Reason: "singular basis matrix during refactorization"}
		}
		if pivotRow != k {
			a[k], a[pivotRow] = a[pivotRow], a[k]
			perm[k], perm[pivotRow] = perm[pivotRow], perm[k]
		}
		for i := k + 1; i < m; i++ {
			factor := a[i][k] / a[k][k]
			a[i][k] = factor
			for j := k + 1; j < m; j++ {
				a[i][j] -= factor * a[k][j]
			}
		}
	}

	b.lu = a
	b.perm = perm
	b.etas = nil
	b.refactorizations++
	return nil
}

// baseSolve solves B0 x = rhs using the stored LU decomposition (FTRAN on
// the base matrix).
func (b *Basis) baseSolve(rhs []float64) ([]float64, error) {
	if b.lu == nil {
		return nil, &MalformedBasis{Reason: "no factorization available"}
	}
	m := b.m
	// Apply permutation: Pb.
	pb := make([]float64, m)
	for i := 0; i < m; i++ {
		pb[i] = rhs[b.perm[i]]
	}
	// Forward substitution, L y = Pb (unit lower triangular).
	y := make([]float64, m)
	for i := 0; i < m; i++ {
		sum := pb[i]
		for j := 0; j < i; j++ {
			sum -= b.lu[i][j] * y[j]
		}
		y[i] = sum
	}
	// Back substitution, U x = y.
	x := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < m; j++ {
			sum -= b.lu[i][j] * x[j]
		}
		if b.lu[i][i] == 0 {
			return nil, &MalformedBasis{Reason: "zero pivot during back substitution"}
		}
		x[i] = sum / b.lu[i][i]
	}
	return x, nil
}

// baseSolveTranspose solves B0^T y = rhs (BTRAN on the base matrix).
func (b *Basis) baseSolveTranspose(rhs []float64) ([]float64, error) {
	if b.lu == nil {
		return nil, &MalformedBasis{Reason: "no factorization available"}
	}
	m := b.m
	// B0 = P^T L U, so B0^T = U^T L^T P. Solve U^T z = rhs, then L^T w = z,
	// then y = P^T w (unpermute).
	z := make([]float64, m)
	for i := 0; i < m; i++ {
		sum := rhs[i]
		for j := 0; j < i; j++ {
			sum -= b.lu[j][i] * z[j]
		}
		if b.lu[i][i] == 0 {
			return nil, &MalformedBasis{Reason: "zero pivot during transpose solve"}
		}
		z[i] = sum / b.lu[i][i]
	}
	w := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < m; j++ {
			sum -= b.lu[j][i] * w[j]
		}
		w[i] = sum
	}
	y := make([]float64, m)
	for i := 0; i < m; i++ {
		y[b.perm[i]] = w[i]
	}
	return y, nil
}

// SolveForward computes x such that B*x = rhs, applying the base LU
// factorization followed by every eta update in creation order (FTRAN).
func (b *Basis) SolveForward(rhs []float64) ([]float64, error) {
	x, err := b.baseSolve(rhs)
	if err != nil {
		return nil, err
	}
	for _, e := range b.etas {
		p := e.d.Get(e.row)
		if p == 0 {
			return nil, &MalformedBasis{Reason: "zero pivot in eta matrix"}
		}
		xr := x[e.row] / p
		for _, entry := range e.d.Entries() {
			if entry.Index != e.row {
				x[entry.Index] -= entry.Value * xr
			}
		}
		x[e.row] = xr
	}
	return x, nil
}

// SolveBackward computes y such that y^T*B = rhs^T (equivalently B^T y =
// rhs), applying the eta updates in reverse order (BTRAN) followed by the
// base LU transpose.
func (b *Basis) SolveBackward(rhs []float64) ([]float64, error) {
	y := make([]float64, len(rhs))
	copy(y, rhs)
	for i := len(b.etas) - 1; i >= 0; i-- {
		e := b.etas[i]
		p := e.d.Get(e.row)
		if p == 0 {
			return nil, &MalformedBasis{Reason: "zero pivot in eta matrix"}
		}
		dotOthers := 0.0
		for _, entry := range e.d.Entries() {
			if entry.Index != e.row {
				dotOthers += entry.Value * y[entry.Index]
			}
		}
		y[e.row] = (y[e.row] - dotOthers) / p
	}
	return b.baseSolveTranspose(y)
}

// PushEtaUpdate records a rank-one update corresponding to replacing the
// column at basis row `row` with the given column values (the entering
// column already expressed in the current basis via SolveForward).
func (b *Basis) PushEtaUpdate(row int, columnValues *SparseVector) {
	b.etas = append(b.etas, etaMatrix{row: row, d: columnValues.Clone()})
}

// Refactorizations returns the number of full refactorizations performed,
// for statistics reporting.
func (b *Basis) Refactorizations() int {
	return b.refactorizations
}
