package engine

import "testing"

func TestBasisIdentitySolveForwardAndBackward(t *testing.T) {
	b := NewBasis(2)
	cols := [][]float64{{1, 0}, {0, 1}}
	if err := b.Refactorize(cols); err != nil {
		t.Fatalf("Refactorize failed: %v", err)
	}

	x, err := b.SolveForward([]float64{3, 5})
	if err != nil {
		t.Fatalf("SolveForward failed: %v", err)
	}
	if x[0] != 3 || x[1] != 5 {
		t.Errorf("expected identity solve to return rhs, got %v", x)
	}

	y, err := b.SolveBackward([]float64{3, 5})
	if err != nil {
		t.Fatalf("SolveBackward failed: %v", err)
	}
	if y[0] != 3 || y[1] != 5 {
		t.Errorf("expected identity transpose solve to return rhs, got %v", y)
	}
}

func TestBasisDiagonalSolve(t *testing.T) {
	b := NewBasis(2)
	cols := [][]float64{{2, 0}, {0, 3}}
	if err := b.Refactorize(cols); err != nil {
		t.Fatalf("Refactorize failed: %v", err)
	}

	x, err := b.SolveForward([]float64{4, 9})
	if err != nil {
		t.Fatalf("SolveForward failed: %v", err)
	}
	if !eq(x[0], 2, 1e-9) || !eq(x[1], 3, 1e-9) {
		t.Errorf("expected [2,3], got %v", x)
	}
}

func TestBasisEtaUpdateForwardAndBackward(t *testing.T) {
	b := NewBasis(2)
	cols := [][]float64{{1, 0}, {0, 1}}
	if err := b.Refactorize(cols); err != nil {
		t.Fatalf("Refactorize failed: %v", err)
	}

	d := NewSparseVectorFromMap(map[int]float64{0: 2, 1: 0})
	b.PushEtaUpdate(0, d)
	if b.EtaCount() != 1 {
		t.Fatalf("expected 1 eta update, got %d", b.EtaCount())
	}

	x, err := b.SolveForward([]float64{4, 0})
	if err != nil {
		t.Fatalf("SolveForward failed: %v", err)
	}
	if !eq(x[0], 2, 1e-9) || !eq(x[1], 0, 1e-9) {
		t.Errorf("expected [2,0], got %v", x)
	}

	y, err := b.SolveBackward([]float64{4, 0})
	if err != nil {
		t.Fatalf("SolveBackward failed: %v", err)
	}
	if !eq(y[0], 2, 1e-9) || !eq(y[1], 0, 1e-9) {
		t.Errorf("expected [2,0], got %v", y)
	}
}

func TestBasisRefactorizeClearsEtas(t *testing.T) {
	b := NewBasis(2)
	cols := [][]float64{{1, 0}, {0, 1}}
	if err := b.Refactorize(cols); err != nil {
		t.Fatalf("Refactorize failed: %v", err)
	}
	b.PushEtaUpdate(0, NewSparseVectorFromMap(map[int]float64{0: 1}))
	if b.EtaCount() != 1 {
		t.Fatalf("expected 1 eta update before refactorize")
	}
	if err := b.Refactorize(cols); err != nil {
		t.Fatalf("Refactorize failed: %v", err)
	}
	if b.EtaCount() != 0 {
		t.Errorf("expected refactorize to clear eta updates, got %d", b.EtaCount())
	}
	if b.Refactorizations() != 2 {
		t.Errorf("expected 2 refactorizations recorded, got %d", b.Refactorizations())
	}
}

func TestBasisSingularMatrixReturnsError(t *testing.T) {
	b := NewBasis(2)
	cols := [][]float64{{0, 0}, {0, 1}}
	if err := b.Refactorize(cols); err == nil {
		t.Errorf("expected error refactorizing a singular matrix")
	}
}
