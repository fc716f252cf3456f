package engine

import "testing"

func TestTableauComputeAssignmentSingleRow(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 2)
	bm.SetInitialBounds(0, 2, 2)
	bm.SetInitialBounds(1, NegInf, PosInf)

	tab := NewTableau(bm, cfg, 1, 2)
	tab.SetEntry(0, 0, 1)
	tab.SetEntry(0, 1, -1)
	if err := tab.SetInitialBasis([]int{1}); err != nil {
		t.Fatalf("SetInitialBasis failed: %v", err)
	}

	tab.SetNonBasicAssignment(0, 2)
	if err := tab.ComputeAssignment(); err != nil {
		t.Fatalf("ComputeAssignment failed: %v", err)
	}
	if !eq(tab.Assignment(1), 2, 1e-9) {
		t.Errorf("expected x1 == 2 (== x0), got %v", tab.Assignment(1))
	}
}

func TestTableauPivotRestoresFeasibility(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 3)
	bm.SetInitialBounds(0, 0, 10) // x0
	bm.SetInitialBounds(1, 0, 10) // x1
	bm.SetInitialBounds(2, 0, 5)  // x2 (slack), bound violated once computed

	tab := NewTableau(bm, cfg, 1, 3)
	tab.SetEntry(0, 0, 1)
	tab.SetEntry(0, 1, 1)
	tab.SetEntry(0, 2, -1)
	if err := tab.SetInitialBasis([]int{2}); err != nil {
		t.Fatalf("SetInitialBasis failed: %v", err)
	}

	tab.SetNonBasicAssignment(0, 3)
	tab.SetNonBasicAssignment(1, 4)
	if err := tab.ComputeAssignment(); err != nil {
		t.Fatalf("ComputeAssignment failed: %v", err)
	}
	if !tab.BasicTooHigh(0) {
		t.Fatalf("expected x2 = %v to violate its upper bound of 5", tab.Assignment(2))
	}

	row, found := tab.FindBasicOutOfBounds()
	if !found || row != 0 {
		t.Fatalf("expected row 0 to be out of bounds, got row=%d found=%v", row, found)
	}

	rule := RuleFor(Dantzig)
	rowVec, err := tab.ExtractRow(row)
	if err != nil {
		t.Fatalf("ExtractRow failed: %v", err)
	}
	enter, ok := rule.Pick(rowVec, -1, tab, bm, cfg.SimplexTolerance)
	if !ok {
		t.Fatalf("expected an eligible entering variable")
	}

	if err := tab.Pivot(row, enter, bm.Ub(2)); err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}

	if tab.BasicTooHigh(0) || tab.BasicTooLow(0) {
		t.Errorf("expected row feasible after pivot, x%d = %v", tab.BasicInRow(0), tab.Assignment(tab.BasicInRow(0)))
	}
	if !eq(tab.Assignment(2), 5, 1e-9) {
		t.Errorf("expected x2 pinned at its upper bound 5, got %v", tab.Assignment(2))
	}

	residual := tab.Residual()
	if residual > 1e-9 {
		t.Errorf("expected near-zero residual after pivot, got %v", residual)
	}
}

func TestTableauResidualZeroAtConsistentAssignment(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 2)
	tab := NewTableau(bm, cfg, 1, 2)
	tab.SetEntry(0, 0, 2)
	tab.SetEntry(0, 1, -1)
	if err := tab.SetInitialBasis([]int{1}); err != nil {
		t.Fatalf("SetInitialBasis failed: %v", err)
	}
	tab.SetNonBasicAssignment(0, 3)
	if err := tab.ComputeAssignment(); err != nil {
		t.Fatalf("ComputeAssignment failed: %v", err)
	}
	if r := tab.Residual(); r > 1e-9 {
		t.Errorf("expected residual ~0, got %v", r)
	}
}
