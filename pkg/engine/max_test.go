package engine

import "testing"

func TestMaxEliminatesDominatedArguments(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 4)
	bm.SetInitialBounds(0, 0, 1)  // arg0
	bm.SetInitialBounds(1, 5, 10) // arg1, always beats arg0 and arg2
	bm.SetInitialBounds(2, -3, 2) // arg2
	bm.SetInitialBounds(3, NegInf, PosInf)

	c := NewMaxConstraint([]int{0, 1, 2}, 3)
	c.Register(bm)

	phase, fixed := c.PhaseFixed()
	if !fixed || phase != Phase(1) {
		t.Fatalf("expected arg1 forced as the max, got phase=%v fixed=%v", phase, fixed)
	}
}

func TestMaxUnfixedWithOverlappingRanges(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 3)
	bm.SetInitialBounds(0, 0, 10)
	bm.SetInitialBounds(1, 0, 10)
	bm.SetInitialBounds(2, NegInf, PosInf)

	c := NewMaxConstraint([]int{0, 1}, 2)
	c.Register(bm)
	if _, fixed := c.PhaseFixed(); fixed {
		t.Errorf("expected both arguments still possible with overlapping ranges")
	}
	if len(c.PossibleFixes()) != 2 {
		t.Errorf("expected 2 possible fixes, got %v", c.PossibleFixes())
	}
}

func TestMaxSatisfiedAndCost(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 3)
	bm.SetInitialBounds(0, NegInf, PosInf)
	bm.SetInitialBounds(1, NegInf, PosInf)
	bm.SetInitialBounds(2, NegInf, PosInf)
	tab := NewTableau(bm, cfg, 0, 3)

	c := NewMaxConstraint([]int{0, 1}, 2)
	tab.SetNonBasicAssignment(0, 3)
	tab.SetNonBasicAssignment(1, 7)
	tab.SetNonBasicAssignment(2, 7)
	if !c.Satisfied(tab) {
		t.Errorf("expected max(3,7) == 7 to be satisfied")
	}

	tab.SetNonBasicAssignment(2, 2)
	if c.Satisfied(tab) {
		t.Errorf("expected max(3,7) == 2 to be violated")
	}
	if cost := c.CostComponent(tab); !eq(cost, 5, 1e-9) {
		t.Errorf("expected cost 5, got %v", cost)
	}
}
