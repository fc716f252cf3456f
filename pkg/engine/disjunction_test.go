package engine

import "testing"

func TestDisjunctionSatisfiedByEitherCase(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 1)
	bm.SetInitialBounds(0, NegInf, PosInf)
	tab := NewTableau(bm, cfg, 0, 1)

	cases := []DisjunctionCase{
		{Tightenings: []Tightening{{Variable: 0, Value: 10, Kind: LowerBound}}},
		{Tightenings: []Tightening{{Variable: 0, Value: -10, Kind: UpperBound}}},
	}
	d := NewDisjunctionConstraint([]int{0}, cases)

	tab.SetNonBasicAssignment(0, 20)
	if !d.Satisfied(tab) {
		t.Errorf("expected first case (x >= 10) to be satisfied at x=20")
	}

	tab.SetNonBasicAssignment(0, -20)
	if !d.Satisfied(tab) {
		t.Errorf("expected second case (x <= -10) to be satisfied at x=-20")
	}

	tab.SetNonBasicAssignment(0, 0)
	if d.Satisfied(tab) {
		t.Errorf("expected neither case satisfied at x=0")
	}
}

func TestDisjunctionEliminatesImpossibleCase(t *testing.T) {
	ctx := NewContext()
	cfg := DefaultConfig()
	bm := NewBoundManager(ctx, cfg, 1)
	bm.SetInitialBounds(0, 0, 5) // x in [0,5] rules out x <= -10

	cases := []DisjunctionCase{
		{Tightenings: []Tightening{{Variable: 0, Value: 10, Kind: LowerBound}}},
		{Tightenings: []Tightening{{Variable: 0, Value: -10, Kind: UpperBound}}},
	}
	d := NewDisjunctionConstraint([]int{0}, cases)
	d.Register(bm)

	fixes := d.PossibleFixes()
	if len(fixes) != 0 {
		t.Errorf("expected both cases eliminated (neither reachable from [0,5]), got %v", fixes)
	}
}

func TestDisjunctionCloneIsIndependent(t *testing.T) {
	cases := []DisjunctionCase{
		{Tightenings: []Tightening{{Variable: 0, Value: 1, Kind: LowerBound}}},
	}
	d := NewDisjunctionConstraint([]int{0}, cases)
	clone := d.Clone().(*DisjunctionConstraint)
	clone.cases[0].Tightenings[0].Value = 99
	if d.cases[0].Tightenings[0].Value != 1 {
		t.Errorf("expected clone mutation not to affect original")
	}
}
