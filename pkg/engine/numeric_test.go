package engine

import "testing"

func TestToleranceHelpers(t *testing.T) {
	tol := 1e-6
	if !eq(1.0, 1.0000001, tol) {
		t.Errorf("expected 1.0 == 1.0000001 within tolerance")
	}
	if gt(1.0, 1.0000001, tol) {
		t.Errorf("expected 1.0 not strictly greater than 1.0000001 within tolerance")
	}
	if !gt(2.0, 1.0, tol) {
		t.Errorf("expected 2.0 strictly greater than 1.0")
	}
	if !leq(1.0, 1.0, tol) || !geq(1.0, 1.0, tol) {
		t.Errorf("expected equal values to satisfy both leq and geq")
	}
}

func TestSparseVectorSetGet(t *testing.T) {
	v := NewSparseVector()
	v.Set(3, 2.0)
	v.Set(1, -1.0)
	v.Set(7, 0) // no-op, never inserted

	if v.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", v.Len())
	}
	if v.Get(3) != 2.0 || v.Get(1) != -1.0 {
		t.Errorf("unexpected values after Set")
	}
	if v.Get(42) != 0 {
		t.Errorf("expected missing index to read as 0")
	}

	entries := v.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Index >= entries[i].Index {
			t.Errorf("entries not sorted by index: %v", entries)
		}
	}

	v.Set(3, 0) // removes
	if v.Len() != 1 {
		t.Errorf("expected Set to 0 to remove the entry, got len %d", v.Len())
	}
}

func TestSparseVectorDotAndAxpy(t *testing.T) {
	v := NewSparseVectorFromMap(map[int]float64{0: 2, 2: 3})
	dense := []float64{1, 10, 1}
	if got := v.DotDense(dense); got != 2*1+3*1 {
		t.Errorf("DotDense = %v, want %v", got, 2*1+3*1)
	}

	acc := []float64{0, 0, 0}
	v.AxpyInto(2.0, acc)
	if acc[0] != 4 || acc[2] != 6 || acc[1] != 0 {
		t.Errorf("AxpyInto produced %v", acc)
	}
}

func TestSparseVectorClone(t *testing.T) {
	v := NewSparseVectorFromMap(map[int]float64{0: 1})
	c := v.Clone()
	c.Set(0, 99)
	if v.Get(0) != 1 {
		t.Errorf("mutating clone affected original")
	}
}
