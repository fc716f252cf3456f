package engine

import "testing"

func newTestBoundManager(n int) (*Context, *BoundManager) {
	ctx := NewContext()
	cfg := DefaultConfig()
	return ctx, NewBoundManager(ctx, cfg, n)
}

func TestBoundManagerInitialBoundsUnbounded(t *testing.T) {
	_, bm := newTestBoundManager(1)
	if bm.Lb(0) != NegInf || bm.Ub(0) != PosInf {
		t.Errorf("expected unbounded initial interval, got [%v, %v]", bm.Lb(0), bm.Ub(0))
	}
}

func TestBoundManagerTightenLowerStrictImprovementOnly(t *testing.T) {
	ctx, bm := newTestBoundManager(1)
	ctx.Push()

	improved, err := bm.TightenLower(0, 5)
	if err != nil || !improved {
		t.Fatalf("expected improvement installing first lower bound, got improved=%v err=%v", improved, err)
	}
	if bm.Lb(0) != 5 {
		t.Errorf("expected lb=5, got %v", bm.Lb(0))
	}

	improved, err = bm.TightenLower(0, 3)
	if err != nil || improved {
		t.Errorf("expected no improvement tightening to a looser bound, got improved=%v err=%v", improved, err)
	}
	if bm.Lb(0) != 5 {
		t.Errorf("expected lb to remain 5, got %v", bm.Lb(0))
	}
}

func TestBoundManagerDetectsInfeasibility(t *testing.T) {
	ctx, bm := newTestBoundManager(1)
	ctx.Push()

	if _, err := bm.TightenUpper(0, 2); err != nil {
		t.Fatalf("unexpected error tightening upper: %v", err)
	}
	_, err := bm.TightenLower(0, 5)
	if err == nil {
		t.Fatalf("expected infeasibility error tightening lower above existing upper bound")
	}
	if _, ok := err.(*Infeasibility); !ok {
		t.Errorf("expected *Infeasibility, got %T", err)
	}
	if bm.Consistent() {
		t.Errorf("expected bound manager to report inconsistent after crossing")
	}
	v, kind, val := bm.Conflict()
	if v != 0 || kind != LowerBound || val != 5 {
		t.Errorf("unexpected conflict record: var=%d kind=%v val=%v", v, kind, val)
	}
}

func TestBoundManagerUndoOnPop(t *testing.T) {
	ctx, bm := newTestBoundManager(1)
	ctx.Push()
	if _, err := bm.TightenLower(0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx.Push()
	if _, err := bm.TightenLower(0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bm.Lb(0) != 10 {
		t.Fatalf("expected lb=10, got %v", bm.Lb(0))
	}

	if err := ctx.Pop(); err != nil {
		t.Fatalf("unexpected error popping: %v", err)
	}
	if bm.Lb(0) != 1 {
		t.Errorf("expected lb restored to 1 after pop, got %v", bm.Lb(0))
	}
}

type recordingWatcher struct {
	lowerCalls int
	upperCalls int
}

func (w *recordingWatcher) OnLowerBound(v int, newVal float64) error {
	w.lowerCalls++
	return nil
}

func (w *recordingWatcher) OnUpperBound(v int, newVal float64) error {
	w.upperCalls++
	return nil
}

func TestBoundManagerNotifiesWatchers(t *testing.T) {
	ctx, bm := newTestBoundManager(1)
	ctx.Push()
	w := &recordingWatcher{}
	bm.Watch(0, w)

	if _, err := bm.TightenLower(0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := bm.TightenUpper(0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.lowerCalls != 1 || w.upperCalls != 1 {
		t.Errorf("expected one lower and one upper notification, got %d/%d", w.lowerCalls, w.upperCalls)
	}
}

func TestBoundManagerGetTighteningsDrainsQueue(t *testing.T) {
	ctx, bm := newTestBoundManager(2)
	ctx.Push()
	if _, err := bm.TightenLower(0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := bm.TightenUpper(1, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tgs := bm.GetTightenings()
	if len(tgs) != 2 {
		t.Fatalf("expected 2 tightenings, got %d", len(tgs))
	}
	if len(bm.GetTightenings()) != 0 {
		t.Errorf("expected queue drained after first read")
	}
}
