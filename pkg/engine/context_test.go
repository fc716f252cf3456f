package engine

import "testing"

func TestContextPushPopRestoresValue(t *testing.T) {
	ctx := NewContext()
	cell := 1

	ctx.Push()
	old := cell
	cell = 2
	ctx.Record(func() { cell = old })

	if cell != 2 {
		t.Fatalf("expected cell == 2 after mutation, got %d", cell)
	}
	if err := ctx.Pop(); err != nil {
		t.Fatalf("Pop returned error: %v", err)
	}
	if cell != 1 {
		t.Errorf("expected cell restored to 1, got %d", cell)
	}
	if ctx.Level() != 0 {
		t.Errorf("expected level 0 after pop, got %d", ctx.Level())
	}
}

func TestContextNestedPopTo(t *testing.T) {
	ctx := NewContext()
	cell := 0

	for i := 1; i <= 3; i++ {
		ctx.Push()
		old := cell
		cell = i
		ctx.Record(func() { cell = old })
	}
	if cell != 3 || ctx.Level() != 3 {
		t.Fatalf("unexpected state before PopTo: cell=%d level=%d", cell, ctx.Level())
	}

	if err := ctx.PopTo(1); err != nil {
		t.Fatalf("PopTo returned error: %v", err)
	}
	if ctx.Level() != 1 {
		t.Errorf("expected level 1, got %d", ctx.Level())
	}
	if cell != 1 {
		t.Errorf("expected cell restored to 1, got %d", cell)
	}
}

func TestContextPopEmptyReturnsError(t *testing.T) {
	ctx := NewContext()
	if err := ctx.Pop(); err != ErrEmptyDecisionStack {
		t.Errorf("expected ErrEmptyDecisionStack, got %v", err)
	}
}

func TestContextTrailLengthResetsOnPop(t *testing.T) {
	ctx := NewContext()
	ctx.Push()
	ctx.Record(func() {})
	ctx.Record(func() {})
	if ctx.TrailLength() != 2 {
		t.Fatalf("expected trail length 2, got %d", ctx.TrailLength())
	}
	_ = ctx.Pop()
	if ctx.TrailLength() != 0 {
		t.Errorf("expected trail length 0 after pop, got %d", ctx.TrailLength())
	}
}
