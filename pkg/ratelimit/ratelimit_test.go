package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPacer_NoBlockWhenZero(t *testing.T) {
	pacer := NewPacer(0, 0)

	start := time.Now()
	err := pacer.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("zero pacer should not block")
	}
}

func TestPacer_NilDoesNotBlock(t *testing.T) {
	var pacer *Pacer
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPacer_Wait(t *testing.T) {
	pacer := Fixed(100 * time.Millisecond)

	start := time.Now()
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	duration := time.Since(start)
	if duration < 90*time.Millisecond || duration > 250*time.Millisecond {
		t.Errorf("expected wait around 100ms, took %v", duration)
	}
}

func TestPacer_NextWithinRange(t *testing.T) {
	pacer := NewPacer(1500*time.Millisecond, 3500*time.Millisecond)
	for i := 0; i < 200; i++ {
		d := pacer.Next()
		if d < 1500*time.Millisecond || d > 3500*time.Millisecond {
			t.Fatalf("delay %v out of range", d)
		}
	}
}

func TestPacer_InvertedRangeCollapses(t *testing.T) {
	pacer := NewPacer(50*time.Millisecond, 10*time.Millisecond)
	if d := pacer.Next(); d != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", d)
	}
}

func TestPacer_ContextCancellation(t *testing.T) {
	pacer := Fixed(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pacer.Wait(ctx)
	if err == nil {
		t.Fatalf("expected context canceled error")
	}
}
