package app

import (
	"context"
	"testing"
	"time"
)

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 350*time.Millisecond)

	bases := []time.Duration{100, 200, 350, 350}
	for i, base := range bases {
		base *= time.Millisecond
		if b.Current() != base {
			t.Fatalf("step %d: Current() = %v, want %v", i, b.Current(), base)
		}
		d := b.Next()
		lo := time.Duration(float64(base) * 0.8)
		hi := time.Duration(float64(base) * 1.2)
		if d < lo || d > hi {
			t.Errorf("step %d: Next() = %v, want within [%v, %v]", i, d, lo, hi)
		}
	}
	if b.Attempt() != 4 {
		t.Errorf("Attempt() = %d, want 4", b.Attempt())
	}

	b.Reset()
	if b.Current() != 100*time.Millisecond || b.Attempt() != 0 {
		t.Errorf("after Reset: Current() = %v, Attempt() = %d", b.Current(), b.Attempt())
	}
}

func TestBackoff_Defaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.Current() != DefaultBackoffInitial {
		t.Errorf("Current() = %v, want %v", b.Current(), DefaultBackoffInitial)
	}
}

func TestBackoff_WaitHonoursContext(t *testing.T) {
	b := NewBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
}
