package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPacerFirstWaitIsImmediate(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Second)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait took %v, want immediate", elapsed)
	}
}

func TestPacerSpacesCalls(t *testing.T) {
	t.Parallel()

	delay := 50 * time.Millisecond
	p := NewPacer(delay)

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < delay/2 {
		t.Errorf("second Wait returned after %v, want at least %v", elapsed, delay)
	}
}

func TestPacerZeroDelayNeverBlocks(t *testing.T) {
	t.Parallel()

	p := NewPacer(0)
	for i := 0; i < 100; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
}

func TestPacerCancelledContext(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	cancel()
	if err := p.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait() after cancel = %v, want context.Canceled", err)
	}
}
