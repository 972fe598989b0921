package ratelimit

import (
	"context"
	"time"
)

// Pacer spaces successive operations by a fixed delay. Broadcast jobs
// use it between per-recipient sends so a full-user-base fan-out yields
// control back to the runtime instead of hammering the delivery channel.
//
// The first Wait returns immediately; each subsequent Wait blocks until
// the delay since the previous permitted operation has elapsed, or until
// the context is cancelled.
type Pacer struct {
	delay time.Duration
	last  time.Time
}

// NewPacer creates a Pacer with the given inter-operation delay.
// A non-positive delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks until the pace allows the next operation. It returns the
// context's error if cancelled while waiting, letting callers abandon an
// in-flight batch on shutdown.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	now := time.Now()
	if p.last.IsZero() {
		p.last = now
		return ctx.Err()
	}

	remaining := p.delay - now.Sub(p.last)
	if remaining <= 0 {
		p.last = now
		return ctx.Err()
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		p.last = time.Now()
		return nil
	}
}
