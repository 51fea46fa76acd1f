package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer inserts a randomized pause between consecutive outbound operations.
// It is safe for concurrent use by multiple goroutines.
type Pacer struct {
	min time.Duration
	max time.Duration
}

// NewPacer creates a pacer that sleeps for a uniformly random duration in
// [min, max] on every Wait. If max < min the range collapses to min.
// A zero pacer does not block.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max}
}

// Fixed creates a pacer that always sleeps for d.
func Fixed(d time.Duration) *Pacer {
	return NewPacer(d, d)
}

// Next returns the duration the next Wait would sleep for.
func (p *Pacer) Next() time.Duration {
	if p == nil || p.max <= 0 {
		return 0
	}
	spread := p.max - p.min
	if spread <= 0 {
		return p.min
	}
	return p.min + time.Duration(rand.Int64N(int64(spread)+1))
}

// Wait blocks for the next jittered delay, or until the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
