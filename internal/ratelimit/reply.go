package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// DropRecorder counts replies the limiter gave up on.
type DropRecorder interface {
	RecordRateLimiterDrop(limiterType string)
}

// ReplyLimiter bounds the outbound reply rate of the whole process. LINE
// reply tokens expire shortly after the event, so waiting is capped by maxWait.
type ReplyLimiter struct {
	limiter *Limiter
	maxWait time.Duration
	metrics DropRecorder
}

// NewReplyLimiter allows rps replies per second with a one-second burst.
// A nil recorder disables drop metrics.
func NewReplyLimiter(rps float64, maxWait time.Duration, metrics DropRecorder) *ReplyLimiter {
	if rps <= 0 {
		rps = 1
	}
	return &ReplyLimiter{
		limiter: New(rps, rps),
		maxWait: maxWait,
		metrics: metrics,
	}
}

// Acquire waits for a reply slot. It fails when ctx ends or maxWait elapses
// first; the reply should then be dropped.
func (r *ReplyLimiter) Acquire(ctx context.Context) error {
	if r.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.maxWait)
		defer cancel()
	}
	if err := r.limiter.Wait(ctx); err != nil {
		if r.metrics != nil {
			r.metrics.RecordRateLimiterDrop("global")
		}
		return fmt.Errorf("ratelimit: reply dropped: %w", err)
	}
	return nil
}
