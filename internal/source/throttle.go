package source

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum inter-request delay for one source instance.
// A size-1 token bucket: the first call passes immediately, later calls
// wait out the remainder of the interval.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle with the given minimum delay between
// requests. A zero or negative delay disables pacing.
func NewThrottle(minDelay time.Duration) *Throttle {
	if minDelay <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(minDelay), 1)}
}

// Wait blocks until the source may issue its next request or the context
// is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
