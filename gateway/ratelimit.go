package gateway

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimiter throttles outbound completion requests with a token bucket.
// A nil limiter means unlimited.
type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter creates a limiter allowing requestsPerMin requests per
// minute with a burst of the same size. Zero or less disables limiting.
func newRateLimiter(requestsPerMin int) *rateLimiter {
	rl := &rateLimiter{}
	if requestsPerMin > 0 {
		r := rate.Limit(float64(requestsPerMin) / 60.0)
		rl.limiter = rate.NewLimiter(r, requestsPerMin)
	}
	return rl
}

// wait blocks until a request is allowed or the context is done. It fails
// early when the context deadline would expire before a token is available.
func (rl *rateLimiter) wait(ctx context.Context) error {
	if rl.limiter == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}
