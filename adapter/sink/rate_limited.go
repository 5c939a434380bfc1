package sink

import (
	"context"

	"golang.org/x/time/rate"

	"http-sniffer/domain/port"
)

// RateLimited forwards traces to next at most rps times per second.
// Traces above the rate are dropped with port.ErrTraceDropped.
type RateLimited struct {
	next    port.Sink
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a token bucket of rps and burst.
func NewRateLimited(next port.Sink, rps float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Emit(ctx context.Context, trace port.Trace) error {
	if !r.limiter.Allow() {
		return port.ErrTraceDropped
	}
	return r.next.Emit(ctx, trace)
}
