package remote

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedTransport wraps a Transport with a client-side request budget.
// The published API throttles aggressive callers; pacing requests here keeps
// season fan-outs inside that budget.
type RateLimitedTransport struct {
	next    Transport
	limiter *rate.Limiter
}

// NewRateLimitedTransport allows rps requests per second with the given
// burst. rps <= 0 disables pacing.
func NewRateLimitedTransport(next Transport, rps float64, burst int) *RateLimitedTransport {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &RateLimitedTransport{next: next, limiter: limiter}
}

func (t *RateLimitedTransport) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Probe implements Transport.
func (t *RateLimitedTransport) Probe(ctx context.Context, ref string) (string, error) {
	if err := t.wait(ctx); err != nil {
		return "", err
	}
	return t.next.Probe(ctx, ref)
}

// Fetch implements Transport.
func (t *RateLimitedTransport) Fetch(ctx context.Context, ref, ifNoneMatch string) (*Result, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Fetch(ctx, ref, ifNoneMatch)
}
