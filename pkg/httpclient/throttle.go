package httpclient

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledClient delays outbound requests so a single upstream never sees more than the
// configured request rate from this process.
type ThrottledClient struct {
	next    Client
	limiter *rate.Limiter
}

// NewThrottledClient wraps next with a token bucket of rps requests per second. A
// non-positive rps returns next unchanged.
func NewThrottledClient(next Client, rps float64) Client {
	if next == nil || rps <= 0 {
		return next
	}
	return &ThrottledClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Get waits for a token, then delegates. Waiting honours ctx cancellation and deadlines.
func (t *ThrottledClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.Get(ctx, url, headers)
}
