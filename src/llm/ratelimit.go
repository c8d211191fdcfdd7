package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited waits on a token bucket before every call to the wrapped
// client.
type RateLimited struct {
	Client
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst. A
// non-positive rps disables limiting.
func NewRateLimited(c Client, rps float64, burst int) Client {
	if rps <= 0 {
		return c
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Client: c, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.Client.Generate(ctx, req)
}

// WithTimeout bounds each call to d. A zero d returns c unchanged.
func WithTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		return c
	}
	return &timeoutClient{Client: c, d: d}
}

type timeoutClient struct {
	Client
	d time.Duration
}

func (t *timeoutClient) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Client.Generate(ctx, req)
}
