package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"halomind/pkg/errors"
)

// Limiter throttles outbound provider calls
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a token-bucket limiter allowing rps steady requests per second with the given burst
func NewLimiter(name string, rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Unlimited returns a limiter that never blocks
func Unlimited(name string) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Inf, 1),
		name:    name,
	}
}

// Name identifies the limiter in logs
func (l *Limiter) Name() string {
	return l.name
}

// Wait blocks until the rate limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
