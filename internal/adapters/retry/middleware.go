package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"halomind/pkg/errors"
)

// Config contains retry configuration
type Config struct {
	MaxAttempts    int           // total attempts including the first call
	InitialDelay   time.Duration // wait before the second attempt
	Multiplier     float64       // exponential growth factor
	JitterFraction float64       // extra random wait, as a fraction of the computed delay
}

// DefaultConfig returns the policy used for primary provider calls
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// Classifier reports whether an error is worth another attempt
type Classifier func(error) bool

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryHook observes a scheduled retry; attempt is the 1-based attempt that just failed
type RetryHook func(ctx context.Context, attempt int, delay time.Duration, err error)

// Option customizes a Middleware
type Option func(*Middleware)

// WithClassifier replaces the default retryable-error check
func WithClassifier(c Classifier) Option {
	return func(m *Middleware) { m.retryable = c }
}

// WithSleeper replaces the timer-based wait
func WithSleeper(s Sleeper) Option {
	return func(m *Middleware) { m.sleep = s }
}

// WithJitterSource replaces the uniform [0,1) random source used for jitter
func WithJitterSource(f func() float64) Option {
	return func(m *Middleware) { m.random = f }
}

// WithOnRetry registers a hook invoked before every wait
func WithOnRetry(h RetryHook) Option {
	return func(m *Middleware) { m.onRetry = h }
}

// Middleware provides retry functionality with exponential backoff and jitter
type Middleware struct {
	config    Config
	retryable Classifier
	sleep     Sleeper
	random    func() float64
	onRetry   RetryHook
}

// New creates a new retry middleware
func New(config Config, opts ...Option) *Middleware {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.JitterFraction < 0 {
		config.JitterFraction = 0
	}

	m := &Middleware{
		config:    config,
		retryable: IsRetryable,
		sleep:     sleepContext,
		random:    rand.Float64,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the effective configuration
func (m *Middleware) Config() Config {
	return m.config
}

// Do executes fn with retry logic. The last error is returned as is.
func (m *Middleware) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, m, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithResult executes fn with retry logic and returns its result.
// Attempts are strictly sequential; fatal errors and the error of the final
// attempt are returned unchanged so callers can compare them by identity.
func DoWithResult[T any](ctx context.Context, m *Middleware, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		if !m.retryable(err) || attempt >= m.config.MaxAttempts {
			return zero, err
		}

		if ctx.Err() != nil {
			return zero, errors.Wrap(ctx.Err(), "retry cancelled")
		}

		delay := m.Delay(attempt)
		if m.onRetry != nil {
			m.onRetry(ctx, attempt, delay, err)
		}

		if serr := m.sleep(ctx, delay); serr != nil {
			return zero, errors.Wrap(serr, "retry cancelled")
		}
	}
}

// Delay computes the wait after the given failed attempt (1-based):
// InitialDelay * Multiplier^(attempt-1), plus up to JitterFraction of that value.
func (m *Middleware) Delay(attempt int) time.Duration {
	base := float64(m.config.InitialDelay) * math.Pow(m.config.Multiplier, float64(attempt-1))
	jitter := base * m.config.JitterFraction * m.random()
	return time.Duration(base + jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRetryable is the default classifier: errors exposing Retryable() decide for
// themselves, errors exposing an HTTP status retry on 429 and 5xx.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var classified interface{ Retryable() bool }
	if errors.As(err, &classified) {
		return classified.Retryable()
	}

	var httpErr interface{ HTTPStatus() int }
	if errors.As(err, &httpErr) {
		code := httpErr.HTTPStatus()
		return code == http.StatusTooManyRequests || code >= 500
	}

	return false
}
