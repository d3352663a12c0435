package ai

import (
	"context"
	"time"

	"halomind/internal/adapters/ratelimit"
	"halomind/internal/adapters/retry"
	"halomind/internal/metrics"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

// Resilience applies the retry policy to the primary provider and governs
// the single fallback attempt.
type Resilience struct {
	retryConfig     retry.Config
	retryOpts       []retry.Option
	limiter         *ratelimit.Limiter
	fallbackEnabled bool
	tracker         errors.Tracker
	log             *logger.Logger
}

// ResilienceOption customizes Resilience
type ResilienceOption func(*Resilience)

// WithRetryOptions passes options (sleeper, jitter source) to every retry run
func WithRetryOptions(opts ...retry.Option) ResilienceOption {
	return func(r *Resilience) { r.retryOpts = append(r.retryOpts, opts...) }
}

// WithPrimaryLimiter throttles primary attempts
func WithPrimaryLimiter(l *ratelimit.Limiter) ResilienceOption {
	return func(r *Resilience) { r.limiter = l }
}

// WithFallbackEnabled toggles the fallback path
func WithFallbackEnabled(enabled bool) ResilienceOption {
	return func(r *Resilience) { r.fallbackEnabled = enabled }
}

// WithErrorTracker records provider failures as breadcrumbs
func WithErrorTracker(t errors.Tracker) ResilienceOption {
	return func(r *Resilience) { r.tracker = t }
}

// NewResilience creates the retry/fallback policy
func NewResilience(cfg retry.Config, log *logger.Logger, opts ...ResilienceOption) *Resilience {
	r := &Resilience{
		retryConfig:     cfg,
		fallbackEnabled: true,
		log:             log.With("component", "resilience"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resilience) middleware(op OperationKind) *retry.Middleware {
	opts := append([]retry.Option{
		retry.WithClassifier(IsRetryable),
		retry.WithOnRetry(func(ctx context.Context, attempt int, delay time.Duration, err error) {
			metrics.RecordRetry(string(op))
			r.log.Warnw("primary call failed, retrying",
				"operation", op,
				"attempt", attempt,
				"max_attempts", r.retryConfig.MaxAttempts,
				"delay", delay.Round(time.Millisecond),
				"error", err,
			)
		}),
	}, r.retryOpts...)
	return retry.New(r.retryConfig, opts...)
}

// attempt runs one provider call, classifying its error and recording metrics
func attempt[T any](ctx context.Context, r *Resilience, provider ProviderName, op OperationKind, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if provider == ProviderGemini && r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return zero, Classify(provider, err)
		}
	}

	start := time.Now()
	out, err := call(ctx)
	err = Classify(provider, attemptTimeout(ctx, provider, err))
	metrics.RecordProviderCall(provider.String(), string(op), time.Since(start), err)

	if err != nil {
		kind := KindOf(err)
		metrics.RecordProviderError(provider.String(), string(kind))
		if r.tracker != nil {
			r.tracker.AddBreadcrumb(ctx, "provider call failed", "ai", errors.LevelWarning, map[string]interface{}{
				"provider":  provider.String(),
				"operation": string(op),
				"kind":      string(kind),
			})
		}
		return zero, err
	}
	return out, nil
}

// attemptTimeout labels a deadline hit while the caller is still waiting as
// a server timeout: the per-attempt bound fired, so the call may be retried
// and may fall back. Only the caller's own cancellation stays KindCanceled.
func attemptTimeout(ctx context.Context, provider ProviderName, err error) error {
	if err == nil || ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ProviderError{
		Provider: provider,
		Kind:     KindServer,
		Message:  "attempt timed out",
		Err:      errors.Wrap(errors.ErrTimeout, err.Error()),
	}
}

// skipsFallback reports primary failures for which the fallback must not run
func skipsFallback(err error) bool {
	switch KindOf(err) {
	case KindAuthentication, KindCanceled:
		return true
	}
	return false
}

// WithFallback runs primary under the retry policy and, if it still fails,
// calls fallback exactly once. When both fail the primary's error is
// returned; the fallback's error is only logged.
func WithFallback[T any](ctx context.Context, r *Resilience, op OperationKind, primary, fallback func(ctx context.Context) (T, error)) (T, error) {
	out, primaryErr := PrimaryOnly(ctx, r, op, primary)
	if primaryErr == nil {
		return out, nil
	}

	var zero T
	if fallback == nil || !r.fallbackEnabled || !op.SupportsFallback() || skipsFallback(primaryErr) || ctx.Err() != nil {
		metrics.RecordFallback(string(op), "skipped")
		return zero, primaryErr
	}

	r.log.Warnw("primary provider failed after all retries, attempting fallback",
		"operation", op,
		"error", primaryErr,
	)

	out, fallbackErr := attempt(ctx, r, ProviderOpenRouter, op, fallback)
	if fallbackErr != nil {
		metrics.RecordFallback(string(op), "error")
		r.log.Errorw("fallback provider also failed",
			"operation", op,
			"primary_error", primaryErr.Error(),
			"error", fallbackErr,
		)
		return zero, primaryErr
	}

	metrics.RecordFallback(string(op), "success")
	r.log.Infow("fallback call succeeded", "operation", op)
	return out, nil
}

// PrimaryOnly runs primary under the retry policy with no fallback path
func PrimaryOnly[T any](ctx context.Context, r *Resilience, op OperationKind, primary func(ctx context.Context) (T, error)) (T, error) {
	return retry.DoWithResult(ctx, r.middleware(op), func(ctx context.Context) (T, error) {
		return attempt(ctx, r, ProviderGemini, op, primary)
	})
}
