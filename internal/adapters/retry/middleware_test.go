package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halomind/pkg/errors"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string    { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) HTTPStatus() int { return e.code }

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestMiddleware(r *recorder, jitter float64) *Middleware {
	return New(DefaultConfig(),
		WithSleeper(r.sleep),
		WithJitterSource(func() float64 { return jitter }),
	)
}

func TestDo_RetryableStatusesAttemptAtLeastTwice(t *testing.T) {
	for _, code := range []int{429, 500, 503} {
		t.Run(fmt.Sprintf("status_%d", code), func(t *testing.T) {
			rec := &recorder{}
			m := newTestMiddleware(rec, 0.5)
			calls := 0
			want := &statusErr{code: code}

			err := m.Do(context.Background(), func(context.Context) error {
				calls++
				return want
			})

			assert.Same(t, want, err)
			assert.Equal(t, 3, calls)
			require.Len(t, rec.delays, 2)

			base := time.Second
			for i, d := range rec.delays {
				lower := base * time.Duration(1<<i)
				upper := time.Duration(float64(lower) * 1.2)
				assert.GreaterOrEqual(t, d, lower)
				assert.LessOrEqual(t, d, upper)
			}
		})
	}
}

func TestDo_FatalErrorPropagatesAfterOneAttempt(t *testing.T) {
	rec := &recorder{}
	m := newTestMiddleware(rec, 0)
	calls := 0
	want := &statusErr{code: 401}

	err := m.Do(context.Background(), func(context.Context) error {
		calls++
		return want
	})

	assert.Same(t, want, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDoWithResult_SucceedsOnThirdAttempt(t *testing.T) {
	rec := &recorder{}
	m := newTestMiddleware(rec, 0)
	calls := 0

	got, err := DoWithResult(context.Background(), m, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &statusErr{code: 429}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
}

func TestDo_JitterUpperBound(t *testing.T) {
	m := New(DefaultConfig(), WithJitterSource(func() float64 { return 0.999999 }))

	assert.LessOrEqual(t, m.Delay(1), 1200*time.Millisecond)
	assert.GreaterOrEqual(t, m.Delay(2), 2*time.Second)
	assert.LessOrEqual(t, m.Delay(2), 2400*time.Millisecond)
}

func TestDo_CancelledBeforeSleepAborts(t *testing.T) {
	rec := &recorder{}
	m := newTestMiddleware(rec, 0)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := m.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return &statusErr{code: 503}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDo_RealSleeperStopsOnCancel(t *testing.T) {
	m := New(Config{MaxAttempts: 3, InitialDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Do(ctx, func(context.Context) error { return &statusErr{code: 500} })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_OnRetryHook(t *testing.T) {
	var attempts []int
	m := New(DefaultConfig(),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
		WithOnRetry(func(_ context.Context, attempt int, _ time.Duration, _ error) {
			attempts = append(attempts, attempt)
		}),
	)

	_ = m.Do(context.Background(), func(context.Context) error { return &statusErr{code: 502} })

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("429 in the text is not enough")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(errors.Wrap(&statusErr{code: 500}, "wrapped")))
	assert.False(t, IsRetryable(&statusErr{code: 404}))
}
