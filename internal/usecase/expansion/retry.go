package expansion

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
)

// Retry defaults.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// Sleeper waits for d or until ctx is done, returning ctx.Err() in the latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Retrier re-runs AI calls that were rate limited, doubling the wait after each one.
// Any other failure stops immediately.
type Retrier struct {
	Attempts  int
	BaseDelay time.Duration
	Sleep     Sleeper
}

// NewRetrier returns a retrier with the given limits; non-positive values use the defaults.
func NewRetrier(attempts int, baseDelay time.Duration) Retrier {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return Retrier{Attempts: attempts, BaseDelay: baseDelay, Sleep: sleepContext}
}

// Do runs fn until it succeeds, fails with a non rate-limit error, or attempts run out.
// call labels the retry metric.
func (r Retrier) Do(ctx context.Context, call string, fn func(context.Context) (string, error)) (string, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := r.BaseDelay
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for i := range attempts {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, domain.ErrRateLimited) {
			return "", err
		}
		lastErr = err
		if i < attempts-1 {
			metrics.AIRetriesTotal.WithLabelValues(call).Inc()
		}
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
	return "", &ExhaustedError{Attempts: attempts, Last: lastErr}
}

// ExhaustedError reports that every attempt was rate limited.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return "retries exhausted: " + e.Last.Error()
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
