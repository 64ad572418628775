// Package retry runs fallible operations under a bounded exponential backoff policy.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// maxInterval only needs to sit above any delay a policy can reach.
const maxInterval = 24 * time.Hour

// Policy bounds a retried operation.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 mean 1.
	MaxAttempts int
	// BaseDelay precedes the first retry. Retry k waits BaseDelay*2^(k-1).
	BaseDelay time.Duration
	// MaxTotalTime caps the time spent across attempts and waits. Zero disables the cap.
	MaxTotalTime time.Duration
	// PerAttemptTimeout bounds a single call. Zero leaves it to the caller's context.
	PerAttemptTimeout time.Duration
	// Retryable selects the errors worth repeating. Nil uses apperror.IsRetryable.
	Retryable func(error) bool
}

// DefaultPolicy suits public HTTP price APIs.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		BaseDelay:         250 * time.Millisecond,
		MaxTotalTime:      4 * time.Second,
		PerAttemptTimeout: 3 * time.Second,
		Retryable:         apperror.IsRetryable,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Retryable == nil {
		p.Retryable = apperror.IsRetryable
	}
	return p
}

// Do calls op until it succeeds or the policy gives up. Giving up returns a
// CodeRetryExhausted error wrapping the last failure.
//
// When the next wait would reach MaxTotalTime, the final attempt is taken
// immediately instead. Once the budget is spent no new attempt starts, so the
// total never exceeds MaxTotalTime plus one in-flight call.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	p = p.normalized()

	start := time.Now()
	schedule := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxInterval,
	}
	schedule.Reset()

	final := false
	for attempt := 1; ; attempt++ {
		res, err := call(ctx, p.PerAttemptTimeout, op)
		if err == nil {
			return res, nil
		}

		switch {
		case ctx.Err() != nil:
			return zero, exhausted(attempt, "context done", err)
		case !p.Retryable(err):
			return zero, exhausted(attempt, "not retryable", err)
		case final || attempt >= p.MaxAttempts:
			return zero, exhausted(attempt, "attempts used", err)
		}

		delay := schedule.NextBackOff()
		if p.MaxTotalTime > 0 {
			remaining := p.MaxTotalTime - time.Since(start)
			if remaining <= 0 {
				return zero, exhausted(attempt, "time budget spent", err)
			}
			if delay >= remaining {
				delay = 0
				final = true
			}
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, exhausted(attempt, "context done", err)
		}
	}
}

func call[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

func sleep(ctx context.Context, d time.Duration) error {
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

func exhausted(attempts int, reason string, cause error) error {
	return apperror.New(apperror.CodeRetryExhausted,
		apperror.WithContext(fmt.Sprintf("%s after %d attempt(s)", reason, attempts)),
		apperror.WithCause(cause))
}
