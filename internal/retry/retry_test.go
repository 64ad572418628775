package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

func transientErr() error {
	return apperror.New(apperror.CodeVenueServerError)
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	var calls atomic.Int32
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	got, err := Do(context.Background(), p, func(context.Context) (float64, error) {
		if calls.Add(1) < 3 {
			return 0, transientErr()
		}
		return 101.5, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 101.5 {
		t.Errorf("got %v, want 101.5", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, apperror.FromStatus(400, "bad mint")
	})

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if apperror.GetCode(err) != apperror.CodeRetryExhausted {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeRetryExhausted)
	}
	if !apperror.HasCode(err, apperror.CodeVenueClientError) {
		t.Error("exhausted error must keep the original cause")
	}
}

func TestDo_RateLimitIsRetried(t *testing.T) {
	var calls atomic.Int32
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, apperror.FromStatus(429, "price api")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestDo_BackoffDoubles(t *testing.T) {
	var stamps []time.Time
	p := Policy{MaxAttempts: 4, BaseDelay: 20 * time.Millisecond}

	_, _ = Do(context.Background(), p, func(context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, transientErr()
	})

	if len(stamps) != 4 {
		t.Fatalf("attempts = %d, want 4", len(stamps))
	}
	want := []time.Duration{20 * time.Millisecond, 40 * time.Millisecond, 80 * time.Millisecond}
	for i, w := range want {
		gap := stamps[i+1].Sub(stamps[i])
		if gap < w {
			t.Errorf("gap before retry %d = %v, want >= %v", i+1, gap, w)
		}
	}
}

func TestDo_TotalTimeBound(t *testing.T) {
	const (
		maxTotal = 50 * time.Millisecond
		opTime   = 5 * time.Millisecond
		slack    = 25 * time.Millisecond
	)
	var calls atomic.Int32
	p := Policy{MaxAttempts: 10, BaseDelay: 30 * time.Millisecond, MaxTotalTime: maxTotal}

	start := time.Now()
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls.Add(1)
		time.Sleep(opTime)
		return 0, transientErr()
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected exhaustion")
	}
	if elapsed > maxTotal+opTime+slack {
		t.Errorf("elapsed %v exceeds max_total_time + one in-flight call", elapsed)
	}
	// The wait that would cross the budget is replaced by one immediate attempt.
	if calls.Load() < 3 {
		t.Errorf("calls = %d, want the immediate final attempt to run", calls.Load())
	}
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, PerAttemptTimeout: 20 * time.Millisecond}

	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (deadline errors are retryable)", calls.Load())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline cause, got %v", err)
	}
}

func TestDo_ContextCancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	p := Policy{MaxAttempts: 5, BaseDelay: time.Second}
	start := time.Now()
	_, err := Do(ctx, p, func(context.Context) (int, error) {
		return 0, transientErr()
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Do must return when the caller's context ends")
	}
}
