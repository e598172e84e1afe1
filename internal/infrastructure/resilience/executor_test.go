package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetryPolicy(attempts int) Policy {
	return Policy{
		Retry: RetryPolicy{
			MaxAttempts:    attempts,
			InitialBackoff: 1 * time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2,
		},
		Breaker: BreakerPolicy{Disabled: true},
	}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastRetryPolicy(3))

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastRetryPolicy(3))

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Policy{
		Retry: RetryPolicy{
			MaxAttempts:    1,
			InitialBackoff: 1 * time.Millisecond,
			MaxBackoff:     1 * time.Millisecond,
			Multiplier:     2,
		},
		Breaker: BreakerPolicy{
			MinRequests:      2,
			FailureRatio:     0.5,
			OpenTimeout:      50 * time.Millisecond,
			HalfOpenMaxCalls: 1,
		},
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestBreakerIsolatedPerOperation(t *testing.T) {
	exec := NewExecutor(Policy{
		Retry: RetryPolicy{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 2},
		Breaker: BreakerPolicy{
			MinRequests:      2,
			FailureRatio:     0.5,
			OpenTimeout:      50 * time.Millisecond,
			HalfOpenMaxCalls: 1,
		},
	})

	errUpstream := errors.New("upstream")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "vector.upsert", func(context.Context) error {
			return errUpstream
		}, classifier)
	}

	called := false
	err := exec.Execute(context.Background(), "vector.query", func(context.Context) error {
		called = true
		return nil
	}, classifier)
	if err != nil {
		t.Fatalf("query should not share the upsert breaker, got %v", err)
	}
	if !called {
		t.Fatalf("expected query operation to run")
	}
}

func TestDisabledBreakerNeverOpens(t *testing.T) {
	exec := NewExecutor(QueuePolicy())

	errUpstream := errors.New("upstream")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 10; i++ {
		err := exec.Execute(context.Background(), "queue.publish", func(context.Context) error {
			return errUpstream
		}, classifier)
		if !errors.Is(err, errUpstream) {
			t.Fatalf("iteration %d: expected upstream error, got %v", i, err)
		}
		if IsCircuitOpen(err) {
			t.Fatalf("iteration %d: breaker must stay disabled", i)
		}
	}
}

func TestTavilyPolicyStopsAfterSecondAttempt(t *testing.T) {
	exec := NewExecutor(TavilyPolicy())

	attempts := 0
	errTimeout := errors.New("timeout")
	err := exec.Execute(context.Background(), "search", func(context.Context) error {
		attempts++
		return errTimeout
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}
