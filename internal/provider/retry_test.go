package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name         string
		maxRetries   int
		failures     int
		retryable    bool
		wantErr      bool
		wantAttempts int
	}{
		{name: "first attempt succeeds", maxRetries: 3, failures: 0, wantAttempts: 1},
		{name: "succeeds after retries", maxRetries: 3, failures: 2, retryable: true, wantAttempts: 3},
		{name: "retries exhausted", maxRetries: 2, failures: 10, retryable: true, wantErr: true, wantAttempts: 3},
		{name: "non-retryable stops immediately", maxRetries: 3, failures: 10, wantErr: true, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Retry(context.Background(), fastPolicy(tt.maxRetries), func() error {
				attempts++
				if attempts <= tt.failures {
					if tt.retryable {
						return NewRetryableError(errors.New("temporary"))
					}
					return errors.New("permanent")
				}
				return nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Retry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("expected %d attempts, got %d", tt.wantAttempts, attempts)
			}
		})
	}
}

func TestRetryContextCancellation(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:     5,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	attempts := 0
	err := Retry(ctx, policy, func() error {
		attempts++
		return NewRetryableError(errors.New("retryable"))
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected cancellation during the first backoff, got %d attempts", attempts)
	}
}

func TestRetryHonoursRetryAfterCap(t *testing.T) {
	policy := fastPolicy(1)
	attempts := 0
	started := time.Now()

	err := Retry(context.Background(), policy, func() error {
		attempts++
		if attempts == 1 {
			return NewRetryableErrorWithDelay(errors.New("slow down"), time.Hour)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Errorf("expected RetryAfter capped at MaxBackoff, waited %v", elapsed)
	}
}

func TestCalculateBackoff(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{6, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := calculateBackoff(policy, tt.attempt); got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}

	policy.Jitter = true
	for i := 0; i < 20; i++ {
		got := calculateBackoff(policy, 1)
		if got < 1800*time.Millisecond || got > 2200*time.Millisecond {
			t.Fatalf("jittered backoff %v outside +/-10%%", got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"regular error", errors.New("regular"), false},
		{"retryable error", NewRetryableError(errors.New("retry")), true},
		{"wrapped retryable", errors.Join(errors.New("ctx"), NewRetryableErrorWithDelay(errors.New("retry"), time.Second)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}
