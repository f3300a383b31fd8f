package wms

import (
	"context"
	"errors"
	"time"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
)

// RetryPolicy bounds the retry loop adapters run around upstream calls.
// Only rate limits and transient failures are retried; an auth failure is
// final and surfaces immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries including the first
	MaxAttempts int
	// BaseDelay is doubled after every failed attempt
	BaseDelay time.Duration
	// MaxDelay caps the backoff
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the retry policy adapters use by default
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 8 * time.Second
	}
	return p
}

// retryable returns true for errors worth another attempt
func retryable(err error) bool {
	return errors.Is(err, syncdomain.ErrRateLimited) || errors.Is(err, syncdomain.ErrTransient)
}

// withRetry runs fn under the policy with exponential backoff. The last
// error is returned once attempts are exhausted.
func withRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	policy = policy.normalize()

	var err error
	delay := policy.BaseDelay
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return err
}
