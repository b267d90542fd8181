package application

import (
	"context"
	"time"

	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 25 * time.Millisecond
)

// RetryPolicy re-runs an operation after transient store failures only.
// Every attempt must re-read state, so fn is always the full
// read-check-write unit.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !domainerrors.IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(time.Duration(attempt) * backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// Now reads clock, falling back to wall time when no clock is wired.
func Now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
