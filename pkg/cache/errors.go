package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork is returned for backend failures (timeouts, refused connections).
var ErrNetwork = errors.New("network error")

// RetryableError marks a transient source or cache failure. Only errors
// carrying it are retried by RetryWithBackoff.
type RetryableError struct{ Err error }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Retry settings for RetryWithBackoff. The delay doubles after each failed
// attempt.
var (
	RetryAttempts = 3
	BackoffBase   = time.Second
)

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// Retryable, or RetryAttempts calls have failed. Waiting between attempts
// stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := BackoffBase
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt >= RetryAttempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
