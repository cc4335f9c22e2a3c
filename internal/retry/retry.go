package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

// Callable is invoked once per attempt, attempts are counted from 1
type Callable func(ctx context.Context, attempt int) error

type retryableError struct {
	error
	attempt int
}

func (e *retryableError) Cause() error  { return e.error }
func (e *retryableError) Unwrap() error { return e.error }

// Error marks err as recoverable, any other error returned
// from a Callable stops the retries immediately
func Error(err error, attempt int) error {
	if err == nil {
		return nil
	}

	return &retryableError{error: err, attempt: attempt}
}

type Attempts interface {
	// Next advances to the next attempt and returns the pause before it,
	// stop is true when no attempts are left
	Next() (pause time.Duration, stop bool)
	Current() int
}

func Start(ctx context.Context, a Attempts, cb Callable) error {
	for {
		err := cb(ctx, a.Current())
		if err == nil {
			return nil
		}

		var rErr *retryableError
		if !errors.As(err, &rErr) {
			return errors.Wrapf(err, "attempt %d failed", a.Current())
		}

		pause, stop := a.Next()
		if stop {
			return errors.Wrapf(ErrTooManyAttempts, "last error: %s", rErr.Error())
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), rErr.Error())
		case <-timer.C:
		}
	}
}

// Incremental retries with a pause growing by step after every failed attempt
func Incremental(ctx context.Context, step time.Duration, maxAttempts int, cb Callable) error {
	return Start(ctx, IncrementalAttempts(step, maxAttempts), cb)
}

type incrementalAttempts struct {
	pause time.Duration
	step  time.Duration
	max   int
	curr  int
}

func IncrementalAttempts(step time.Duration, max int) Attempts {
	return &incrementalAttempts{step: step, max: max, curr: 1}
}

func (a *incrementalAttempts) Next() (time.Duration, bool) {
	if a.curr >= a.max {
		return 0, true
	}

	a.curr++
	a.pause += a.step

	return a.pause, false
}

func (a *incrementalAttempts) Current() int {
	return a.curr
}
