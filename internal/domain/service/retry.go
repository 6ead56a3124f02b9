package service

import (
	"context"
	"errors"
	"time"
)

// MaxRetries is the retry ceiling shared by the sync loop and command targets.
const MaxRetries = 10

// Policy describes a bounded retry. MaxAttempts <= 0 means the attempt count
// is unbounded and Retryable alone decides when to stop.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable reports whether err may be retried. Nil retries everything.
	Retryable func(err error) bool
	// OnFailure runs after every failed attempt, before Retryable.
	OnFailure func(attempt int, err error)
}

type Result struct {
	Attempts int
	Err      error
}

// Attempt runs op until it succeeds, the policy gives up or ctx is done.
func Attempt(ctx context.Context, p Policy, op func(ctx context.Context) error) Result {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return Result{Attempts: attempt}
		}
		if p.OnFailure != nil {
			p.OnFailure(attempt, err)
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return Result{Attempts: attempt, Err: err}
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return Result{Attempts: attempt, Err: err}
		}
		if !sleep(ctx, p.Delay) {
			return Result{Attempts: attempt, Err: errors.Join(err, ctx.Err())}
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
