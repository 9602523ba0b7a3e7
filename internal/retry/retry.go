// Package retry runs a unit of work up to a bounded number of times with
// exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrExhausted wraps the last failure once every attempt has failed
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds how often and how far apart attempts are made
type Policy struct {
	Attempts   int           // Total attempts including the first; below 1 means 1
	Backoff    time.Duration // Delay before the second attempt
	Multiplier float64       // Growth factor per attempt; below 1 means constant
	MaxBackoff time.Duration // Upper bound on any single delay; 0 means none
}

// DefaultPolicy returns three attempts starting at 100ms, doubling up to 2s
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Backoff:    100 * time.Millisecond,
		Multiplier: 2,
		MaxBackoff: 2 * time.Second,
	}
}

// delay returns the wait before attempt n+1, n starting at 1
func (p Policy) delay(n int) time.Duration {
	d := p.Backoff
	for i := 1; i < n; i++ {
		if p.Multiplier > 1 {
			d = time.Duration(float64(d) * p.Multiplier)
		}
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do stops at once and hands
// the unwrapped error to onExhaustion.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// Do calls body until it succeeds, returns a Permanent error, or
// p.Attempts calls have failed. Attempts are numbered from 1. The context
// is only consulted while waiting between attempts; a running body is
// never interrupted.
//
// When no attempt succeeds, onExhaustion receives the last failure and
// its return value becomes Do's error. A nil onExhaustion returns the last
// failure wrapped in ErrExhausted.
func Do[T any](ctx context.Context, p Policy, body func(attempt int) (T, error), onExhaustion func(error) error) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var lastErr error
loop:
	for n := 1; n <= attempts; n++ {
		v, err := body(n)
		if err == nil {
			return v, nil
		}
		lastErr = err

		var perm permanentError
		if errors.As(err, &perm) {
			lastErr = perm.err
			break loop
		}
		if n == attempts {
			break loop
		}

		wait := p.delay(n)
		log.Printf("retry: attempt %d/%d failed: %v (next in %v)", n, attempts, err, wait)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			lastErr = fmt.Errorf("%w (after attempt %d: %v)", ctx.Err(), n, err)
			break loop
		}
	}

	if onExhaustion != nil {
		return zero, onExhaustion(lastErr)
	}
	return zero, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}
