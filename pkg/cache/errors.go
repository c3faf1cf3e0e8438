package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNetwork marks a failure talking to a remote cache.
var ErrNetwork = errors.New("network error")

type transient struct{ err error }

func (t transient) Error() string { return t.err.Error() }
func (t transient) Unwrap() error { return t.err }

// Transient marks err as worth another attempt. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transient{err}
}

// IsTransient reports whether err was marked with [Transient].
func IsTransient(err error) bool {
	var t transient
	return errors.As(err, &t)
}

// Backoff retries transient failures, doubling Delay after each attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is used by remote caches.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// Do calls fn until it succeeds or returns an error not marked transient.
// When the attempts run out the last failure is returned wrapped in
// ErrNetwork. A done context stops the wait between attempts.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
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
	}

	var t transient
	errors.As(err, &t)
	return fmt.Errorf("%w: %w", ErrNetwork, t.err)
}
