// Package readiness polls a condition with exponential backoff. Hosts use
// it to wait for scene bodies to appear before initializing joints.
package readiness

import (
	"context"
	"errors"
	"time"
)

var ErrNotReady = errors.New("readiness: condition not met")

type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// Delay returns the wait before attempt n, counting from 1. The first
// attempt runs immediately.
func (p Policy) Delay(n int) time.Duration {
	if n <= 1 {
		return 0
	}
	d := p.Initial
	for i := 2; i < n; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Wait calls check until it returns true, the attempts run out or ctx is
// done. The check runs on the calling goroutine.
func Wait(ctx context.Context, p Policy, check func() bool) error {
	attempts := max(p.Attempts, 1)

	for n := 1; n <= attempts; n++ {
		if d := p.Delay(n); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if check() {
			return nil
		}
	}
	return ErrNotReady
}
