// Package concurrency provides a context-aware semaphore that caps how many
// operations run at once.
package concurrency

import (
	"context"

	"github.com/vnykmshr/reqstream/pkg/common/errors"
)

// Limiter caps the number of concurrent operations.
type Limiter struct {
	permits chan struct{}
}

// New creates a Limiter allowing capacity concurrent operations.
func New(capacity int) (*Limiter, error) {
	if capacity <= 0 {
		return nil, errors.NewValidationError("concurrency", "capacity", capacity, "capacity must be positive").
			WithHint("capacity determines how many concurrent operations are allowed")
	}
	return &Limiter{permits: make(chan struct{}, capacity)}, nil
}

// Acquire takes a permit without blocking. It reports whether one was free.
func (l *Limiter) Acquire() bool {
	select {
	case l.permits <- struct{}{}:
		return true
	default:
		return false
	}
}

// Wait blocks until a permit is free or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit. It panics if no permit is held.
func (l *Limiter) Release() {
	select {
	case <-l.permits:
	default:
		panic("concurrency: release without acquire")
	}
}

// Capacity returns the maximum number of concurrent operations.
func (l *Limiter) Capacity() int {
	return cap(l.permits)
}

// InUse returns the number of permits currently held.
func (l *Limiter) InUse() int {
	return len(l.permits)
}

// Available returns the number of free permits.
func (l *Limiter) Available() int {
	return l.Capacity() - l.InUse()
}
