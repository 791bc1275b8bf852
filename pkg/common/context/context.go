// Package context holds small helpers around the standard context package
// shared by the stream engine and its producers.
package context

import (
	"context"
	"errors"
)

// IsCanceled returns true if the context has been canceled or its deadline
// has passed
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// Cause reports why ctx ended: the cancellation cause when one was recorded
// with context.WithCancelCause, otherwise ctx.Err(). It returns nil while ctx
// is still live.
func Cause(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	return context.Cause(ctx)
}
