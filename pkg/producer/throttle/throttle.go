// Package throttle paces an operation producer with a token bucket and a
// concurrency cap. Requests still start on admission; the throttled
// producer makes each operation wait for its turn before doing work.
package throttle

import (
	"context"
	"time"

	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
	"github.com/vnykmshr/reqstream/pkg/common/validation"
	"github.com/vnykmshr/reqstream/pkg/metrics"
	"github.com/vnykmshr/reqstream/pkg/ratelimit/bucket"
	"github.com/vnykmshr/reqstream/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

const module = "throttle"

// Config holds configuration for a throttled producer.
type Config struct {
	// Name labels metrics.
	Name string

	// Rate is the number of operations allowed to start per second.
	// 0 disables rate limiting.
	Rate float64

	// Burst is how many operations may start at once. Defaults to 1 when
	// Rate is set.
	Burst int

	// MaxConcurrent caps operations in progress. 0 = unlimited.
	MaxConcurrent int

	// Metrics records wait times. Nil disables it.
	Metrics *metrics.Registry
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Rate < 0 {
		return rserrors.NewValidationError(module, "rate", c.Rate, "rate cannot be negative").
			WithHint("use 0 to disable rate limiting")
	}
	if err := validation.ValidateNonNegative(module, "burst", c.Burst); err != nil {
		return err
	}
	return validation.ValidateNonNegative(module, "maxConcurrent", c.MaxConcurrent)
}

// Wrap returns a producer that waits for the configured limits before
// calling p. A request aborted while waiting fails with the abort cause
// and never reaches p.
func Wrap[T any](p reqstream.Producer[T], config Config) (reqstream.Producer[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = module
	}

	var rate *bucket.Limiter
	if config.Rate > 0 {
		burst := config.Burst
		if burst == 0 {
			burst = 1
		}
		l, err := bucket.New(bucket.Limit(config.Rate), burst)
		if err != nil {
			return nil, err
		}
		rate = l
	}

	var slots *concurrency.Limiter
	if config.MaxConcurrent > 0 {
		l, err := concurrency.New(config.MaxConcurrent)
		if err != nil {
			return nil, err
		}
		slots = l
	}

	return func(ctx context.Context, target string, opts map[string]any) (T, error) {
		var zero T
		start := time.Now()

		if slots != nil {
			if err := slots.Wait(ctx); err != nil {
				return zero, cause(ctx, err)
			}
			defer slots.Release()
		}
		if rate != nil {
			if err := rate.Wait(ctx); err != nil {
				return zero, cause(ctx, err)
			}
		}

		if config.Metrics != nil {
			config.Metrics.ThrottleWait.WithLabelValues(config.Name).Observe(time.Since(start).Seconds())
		}
		return p(ctx, target, opts)
	}, nil
}

// cause prefers the context's cancellation cause, such as the abort
// sentinel, over the bare context error.
func cause(ctx context.Context, err error) error {
	if c := context.Cause(ctx); c != nil {
		return c
	}
	return err
}
