// Package bucket provides a token bucket rate limiter used to pace
// operation producers.
package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/vnykmshr/reqstream/pkg/common/errors"
)

// Limit is a rate in events per second. Inf allows everything.
type Limit float64

// Inf is the infinite rate limit.
var Inf = Limit(math.Inf(1))

// Every converts a minimum interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Clock provides the current time. It can be replaced in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration for a Limiter.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the bucket capacity.
	Burst int

	// Clock provides the current time. Nil uses SystemClock.
	Clock Clock
}

// Limiter is a token bucket. The bucket starts full.
type Limiter struct {
	mu     sync.Mutex
	rate   Limit
	burst  int
	tokens float64
	last   time.Time
	clock  Clock
}

// New creates a Limiter allowing rate events per second with bursts of
// up to burst events.
func New(rate Limit, burst int) (*Limiter, error) {
	return NewWithConfig(Config{Rate: rate, Burst: burst})
}

// NewWithConfig creates a Limiter from config.
func NewWithConfig(config Config) (*Limiter, error) {
	if config.Rate < 0 {
		return nil, errors.NewValidationError("bucket", "rate", config.Rate, "rate cannot be negative").
			WithHint("use Inf for no rate limit or a positive value")
	}
	if config.Burst <= 0 {
		return nil, errors.NewValidationError("bucket", "burst", config.Burst, "burst must be positive").
			WithHint("burst determines how many tokens can be consumed instantly")
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	return &Limiter{
		rate:   config.Rate,
		burst:  config.Burst,
		tokens: float64(config.Burst),
		last:   config.Clock.Now(),
		clock:  config.Clock,
	}, nil
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(l.clock.Now())
	if l.rate == Inf || l.tokens >= 1 {
		l.take()
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done. A token reserved
// by a canceled wait is returned to the bucket.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	delay, err := l.reserve()
	if err != nil || delay <= 0 {
		return err
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.unreserve()
		return ctx.Err()
	}
}

// Reserve takes a token, possibly borrowing against future refills, and
// returns how long the caller must wait before acting.
func (l *Limiter) Reserve() (time.Duration, error) {
	return l.reserve()
}

// Tokens returns the number of tokens currently available. It is negative
// while reservations are outstanding.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(l.clock.Now())
	return l.tokens
}

// Rate returns the configured rate.
func (l *Limiter) Rate() Limit {
	return l.rate
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	return l.burst
}

func (l *Limiter) reserve() (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rate == Inf {
		return 0, nil
	}

	l.refill(l.clock.Now())
	if l.tokens >= 1 {
		l.take()
		return 0, nil
	}
	if l.rate == 0 {
		return 0, errors.ErrRateLimited
	}

	missing := 1 - l.tokens
	l.take()
	return time.Duration(missing / float64(l.rate) * float64(time.Second)), nil
}

func (l *Limiter) unreserve() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(l.clock.Now())
	l.tokens = math.Min(l.tokens+1, float64(l.burst))
}

func (l *Limiter) take() {
	if l.rate != Inf {
		l.tokens--
	}
}

func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.last)
	if elapsed <= 0 {
		return
	}
	l.last = now
	if l.rate == Inf {
		l.tokens = float64(l.burst)
		return
	}
	l.tokens = math.Min(l.tokens+elapsed.Seconds()*float64(l.rate), float64(l.burst))
}
