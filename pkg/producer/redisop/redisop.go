// Package redisop provides an operation producer that reads Redis keys,
// so a request stream can fan out lookups and consume them in order.
package redisop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
	"github.com/vnykmshr/reqstream/pkg/common/validation"
	"github.com/vnykmshr/reqstream/pkg/metrics"
)

const module = "redisop"

// Option keys read from request options.
const (
	OptionCommand = "command" // string, one of the Command constants
	OptionField   = "field"   // string, hash field for HGET
	OptionTimeout = "timeout" // time.Duration or duration string, overrides Config.Timeout
)

// Supported commands. The request target is always the key.
const (
	CommandGet     = "GET"
	CommandHGet    = "HGET"
	CommandHGetAll = "HGETALL"
	CommandExists  = "EXISTS"
	CommandTTL     = "TTL"
)

// Config holds configuration for a Client.
type Config struct {
	// Command used when a request does not name one.
	DefaultCommand string

	// Timeout bounds each command. 0 relies on the go-redis client's own
	// read and write timeouts.
	Timeout time.Duration

	// Metrics records producer instrumentation. Nil disables it.
	Metrics *metrics.Registry
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		DefaultCommand: CommandGet,
		Timeout:        5 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNonNegativeDuration(module, "timeout", c.Timeout); err != nil {
		return err
	}
	if !supported(c.DefaultCommand) {
		return rserrors.NewValidationError(module, "defaultCommand", c.DefaultCommand, "unsupported command").
			WithHint("use GET, HGET, HGETALL, EXISTS or TTL")
	}
	return nil
}

// Reply is the result of one command. Found is false when the key (or
// hash field) does not exist; that is not an error.
type Reply struct {
	Key     string
	Command string
	Found   bool

	// Value holds GET and HGET results.
	Value string
	// Fields holds HGETALL results.
	Fields map[string]string
	// TTL holds TTL results; negative values follow Redis semantics.
	TTL time.Duration
}

// Client issues commands against a Redis server. Its Do method has the
// producer signature.
type Client struct {
	rdb    redis.Cmdable
	config Config
}

// New creates a Client with the default configuration.
func New(rdb redis.Cmdable) *Client {
	c, _ := NewWithConfig(rdb, DefaultConfig())
	return c
}

// NewWithConfig creates a Client, validating config first.
func NewWithConfig(rdb redis.Cmdable, config Config) (*Client, error) {
	if err := validation.ValidateNotNil(module, "redis", rdb); err != nil {
		return nil, err
	}
	if config.DefaultCommand == "" {
		config.DefaultCommand = CommandGet
	}
	config.DefaultCommand = strings.ToUpper(config.DefaultCommand)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb, config: config}, nil
}

// Do runs the command named in opts against the key target.
func (c *Client) Do(ctx context.Context, target string, opts map[string]any) (*Reply, error) {
	start := time.Now()
	reply, err := c.do(ctx, target, opts)

	if m := c.config.Metrics; m != nil {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
		}
		m.ProducerRequests.WithLabelValues(module, outcome).Inc()
		m.ProducerDuration.WithLabelValues(module).Observe(time.Since(start).Seconds())
	}
	return reply, err
}

func (c *Client) do(ctx context.Context, target string, opts map[string]any) (*Reply, error) {
	if err := validation.ValidateNotEmpty(module, "key", target); err != nil {
		return nil, err
	}

	command := c.config.DefaultCommand
	if v, ok := opts[OptionCommand].(string); ok && v != "" {
		command = strings.ToUpper(v)
	}
	if !supported(command) {
		return nil, rserrors.NewValidationError(module, OptionCommand, command, "unsupported command")
	}

	timeout := c.config.Timeout
	if d, ok := durationOption(opts[OptionTimeout]); ok {
		timeout = d
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reply := &Reply{Key: target, Command: command, Found: true}
	var err error

	switch command {
	case CommandGet:
		reply.Value, err = c.rdb.Get(ctx, target).Result()
	case CommandHGet:
		field, _ := opts[OptionField].(string)
		if field == "" {
			return nil, rserrors.NewValidationError(module, OptionField, field, "HGET needs a field").
				WithHint(fmt.Sprintf("set the %q option", OptionField))
		}
		reply.Value, err = c.rdb.HGet(ctx, target, field).Result()
	case CommandHGetAll:
		reply.Fields, err = c.rdb.HGetAll(ctx, target).Result()
		reply.Found = len(reply.Fields) > 0
	case CommandExists:
		var n int64
		n, err = c.rdb.Exists(ctx, target).Result()
		reply.Found = n > 0
	case CommandTTL:
		reply.TTL, err = c.rdb.TTL(ctx, target).Result()
		// Redis reports -2 for a missing key.
		reply.Found = reply.TTL != -2
	}

	if errors.Is(err, redis.Nil) {
		reply.Found = false
		return reply, nil
	}
	if err != nil {
		return nil, classify(ctx, err)
	}
	return reply, nil
}

// durationOption accepts a time.Duration or a duration string such as
// "250ms", the form request files carry.
func durationOption(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		parsed, err := time.ParseDuration(d)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("%w: %v", rserrors.ErrClosed, err)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
		return fmt.Errorf("%w: %v", rserrors.ErrTimeout, err)
	case ctx.Err() != nil:
		if cause := context.Cause(ctx); cause != nil && cause != ctx.Err() {
			return fmt.Errorf("%w: %v", cause, err)
		}
		return err
	default:
		return err
	}
}

func supported(command string) bool {
	switch command {
	case CommandGet, CommandHGet, CommandHGetAll, CommandExists, CommandTTL:
		return true
	default:
		return false
	}
}
