// Package httpfetch provides the default network-fetch operation producer
// for request streams.
package httpfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	rsctx "github.com/vnykmshr/reqstream/pkg/common/context"
	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
	"github.com/vnykmshr/reqstream/pkg/common/validation"
	"github.com/vnykmshr/reqstream/pkg/metrics"
)

const module = "httpfetch"

// Option keys read from request options.
const (
	OptionMethod  = "method"  // string, default GET
	OptionHeaders = "headers" // map[string]string or http.Header
	OptionBody    = "body"    // string, []byte or io.Reader
	OptionTimeout = "timeout" // time.Duration or duration string, overrides Config.Timeout
)

// Config holds configuration for a Client.
type Config struct {
	// Timeout bounds each request, including reading the body. 0 = no timeout.
	Timeout time.Duration

	// UserAgent is sent unless the request sets its own header.
	UserAgent string

	// RequireOK turns non-2xx responses into *StatusError failures. When
	// false, any response is a success, as with a browser fetch.
	RequireOK bool

	// MaxBodyBytes caps the response body that is read into memory.
	MaxBodyBytes int64

	// HTTPClient is the transport. Nil uses a client with default settings.
	HTTPClient *http.Client

	// Metrics records producer instrumentation. Nil disables it.
	Metrics *metrics.Registry
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		UserAgent:    "reqstream/1.0",
		MaxBodyBytes: 10 << 20,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNonNegativeDuration(module, "timeout", c.Timeout); err != nil {
		return err
	}
	return validation.ValidatePositive(module, "maxBodyBytes", c.MaxBodyBytes)
}

// Response is the buffered result of one fetch.
type Response struct {
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// StatusError is the failure for a non-2xx response when RequireOK is set.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s from %s", e.Response.Status, e.Response.URL)
}

// Unwrap maps throttling and gateway timeouts onto the shared taxonomy so
// errors.IsRetryable works on fetch failures.
func (e *StatusError) Unwrap() error {
	switch e.Response.StatusCode {
	case http.StatusTooManyRequests:
		return rserrors.ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return rserrors.ErrTimeout
	default:
		return nil
	}
}

// Client performs fetches. Its Fetch method has the producer signature.
type Client struct {
	config Config
	http   *http.Client
}

// New creates a Client with the default configuration.
func New() *Client {
	c, _ := NewWithConfig(DefaultConfig())
	return c
}

// NewWithConfig creates a Client, validating config first.
func NewWithConfig(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{config: config, http: hc}, nil
}

// Fetch requests target and buffers the response. ctx cancellation, such
// as a stream aborting the request, interrupts the transfer.
func (c *Client) Fetch(ctx context.Context, target string, opts map[string]any) (*Response, error) {
	start := time.Now()
	resp, err := c.fetch(ctx, target, opts)

	if m := c.config.Metrics; m != nil {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
		}
		m.ProducerRequests.WithLabelValues(module, outcome).Inc()
		m.ProducerDuration.WithLabelValues(module).Observe(time.Since(start).Seconds())
	}
	return resp, err
}

func (c *Client) fetch(ctx context.Context, target string, opts map[string]any) (*Response, error) {
	timeout := c.config.Timeout
	if d, ok := durationOption(opts[OptionTimeout]); ok {
		timeout = d
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, target, opts)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if int64(len(body)) > c.config.MaxBodyBytes {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", rserrors.ErrCapacityExceeded, c.config.MaxBodyBytes)
	}

	resp := &Response{
		URL:        target,
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       body,
	}
	if c.config.RequireOK && !resp.OK() {
		return resp, &StatusError{Response: resp}
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, target string, opts map[string]any) (*http.Request, error) {
	method := http.MethodGet
	if m, ok := opts[OptionMethod].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}

	body, err := requestBody(opts[OptionBody])
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	switch h := opts[OptionHeaders].(type) {
	case http.Header:
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	case map[string]string:
		for k, v := range h {
			req.Header.Set(k, v)
		}
	case map[string]any:
		for k, v := range h {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}
	if req.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	return req, nil
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

func requestBody(v any) (io.Reader, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		return nil, rserrors.NewValidationError(module, OptionBody, fmt.Sprintf("%T", v), "unsupported body type").
			WithHint("use a string, []byte or io.Reader")
	}
}

// classify attaches the taxonomy error explaining why ctx ended, keeping
// the transport error in the chain.
func classify(ctx context.Context, err error) error {
	switch {
	case rsctx.IsTimedOut(ctx):
		return fmt.Errorf("%w: %w", rserrors.ErrTimeout, err)
	case rsctx.IsCanceled(ctx):
		if cause := rsctx.Cause(ctx); cause != nil && !errors.Is(err, cause) {
			return fmt.Errorf("%w: %w", cause, err)
		}
	}
	return err
}
