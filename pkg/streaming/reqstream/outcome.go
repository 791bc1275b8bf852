package reqstream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	rsctx "github.com/vnykmshr/reqstream/pkg/common/context"
	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
)

// AbortOptionKey is the reserved options field under which every admitted
// request carries its AbortHandle.
const AbortOptionKey = "_abort"

// keyOptionField is consulted for a routing key when Request.Key is empty.
const keyOptionField = "key"

var errUnspecifiedFailure = errors.New("unspecified failure")

// Producer starts the asynchronous operation for one request and blocks
// until it settles. ctx is the request's cancellation signal: it is done
// once the request's AbortHandle is invoked. Producers own retries and
// timeouts.
type Producer[T any] func(ctx context.Context, target string, opts map[string]any) (T, error)

// Request is one unit of work submitted to a stream.
type Request struct {
	// Target identifies what the operation acts on, such as a URL or a key.
	Target string

	// Key is the optional routing key. When set, the outcome is also
	// emitted under an event of this name.
	Key string

	// Options are passed to the producer. They are copied on admission.
	Options map[string]any
}

// Metadata describes an admitted request.
type Metadata struct {
	// ID is a monotonic ULID; IDs sort in admission order.
	ID string

	Target string
	Key    string

	// Options is the caller's options with the AbortHandle merged in under
	// AbortOptionKey.
	Options map[string]any

	// Abort requests early cancellation of the operation.
	Abort *AbortHandle

	AdmittedAt time.Time
}

// AbortHandle is the cancellation handle of one operation. Cancellation is
// cooperative: it only has an effect if the producer honors its context.
type AbortHandle struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	aborted atomic.Bool
}

func newAbortHandle() *AbortHandle {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &AbortHandle{ctx: ctx, cancel: cancel}
}

// Abort signals the operation to stop. It is safe to call more than once.
func (h *AbortHandle) Abort() {
	h.aborted.Store(true)
	h.cancel(rserrors.ErrAborted)
}

// Aborted reports whether Abort has been called.
func (h *AbortHandle) Aborted() bool {
	return h.aborted.Load()
}

// Context returns the context handed to the producer.
func (h *AbortHandle) Context() context.Context {
	return h.ctx
}

// Err returns errors.ErrAborted once the handle has been aborted, nil before.
func (h *AbortHandle) Err() error {
	return rsctx.Cause(h.ctx)
}

// AbortHandleFrom extracts the handle merged into producer options.
func AbortHandleFrom(opts map[string]any) (*AbortHandle, bool) {
	h, ok := opts[AbortOptionKey].(*AbortHandle)
	return h, ok
}

// Outcome is the settled result of one operation: either a value or an
// error, never both.
type Outcome[T any] struct {
	value T
	err   error
}

// Success returns an Outcome holding v.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Failure returns an Outcome holding err. A nil err is replaced by a
// generic failure so the outcome still reports Failed.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		err = errUnspecifiedFailure
	}
	return Outcome[T]{err: err}
}

// Value returns the success value, or the zero value for a failure.
func (o Outcome[T]) Value() T { return o.value }

// Err returns the failure, or nil for a success.
func (o Outcome[T]) Err() error { return o.err }

// Failed reports whether the outcome is a failure.
func (o Outcome[T]) Failed() bool { return o.err != nil }

// Unwrap returns the outcome as a conventional (value, error) pair.
func (o Outcome[T]) Unwrap() (T, error) { return o.value, o.err }

func (o Outcome[T]) String() string {
	if o.err != nil {
		return fmt.Sprintf("failure(%v)", o.err)
	}
	return fmt.Sprintf("success(%v)", o.value)
}

// Item is what a stream delivers for each settled request.
type Item[T any] struct {
	Outcome  Outcome[T]
	Metadata Metadata
}

// Result is returned by Pull. Done results carry no Item.
type Result[T any] struct {
	Done bool
	Item *Item[T]
}

// entry is an admitted request waiting in the queue. outcome is written
// once by the settling goroutine before settled is closed.
type entry[T any] struct {
	meta    Metadata
	settled chan struct{}
	outcome Outcome[T]
}

func newEntry[T any](meta Metadata) *entry[T] {
	return &entry[T]{meta: meta, settled: make(chan struct{})}
}

func mergeOptions(opts map[string]any, abort *AbortHandle) map[string]any {
	merged := make(map[string]any, len(opts)+1)
	for k, v := range opts {
		merged[k] = v
	}
	merged[AbortOptionKey] = abort
	return merged
}

func routingKey(req Request) string {
	if req.Key != "" {
		return req.Key
	}
	if k, ok := req.Options[keyOptionField].(string); ok {
		return k
	}
	return ""
}
