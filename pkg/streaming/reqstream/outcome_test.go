package reqstream

import (
	"context"
	"errors"
	"testing"

	"github.com/vnykmshr/reqstream/internal/testutil"
	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
)

func TestOutcome(t *testing.T) {
	ok := Success(42)
	testutil.AssertEqual(t, ok.Failed(), false)
	testutil.AssertEqual(t, ok.Value(), 42)
	testutil.AssertNoError(t, ok.Err())
	testutil.AssertEqual(t, ok.String(), "success(42)")

	boom := errors.New("boom")
	bad := Failure[int](boom)
	testutil.AssertEqual(t, bad.Failed(), true)
	testutil.AssertEqual(t, bad.Value(), 0)
	testutil.AssertErrorIs(t, bad.Err(), boom)
	testutil.AssertEqual(t, bad.String(), "failure(boom)")

	v, err := bad.Unwrap()
	testutil.AssertEqual(t, v, 0)
	testutil.AssertErrorIs(t, err, boom)
}

func TestFailureWithNilError(t *testing.T) {
	o := Failure[string](nil)
	testutil.AssertEqual(t, o.Failed(), true)
	testutil.AssertError(t, o.Err())
}

func TestAbortHandle(t *testing.T) {
	h := newAbortHandle()
	testutil.AssertEqual(t, h.Aborted(), false)
	testutil.AssertNoError(t, h.Err())
	testutil.AssertNoError(t, h.Context().Err())

	h.Abort()
	h.Abort()
	testutil.AssertEqual(t, h.Aborted(), true)
	testutil.AssertErrorIs(t, h.Err(), rserrors.ErrAborted)
	testutil.AssertErrorIs(t, h.Context().Err(), context.Canceled)
	testutil.AssertErrorIs(t, context.Cause(h.Context()), rserrors.ErrAborted)
}

func TestAbortHandleFrom(t *testing.T) {
	_, ok := AbortHandleFrom(nil)
	testutil.AssertEqual(t, ok, false)

	_, ok = AbortHandleFrom(map[string]any{AbortOptionKey: "not a handle"})
	testutil.AssertEqual(t, ok, false)

	h := newAbortHandle()
	got, ok := AbortHandleFrom(mergeOptions(nil, h))
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, got, h)
}

func TestMergeOptionsCopies(t *testing.T) {
	opts := map[string]any{"a": 1}
	merged := mergeOptions(opts, newAbortHandle())

	merged["a"] = 2
	testutil.AssertEqual(t, opts["a"], any(1))
	testutil.AssertEqual(t, len(opts), 1)
	testutil.AssertEqual(t, len(merged), 2)
}

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"none", Request{Target: "a"}, ""},
		{"field", Request{Key: "k"}, "k"},
		{"option", Request{Options: map[string]any{"key": "o"}}, "o"},
		{"field wins", Request{Key: "k", Options: map[string]any{"key": "o"}}, "k"},
		{"non-string option", Request{Options: map[string]any{"key": 7}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, routingKey(tt.req), tt.want)
		})
	}
}
