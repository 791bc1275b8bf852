package reqstream

import (
	"errors"
	"testing"

	"github.com/vnykmshr/reqstream/internal/testutil"
	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
)

func TestDefaultEvents(t *testing.T) {
	data, end := DefaultEvents()
	testutil.AssertEqual(t, data, "DATA")
	testutil.AssertEqual(t, end, "END")
}

func TestEmitCallsListenersInOrder(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		s.OnFunc("custom", func(Event[string]) error {
			order = append(order, i)
			return nil
		})
	}

	testutil.AssertNoError(t, s.Emit("custom", nil))
	testutil.AssertSliceEqual(t, order, []int{1, 2, 3})
}

func TestEmitWithoutListeners(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	testutil.AssertNoError(t, s.Emit("nobody", nil))
}

func TestEmitCarriesItem(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	item := &Item[string]{Outcome: Success("v"), Metadata: Metadata{Target: "t"}}

	var got *Item[string]
	s.OnFunc("custom", func(ev Event[string]) error {
		got = ev.Item
		return nil
	})
	testutil.AssertNoError(t, s.Emit("custom", item))
	testutil.AssertEqual(t, got, item)
}

func TestDuplicateRegistrationFiresTwice(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	calls := 0
	l := NewListener(func(Event[string]) error { calls++; return nil })
	s.On("custom", l)
	s.On("custom", l)
	testutil.AssertEqual(t, s.ListenerCount("custom"), 2)

	testutil.AssertNoError(t, s.Emit("custom", nil))
	testutil.AssertEqual(t, calls, 2)

	s.RemoveListeners("custom", l)
	testutil.AssertEqual(t, s.ListenerCount("custom"), 0)
	testutil.AssertNoError(t, s.Emit("custom", nil))
	testutil.AssertEqual(t, calls, 2)
}

func TestRemoveListenersLeavesOthers(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	var fired []string
	a := s.OnFunc("custom", func(Event[string]) error { fired = append(fired, "a"); return nil })
	s.OnFunc("custom", func(Event[string]) error { fired = append(fired, "b"); return nil })

	s.RemoveListeners("custom", a)
	s.RemoveListeners("other", a)
	testutil.AssertNoError(t, s.Emit("custom", nil))
	testutil.AssertSliceEqual(t, fired, []string{"b"})
}

func TestRemoveAllEventListenersWithExceptions(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	noop := func(Event[string]) error { return nil }
	s.OnFunc(DataEvent, noop)
	s.OnFunc(EndEvent, noop)
	s.OnFunc("K", noop)

	s.RemoveAllEventListeners(EndEvent)
	testutil.AssertEqual(t, s.ListenerCount(DataEvent), 0)
	testutil.AssertEqual(t, s.ListenerCount("K"), 0)
	testutil.AssertEqual(t, s.ListenerCount(EndEvent), 1)

	s.RemoveAllEventListeners()
	testutil.AssertEqual(t, s.ListenerCount(EndEvent), 0)
}

func TestListenerAddedDuringEmitWaitsForNextPass(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	late := 0
	s.OnFunc("custom", func(Event[string]) error {
		s.OnFunc("custom", func(Event[string]) error { late++; return nil })
		return nil
	})

	testutil.AssertNoError(t, s.Emit("custom", nil))
	testutil.AssertEqual(t, late, 0)
	testutil.AssertNoError(t, s.Emit("custom", nil))
	testutil.AssertEqual(t, late, 1)
}

func TestEmitStopsAtFirstListenerError(t *testing.T) {
	s := newTestStream(testutil.NewScriptedProducer())
	bad := errors.New("bad")
	reached := false
	s.OnFunc("custom", func(Event[string]) error { return bad })
	s.OnFunc("custom", func(Event[string]) error { reached = true; return nil })

	err := s.Emit("custom", nil)
	testutil.AssertErrorIs(t, err, bad)

	var lerr *rserrors.ListenerError
	if !errors.As(err, &lerr) {
		t.Fatalf("got %T, want *ListenerError", err)
	}
	testutil.AssertEqual(t, lerr.Event, "custom")
	testutil.AssertEqual(t, reached, false)
}
