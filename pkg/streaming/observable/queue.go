package observable

import (
	"sync"
	"sync/atomic"
)

// Listener is invoked after every committed mutation with a read-only view
// of the queue.
type Listener[T any] func(view View[T])

// Subscription identifies a registered Listener. Funcs are not comparable in
// Go, so subscribers are removed by handle rather than by value.
type Subscription uint64

// View is a read-only window onto a Queue. Reading through a View never
// triggers notifications.
type View[T any] interface {
	// Len returns the number of elements.
	Len() int

	// At returns the element at index i, counted from the head.
	At(i int) (T, bool)

	// Snapshot returns a copy of the elements in queue order.
	Snapshot() []T
}

// Queue is an ordered FIFO sequence that notifies its subscribers after
// every mutation. It is safe for concurrent use.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	subs   []*subscriber[T]
	nextID Subscription
}

type subscriber[T any] struct {
	id     Subscription
	fn     Listener[T]
	active atomic.Bool
}

// New creates an empty Queue, optionally seeded with items.
func New[T any](items ...T) *Queue[T] {
	q := &Queue[T]{}
	if len(items) > 0 {
		q.items = append(make([]T, 0, len(items)), items...)
	}
	return q
}

// Push appends v at the tail and returns the new length.
func (q *Queue[T]) Push(v T) int {
	q.mu.Lock()
	q.items = append(q.items, v)
	n := len(q.items)
	subs := q.snapshotSubsLocked()
	q.mu.Unlock()

	q.notify(subs)
	return n
}

// Unshift inserts v at the head and returns the new length.
func (q *Queue[T]) Unshift(v T) int {
	q.mu.Lock()
	var zero T
	q.items = append(q.items, zero)
	copy(q.items[1:], q.items)
	q.items[0] = v
	n := len(q.items)
	subs := q.snapshotSubsLocked()
	q.mu.Unlock()

	q.notify(subs)
	return n
}

// Shift removes and returns the head. On an empty queue it returns false
// and nothing is notified.
func (q *Queue[T]) Shift() (T, bool) {
	var zero T

	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero // Clear reference
	q.items = q.items[1:]
	subs := q.snapshotSubsLocked()
	q.mu.Unlock()

	q.notify(subs)
	return v, true
}

// Pop removes and returns the tail. On an empty queue it returns false
// and nothing is notified.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T

	q.mu.Lock()
	n := len(q.items)
	if n == 0 {
		q.mu.Unlock()
		return zero, false
	}
	v := q.items[n-1]
	q.items[n-1] = zero
	q.items = q.items[:n-1]
	subs := q.snapshotSubsLocked()
	q.mu.Unlock()

	q.notify(subs)
	return v, true
}

// Drain removes every element and returns them in queue order. Subscribers
// are notified once. Draining an empty queue notifies nobody.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return nil
	}
	drained := q.items
	q.items = nil
	subs := q.snapshotSubsLocked()
	q.mu.Unlock()

	q.notify(subs)
	return drained
}

// Len returns the current number of elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Peek returns the head without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	return q.At(0)
}

// At returns the element at index i, counted from the head.
func (q *Queue[T]) At(i int) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i < 0 || i >= len(q.items) {
		var zero T
		return zero, false
	}
	return q.items[i], true
}

// Snapshot returns a copy of the elements in queue order.
func (q *Queue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// View returns a read-only view backed by q.
func (q *Queue[T]) View() View[T] {
	return queueView[T]{q: q}
}

// Subscribe registers fn to be called after every mutation. Listeners are
// called in subscription order.
func (q *Queue[T]) Subscribe(fn Listener[T]) Subscription {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	s := &subscriber[T]{id: q.nextID, fn: fn}
	s.active.Store(true)
	q.subs = append(q.subs, s)
	return s.id
}

// Unsubscribe removes the listener registered under sub. It reports whether
// the subscription was still registered.
func (q *Queue[T]) Unsubscribe(sub Subscription) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, s := range q.subs {
		if s.id == sub {
			s.active.Store(false)
			q.subs = append(q.subs[:i:i], q.subs[i+1:]...)
			return true
		}
	}
	return false
}

// UnsubscribeAll removes every listener.
func (q *Queue[T]) UnsubscribeAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, s := range q.subs {
		s.active.Store(false)
	}
	q.subs = nil
}

// Subscribers returns the number of registered listeners.
func (q *Queue[T]) Subscribers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

// snapshotSubsLocked copies the subscriber list (must hold lock).
func (q *Queue[T]) snapshotSubsLocked() []*subscriber[T] {
	if len(q.subs) == 0 {
		return nil
	}
	subs := make([]*subscriber[T], len(q.subs))
	copy(subs, q.subs)
	return subs
}

// notify runs outside the lock so listeners may read, mutate or
// (un)subscribe. A subscriber removed earlier in the same pass is skipped.
func (q *Queue[T]) notify(subs []*subscriber[T]) {
	if len(subs) == 0 {
		return
	}
	view := q.View()
	for _, s := range subs {
		if s.active.Load() {
			s.fn(view)
		}
	}
}

type queueView[T any] struct {
	q *Queue[T]
}

func (v queueView[T]) Len() int           { return v.q.Len() }
func (v queueView[T]) At(i int) (T, bool) { return v.q.At(i) }
func (v queueView[T]) Snapshot() []T      { return v.q.Snapshot() }
