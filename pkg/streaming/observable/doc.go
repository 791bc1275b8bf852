/*
Package observable provides a FIFO queue that notifies subscribers after
every mutation.

Queue wraps an ordered slice and intercepts the mutating operations (Push,
Shift, Pop, Unshift and Drain). Once a mutation has committed, every current
subscriber is invoked synchronously, in subscription order, with a read-only
View of the queue. Reads never notify.

	q := observable.New[int]()
	sub := q.Subscribe(func(v observable.View[int]) {
		fmt.Println("len", v.Len())
	})
	q.Push(1)    // len 1
	q.Shift()    // len 0
	q.Shift()    // empty, no notification
	q.Unsubscribe(sub)

Notification runs on the goroutine that performed the mutation and after the
queue lock is released, so a listener may read the queue, mutate it, or
remove itself or other listeners. A pass works on a snapshot of the
subscriber list: listeners removed earlier in the pass are skipped and
listeners added during the pass are first called on the next mutation.

The reqstream engine uses a Queue as its only shared structure between
admission and consumption, and registers one-shot listeners on it to wake a
suspended pull.
*/
package observable
