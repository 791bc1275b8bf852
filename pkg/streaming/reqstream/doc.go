/*
Package reqstream multiplexes concurrent asynchronous operations into a
single, ordered stream of results.

Each admitted Request starts its operation immediately, so operations run
concurrently, but outcomes are delivered strictly in admission order: a
slow first request holds back faster later ones until it settles.

	s := reqstream.New[string](func(ctx context.Context, target string, opts map[string]any) (string, error) {
		return lookup(ctx, target)
	})

	s.OnFunc(reqstream.DataEvent, func(ev reqstream.Event[string]) error {
		fmt.Println(ev.Item.Metadata.Target, ev.Item.Outcome)
		return nil
	})

	s.Admit(reqstream.Request{Target: "a"})
	s.Admit(reqstream.Request{Target: "b", Key: "important"})

	err := s.Run(ctx, 2)

Delivery:

Pull delivers one item and Run pulls in a loop. Each delivered item is
emitted first under its routing key (when it has one) and then as
DataEvent. Failures are delivered like successes; the Outcome says which.
With TerminateOnError the first delivered failure terminates the stream.

Termination:

Terminate marks the stream terminated and wakes a Pull waiting on an empty
queue. The next Pull aborts every request still queued through its
AbortHandle, emits EndEvent exactly once, and removes every listener.
Admitting to a terminated stream returns an error matching
errors.ErrIllegalState.

Producers:

A Producer receives the request's target and options. The options always
carry the request's AbortHandle under AbortOptionKey, and the context
passed to the producer is done once the handle is aborted. NewFetch builds
a stream over the httpfetch producer.
*/
package reqstream
