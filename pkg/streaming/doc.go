/*
Package streaming provides ordered, observable stream primitives.

  - observable: A mutable FIFO that notifies subscribers whenever it changes
  - reqstream: A request stream that starts operations on admission and
    delivers their outcomes in admission order

Basic usage:

	s := reqstream.New[string](producer)
	s.OnFunc(reqstream.DataEvent, func(ev reqstream.Event[string]) error {
		fmt.Println(ev.Item.Outcome.Value())
		return nil
	})
	s.Admit(reqstream.Request{Target: "a"})
	s.Admit(reqstream.Request{Target: "b"})
	s.Run(ctx, 2)

The stream is backed by an observable queue: a suspended Pull resumes as
soon as a new request is admitted or the stream is terminated.
*/
package streaming
