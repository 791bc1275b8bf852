/*
Package reqstream is an asynchronous request-stream multiplexer for Go.

Requests are admitted in order, their operations start immediately and run
concurrently, and outcomes are delivered strictly in admission order no matter
when each operation settles.

Streaming (pkg/streaming):
  - observable: Mutable queue that notifies subscribers on every change
  - reqstream: Ordered stream engine with an embedded event hub

Producers (pkg/producer):
  - httpfetch: HTTP GET producer with status, timeout and abort handling
  - redisop: Redis lookup producer (GET, HGET, HGETALL, EXISTS, TTL)
  - throttle: Rate and concurrency limits around any producer

Rate Limiting (pkg/ratelimit):
  - bucket: Token bucket limiter with burst capacity
  - concurrency: Bound the number of in-flight operations

Scheduling (pkg/scheduling):
  - feeder: Cron-driven admission of requests into a stream

Example usage:

	import (
		"github.com/vnykmshr/reqstream/pkg/producer/httpfetch"
		"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
	)

	s := reqstream.NewWithConfig[*httpfetch.Response](httpfetch.New().Fetch, reqstream.DefaultConfig())
	s.OnFunc(reqstream.DataEvent, func(ev reqstream.Event[*httpfetch.Response]) error {
		fmt.Println(ev.Item.Metadata.Target, ev.Item.Outcome)
		return nil
	})

	s.Admit(reqstream.Request{Target: "https://example.com/a"})
	s.Admit(reqstream.Request{Target: "https://example.com/b"})
	s.Run(ctx, 2)
*/
package reqstream
