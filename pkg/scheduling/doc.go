/*
Package scheduling holds time-driven helpers that feed work into streams.

  - feeder: Cron-scheduled admission of requests into a reqstream.Stream

A feeder admits one request per schedule firing and stops itself once its
target stream terminates:

	f, _ := feeder.New(stream, feeder.DefaultConfig())
	f.Schedule("@every 30s", reqstream.Request{Target: "https://example.com/health"})
	f.Start()
	defer f.Stop()

Jobs are registered on a robfig/cron scheduler; the six-field form with a
leading seconds field and the "@every" descriptors are both accepted.
*/
package scheduling
