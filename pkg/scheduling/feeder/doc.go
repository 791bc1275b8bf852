// Package feeder admits requests into a stream on cron schedules.
//
// A Feeder wraps a robfig/cron scheduler. Each schedule pairs a cron
// expression with a request; every time the expression fires, the request
// is admitted into the target stream. Expressions accept an optional
// leading seconds field and the usual descriptors:
//
//	f, _ := feeder.New(stream, feeder.Config{Name: "poller"})
//	f.Schedule("*/30 * * * * *", reqstream.Request{Target: "https://example.com/health"})
//	f.ScheduleWithOptions("@every 1m", reqstream.Request{Target: "https://example.com/stats"},
//		feeder.Options{MaxRuns: 10})
//	f.Start()
//	defer f.Stop()
//
// When the stream is terminated the next fire removes every schedule and
// stops the feeder, so a feeder never outlives its stream.
package feeder
