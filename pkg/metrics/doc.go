// Package metrics provides Prometheus instrumentation for reqstream components.
//
// # Overview
//
// The metrics package provides instrumentation for:
//   - Stream engines (admissions, rejections, deliveries, aborts, queue depth)
//   - Operation producers (requests by outcome, request latency, throttle waits)
//   - Scheduled feeders (fires by result)
//
// # Quick Start
//
// Pass a registry in a component's Config:
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	s := reqstream.NewWithConfig(producer, reqstream.Config{Name: "orders", Metrics: reg})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
// ## Stream Metrics
//
//   - reqstream_stream_admitted_total: Requests admitted to a stream
//   - reqstream_stream_rejected_total: Admissions rejected after termination
//   - reqstream_stream_delivered_total: Outcomes delivered, labeled by outcome
//   - reqstream_stream_aborted_total: Queued entries aborted by the terminal drain
//   - reqstream_stream_terminations_total: Terminations, labeled by cause
//   - reqstream_stream_queue_depth: Entries waiting to be pulled
//   - reqstream_stream_in_flight: Operations started but not settled
//   - reqstream_stream_settle_duration_seconds: Admission-to-settlement latency
//
// ## Producer Metrics
//
//   - reqstream_producer_requests_total: Producer operations, labeled by outcome
//   - reqstream_producer_request_duration_seconds: Producer operation latency
//   - reqstream_producer_throttle_wait_seconds: Time a throttled operation waited to start
//
// ## Feeder Metrics
//
//   - reqstream_feeder_fires_total: Scheduled admissions, labeled by result
//
// # Labels
//
//   - stream_name: User-provided name for the stream instance
//   - producer: "httpfetch", "redisop", or the throttle's configured name
//   - feeder_name: User-provided name for the feeder instance
//   - outcome: "success" or "failure"
//   - cause: "manual", "error" or "budget"
//   - result: "admitted", "rejected" or "stopped"
//
// # Configuration
//
//	config := metrics.Config{
//		Enabled:   true,                                // Enable/disable metrics
//		Registry:  prometheus.DefaultRegisterer,        // Custom registry
//		Namespace: "myapp",                             // Override default "reqstream"
//		Labels:    prometheus.Labels{"version": "1.0"}, // Additional labels
//	}
//	reg := config.Build() // nil when disabled
//
// A nil *Registry disables instrumentation in every component.
package metrics
