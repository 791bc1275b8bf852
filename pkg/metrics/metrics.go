// Package metrics provides Prometheus instrumentation for reqstream components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values used by StreamDelivered and ProducerRequests.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Registry holds all metric instances for reqstream components.
type Registry struct {
	// Stream Engine Metrics
	StreamAdmitted       *prometheus.CounterVec
	StreamRejected       *prometheus.CounterVec
	StreamDelivered      *prometheus.CounterVec
	StreamAborted        *prometheus.CounterVec
	StreamTerminations   *prometheus.CounterVec
	StreamQueueDepth     *prometheus.GaugeVec
	StreamInFlight       *prometheus.GaugeVec
	StreamSettleDuration *prometheus.HistogramVec

	// Operation Producer Metrics
	ProducerRequests *prometheus.CounterVec
	ProducerDuration *prometheus.HistogramVec
	ThrottleWait     *prometheus.HistogramVec

	// Feeder Metrics
	FeederFires *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by reqstream components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer
// under the default namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a registry honoring the namespace and constant
// labels of config. A nil config.Registry falls back to prometheus.DefaultRegisterer.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Registry{
		// Stream Engine Metrics
		StreamAdmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "admitted_total",
				Help:        "Total number of requests admitted to a stream",
				ConstLabels: config.Labels,
			},
			[]string{"stream_name"},
		),

		StreamRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "rejected_total",
				Help:        "Total number of admissions rejected because the stream was terminated",
				ConstLabels: config.Labels,
			},
			[]string{"stream_name"},
		),

		StreamDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "delivered_total",
				Help:        "Total number of outcomes delivered by pull, by outcome",
				ConstLabels: config.Labels,
			},
			[]string{"stream_name", "outcome"},
		),

		StreamAborted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "aborted_total",
				Help:        "Total number of queued entries aborted by the terminal drain",
				ConstLabels: config.Labels,
			},
			[]string{"stream_name"},
		),

		StreamTerminations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "terminations_total",
				Help:        "Total number of stream terminations, by cause",
				ConstLabels: config.Labels,
			},
			[]string{"stream_name", "cause"},
		),

		StreamQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "queue_depth",
				Help:        "Number of admitted entries waiting to be pulled",
				ConstLabels: config.Labels,
			},
			[]string{"stream_name"},
		),

		StreamInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "in_flight",
				Help:        "Number of operations started but not yet settled",
				ConstLabels: config.Labels,
			},
			[]string{"stream_name"},
		),

		StreamSettleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "settle_duration_seconds",
				Help:        "Time from admission until the operation settled",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: config.Labels,
			},
			[]string{"stream_name"},
		),

		// Operation Producer Metrics
		ProducerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "producer",
				Name:        "requests_total",
				Help:        "Total number of operations issued by a producer, by outcome",
				ConstLabels: config.Labels,
			},
			[]string{"producer", "outcome"},
		),

		ProducerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "producer",
				Name:        "request_duration_seconds",
				Help:        "Time spent performing producer operations",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: config.Labels,
			},
			[]string{"producer"},
		),

		ThrottleWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "producer",
				Name:        "throttle_wait_seconds",
				Help:        "Time operations waited for a rate limit token before starting",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: config.Labels,
			},
			[]string{"producer"},
		),

		// Feeder Metrics
		FeederFires: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "feeder",
				Name:        "fires_total",
				Help:        "Total number of scheduled admissions, by result",
				ConstLabels: config.Labels,
			},
			[]string{"feeder_name", "result"},
		),
	}
}
