package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/reqstream/pkg/metrics"
	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

// StreamOptions are the flags shared by every command that drives a stream.
type StreamOptions struct {
	Max              int
	TerminateOnError bool
	MetricsAddr      string
}

func (o *StreamOptions) register(cmd *cobra.Command, env EnvConfig) {
	cmd.Flags().IntVar(&o.Max, "max", 0, "stop after this many results (0 = all)")
	cmd.Flags().BoolVar(&o.TerminateOnError, "terminate-on-error", false, "stop at the first failed request")
	cmd.Flags().StringVar(&o.MetricsAddr, "metrics-addr", env.MetricsAddr,
		"serve /metrics and /healthz on this address while running, default from "+envMetricsAddr)
}

// session holds what one command invocation shares: a run-scoped logger,
// a private metrics registry and the optional metrics server.
type session struct {
	log      *logrus.Entry
	gatherer *prometheus.Registry
	metrics  *metrics.Registry
	server   *MetricsServer
}

func newSession(root *RootOptions, metricsAddr string) (*session, error) {
	logger := NewLogger(root.logOutput(), root.LogLevel)
	reg := prometheus.NewRegistry()

	s := &session{
		log:      logger.WithField("run_id", uuid.NewString()),
		gatherer: reg,
		metrics:  metrics.NewRegistry(reg),
	}

	if metricsAddr != "" {
		s.server = NewMetricsServer(reg, s.log)
		if err := s.server.Start(metricsAddr); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to start metrics server", err)
		}
	}
	return s, nil
}

func (s *session) close() {
	if s.server == nil {
		return
	}
	if err := s.server.Shutdown(); err != nil {
		s.log.WithError(err).Warn("metrics server shutdown")
	}
}

func (s *session) streamConfig(name string) reqstream.Config {
	return reqstream.Config{
		Name:    name,
		Logger:  s.log,
		Metrics: s.metrics,
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM, derived
// from the command's context when it has one.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// drive pulls results from s until it ends, printing each one. budget
// bounds the number of results; 0 means until the stream is terminated.
// Canceling ctx terminates the stream and aborts what is still queued.
func drive[T any](ctx context.Context, s *reqstream.Stream[T], budget int, printer *Printer, render func(T) string) (delivered, failed int, err error) {
	s.OnFunc(reqstream.DataEvent, func(ev reqstream.Event[T]) error {
		delivered++
		item := ev.Item
		r := Record{
			Seq:    delivered,
			ID:     item.Metadata.ID,
			Target: item.Metadata.Target,
			Key:    item.Metadata.Key,
			OK:     !item.Outcome.Failed(),
		}
		if r.OK {
			r.Value = render(item.Outcome.Value())
		} else {
			failed++
			r.Error = item.Outcome.Err().Error()
		}
		return printer.Print(r)
	})

	err = s.Run(ctx, budget)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.Terminate()
		_, _ = s.Pull(context.Background())
		err = nil
	}
	return delivered, failed, err
}

func summarize(delivered, failed int) error {
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d requests failed", failed, delivered))
	}
	return nil
}
