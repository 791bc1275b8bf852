package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// MetricsServer exposes /metrics and /healthz while a command runs.
type MetricsServer struct {
	router *chi.Mux
	log    logrus.FieldLogger
	http   *http.Server
	ln     net.Listener
	done   chan struct{}
}

// NewMetricsServer builds the router serving metrics from gatherer.
func NewMetricsServer(gatherer prometheus.Gatherer, log logrus.FieldLogger) *MetricsServer {
	s := &MetricsServer{
		router: chi.NewRouter(),
		log:    log,
		done:   make(chan struct{}),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))

	s.router.Get("/healthz", handleHealthz)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
}

// Router returns the chi router.
func (s *MetricsServer) Router() *chi.Mux {
	return s.router
}

// Start listens on addr and serves in the background.
func (s *MetricsServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		defer close(s.done)
		s.log.WithField("addr", ln.Addr().String()).Info("metrics server listening")
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

// Addr returns the listening address once started.
func (s *MetricsServer) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *MetricsServer) Shutdown() error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(ctx)
	<-s.done
	return err
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
