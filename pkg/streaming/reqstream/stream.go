package reqstream

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
	"github.com/vnykmshr/reqstream/pkg/common/validation"
	"github.com/vnykmshr/reqstream/pkg/metrics"
	"github.com/vnykmshr/reqstream/pkg/streaming/observable"
)

const module = "reqstream"

// Termination causes, used as the "cause" metric label.
const (
	causeManual = "manual"
	causeError  = "error"
	causeBudget = "budget"
)

// State is the lifecycle state of a Stream.
type State int

const (
	// Created: nothing has been pulled yet.
	Created State = iota
	// Running: at least one Pull has started and the stream is live.
	Running
	// Draining: termination was requested but the terminal pull has not run.
	Draining
	// Ended: the terminal pull has run and EndEvent has fired.
	Ended
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stream starts operations concurrently as requests are admitted and
// delivers their outcomes one at a time, in admission order.
//
// Admit, Terminate and the listener methods may be called from any
// goroutine. Pull is serialized: concurrent callers take turns. Listeners
// run on the pulling goroutine and must not call Pull or Run.
type Stream[T any] struct {
	name    string
	log     logrus.FieldLogger
	metrics *metrics.Registry

	queue *observable.Queue[*entry[T]]
	hub   *eventHub[T]

	producerMu sync.RWMutex
	producer   Producer[T]

	// admitMu orders admissions against each other and against the
	// terminated flag, so IDs follow queue order and nothing is queued
	// after termination.
	admitMu  sync.Mutex
	entropy  *ulid.MonotonicEntropy
	inFlight atomic.Int64

	terminated       atomic.Bool
	terminateOnError atomic.Bool
	termOnce         sync.Once
	termCh           chan struct{}

	pullMu  sync.Mutex
	started atomic.Bool
	ended   atomic.Bool
}

// New creates a Stream with the default configuration.
func New[T any](producer Producer[T]) *Stream[T] {
	return NewWithConfig(producer, DefaultConfig())
}

// NewWithConfig creates a Stream with the given configuration.
func NewWithConfig[T any](producer Producer[T], config Config) *Stream[T] {
	config = config.withDefaults()
	log := config.Logger.WithField("stream", config.Name)

	return &Stream[T]{
		name:     config.Name,
		log:      log,
		metrics:  config.Metrics,
		queue:    observable.New[*entry[T]](),
		hub:      newEventHub[T](log),
		producer: producer,
		entropy:  ulid.Monotonic(rand.Reader, 0),
		termCh:   make(chan struct{}),
	}
}

// SetOperationProducer replaces the producer used for subsequent
// admissions. Requests already admitted keep the producer they started with.
func (s *Stream[T]) SetOperationProducer(p Producer[T]) {
	s.producerMu.Lock()
	defer s.producerMu.Unlock()
	s.producer = p
}

// Admit starts the request's operation and queues it for delivery. It never
// blocks on queue depth. Admitting to a terminated stream fails with an
// error matching errors.ErrIllegalState and leaves the queue unchanged.
func (s *Stream[T]) Admit(req Request) error {
	s.admitMu.Lock()
	defer s.admitMu.Unlock()

	if s.terminated.Load() {
		if s.metrics != nil {
			s.metrics.StreamRejected.WithLabelValues(s.name).Inc()
		}
		return rserrors.NewIllegalStateError(module, "Admit", "stream is terminated")
	}

	abort := newAbortHandle()
	now := time.Now()
	meta := Metadata{
		ID:         ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Target:     req.Target,
		Key:        routingKey(req),
		Options:    mergeOptions(req.Options, abort),
		Abort:      abort,
		AdmittedAt: now,
	}
	e := newEntry[T](meta)

	s.producerMu.RLock()
	producer := s.producer
	s.producerMu.RUnlock()

	s.trackInFlight(1)
	go s.settle(e, producer)
	depth := s.queue.Push(e)

	if s.metrics != nil {
		s.metrics.StreamAdmitted.WithLabelValues(s.name).Inc()
		s.metrics.StreamQueueDepth.WithLabelValues(s.name).Set(float64(depth))
	}
	s.log.WithFields(logrus.Fields{
		"id":     meta.ID,
		"target": meta.Target,
		"key":    meta.Key,
		"depth":  depth,
	}).Debug("request admitted")

	return nil
}

// settle runs the producer and publishes its outcome.
func (s *Stream[T]) settle(e *entry[T], producer Producer[T]) {
	defer close(e.settled)
	defer s.trackInFlight(-1)

	e.outcome = s.invoke(e.meta, producer)

	if s.metrics != nil {
		s.metrics.StreamSettleDuration.WithLabelValues(s.name).Observe(time.Since(e.meta.AdmittedAt).Seconds())
	}
}

// invoke calls producer, converting errors and panics into failures.
func (s *Stream[T]) invoke(meta Metadata, producer Producer[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{
				"id":     meta.ID,
				"target": meta.Target,
				"panic":  r,
			}).Warn("producer panicked")
			out = Failure[T](operationError(meta, fmt.Errorf("%w: %v", rserrors.ErrProducerPanic, r)))
		}
	}()

	if err := validation.ValidateNotNil(module, "producer", producer); err != nil {
		return Failure[T](operationError(meta, err))
	}

	v, err := producer(meta.Abort.Context(), meta.Target, meta.Options)
	if err != nil {
		return Failure[T](operationError(meta, err))
	}
	return Success(v)
}

func operationError(meta Metadata, err error) error {
	return rserrors.NewOperationError(module, "produce", err).WithContext("target=" + meta.Target)
}

// Pull delivers the next outcome in admission order.
//
// If the queue holds an entry, Pull dequeues it, waits for it to settle,
// emits the per-key event (when the entry has a routing key) and
// DataEvent, and returns the item. If the queue is empty, Pull suspends
// until a request is admitted, Terminate is called, or ctx is done.
//
// Once the stream is terminated, Pull aborts every entry still queued and
// returns a Done result. The first Done result also emits EndEvent and
// clears all listeners.
//
// A ctx that ends while waiting for a dequeued entry to settle puts the
// entry back at the head and returns ctx.Err(), so nothing is lost.
// Listener errors are returned as *errors.ListenerError.
func (s *Stream[T]) Pull(ctx context.Context) (Result[T], error) {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()

	s.started.Store(true)

	for {
		if s.terminated.Load() {
			return s.finish()
		}
		if e, ok := s.queue.Shift(); ok {
			s.recordDepth()
			return s.deliver(ctx, e)
		}
		if err := s.waitForEntries(ctx); err != nil {
			return Result[T]{}, err
		}
	}
}

// waitForEntries suspends until the queue is non-empty, the stream is
// terminated, or ctx is done. The wake-up is a one-shot queue listener:
// mutations that leave the queue empty keep it registered.
func (s *Stream[T]) waitForEntries(ctx context.Context) error {
	wake := make(chan struct{})
	var once sync.Once
	sub := s.queue.Subscribe(func(v observable.View[*entry[T]]) {
		if v.Len() > 0 {
			once.Do(func() { close(wake) })
		}
	})
	defer s.queue.Unsubscribe(sub)

	// An admission between the failed Shift and Subscribe would not notify us.
	if s.queue.Len() > 0 {
		return nil
	}

	select {
	case <-wake:
		return nil
	case <-s.termCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stream[T]) deliver(ctx context.Context, e *entry[T]) (Result[T], error) {
	select {
	case <-e.settled:
	case <-ctx.Done():
		s.queue.Unshift(e)
		s.recordDepth()
		return Result[T]{}, ctx.Err()
	}

	item := &Item[T]{Outcome: e.outcome, Metadata: e.meta}
	failed := item.Outcome.Failed()

	if s.metrics != nil {
		outcome := metrics.OutcomeSuccess
		if failed {
			outcome = metrics.OutcomeFailure
		}
		s.metrics.StreamDelivered.WithLabelValues(s.name, outcome).Inc()
	}

	err := s.emitItem(item)

	// Applied even when a listener failed: the failure already happened.
	if failed && s.terminateOnError.Load() {
		s.terminate(causeError)
	}

	return Result[T]{Item: item}, err
}

func (s *Stream[T]) emitItem(item *Item[T]) error {
	if key := item.Metadata.Key; key != "" {
		if err := s.hub.emit(key, Event[T]{Name: key, Item: item}); err != nil {
			return err
		}
	}
	return s.hub.emit(DataEvent, Event[T]{Name: DataEvent, Item: item})
}

// finish is the terminal drain: abort whatever is still queued, then end
// the stream once.
func (s *Stream[T]) finish() (Result[T], error) {
	drained := s.queue.Drain()
	for _, e := range drained {
		e.meta.Abort.Abort()
	}
	if len(drained) > 0 {
		s.recordDepth()
		if s.metrics != nil {
			s.metrics.StreamAborted.WithLabelValues(s.name).Add(float64(len(drained)))
		}
		s.log.WithField("aborted", len(drained)).Debug("queued requests aborted")
	}

	if !s.ended.CompareAndSwap(false, true) {
		return Result[T]{Done: true}, nil
	}

	s.log.Debug("stream ended")
	s.hub.removeAll(EndEvent)
	err := s.hub.emit(EndEvent, Event[T]{Name: EndEvent})
	s.hub.removeAll()

	return Result[T]{Done: true}, err
}

// Run pulls repeatedly until the stream ends.
//
// With maxIterations > 0, Run counts its pulls and terminates the stream
// before the pull that would exceed the budget, so that pull performs the
// terminal drain. If the stream is already terminated, Run performs exactly
// one pull and returns. Zero means no limit. Run returns the first error
// Pull reports.
func (s *Stream[T]) Run(ctx context.Context, maxIterations int) error {
	if err := validation.ValidateNonNegative(module, "maxIterations", maxIterations); err != nil {
		return err
	}

	iterations := 0
	for {
		if s.terminated.Load() {
			_, err := s.Pull(ctx)
			return err
		}
		if maxIterations > 0 {
			iterations++
			if iterations > maxIterations {
				s.terminate(causeBudget)
			}
		}
		res, err := s.Pull(ctx)
		if err != nil {
			return err
		}
		if res.Done {
			return nil
		}
	}
}

// Terminate stops the stream. It is idempotent. Entries still queued are
// not aborted here but by the next Pull, which Terminate wakes if it is
// waiting on an empty queue.
func (s *Stream[T]) Terminate() {
	s.terminate(causeManual)
}

func (s *Stream[T]) terminate(cause string) {
	s.termOnce.Do(func() {
		s.admitMu.Lock()
		s.terminated.Store(true)
		s.admitMu.Unlock()
		close(s.termCh)

		if s.metrics != nil {
			s.metrics.StreamTerminations.WithLabelValues(s.name, cause).Inc()
		}
		s.log.WithField("cause", cause).Debug("stream terminated")
	})
}

// IsTerminated reports whether Terminate has been called.
func (s *Stream[T]) IsTerminated() bool {
	return s.terminated.Load()
}

// TerminateOnError makes the stream terminate after delivering the first
// failed outcome. There is no way to turn it off again.
func (s *Stream[T]) TerminateOnError() {
	s.terminateOnError.Store(true)
}

// State returns the current lifecycle state.
func (s *Stream[T]) State() State {
	switch {
	case s.ended.Load():
		return Ended
	case s.terminated.Load():
		return Draining
	case s.started.Load():
		return Running
	default:
		return Created
	}
}

// Len returns the number of admitted entries not yet pulled.
func (s *Stream[T]) Len() int {
	return s.queue.Len()
}

// InFlight returns the number of operations that have not settled yet.
func (s *Stream[T]) InFlight() int {
	return int(s.inFlight.Load())
}

// Name returns the configured stream name.
func (s *Stream[T]) Name() string {
	return s.name
}

// On registers l for event. Registering the same listener twice makes it
// fire twice.
func (s *Stream[T]) On(event string, l *Listener[T]) {
	s.hub.on(event, l)
}

// OnFunc registers fn for event and returns its Listener for later removal.
func (s *Stream[T]) OnFunc(event string, fn func(Event[T]) error) *Listener[T] {
	l := NewListener(fn)
	s.hub.on(event, l)
	return l
}

// Emit calls the listeners of event synchronously, in registration order.
// The first listener error stops the pass and is returned as a
// *errors.ListenerError.
func (s *Stream[T]) Emit(event string, item *Item[T]) error {
	return s.hub.emit(event, Event[T]{Name: event, Item: item})
}

// RemoveListeners removes every registration of l for event.
func (s *Stream[T]) RemoveListeners(event string, l *Listener[T]) {
	s.hub.remove(event, l)
}

// RemoveAllEventListeners removes the listeners of every event not named
// in except.
func (s *Stream[T]) RemoveAllEventListeners(except ...string) {
	s.hub.removeAll(except...)
}

// ListenerCount returns the number of registrations for event.
func (s *Stream[T]) ListenerCount(event string) int {
	return s.hub.count(event)
}

func (s *Stream[T]) trackInFlight(delta int64) {
	n := s.inFlight.Add(delta)
	if s.metrics != nil {
		s.metrics.StreamInFlight.WithLabelValues(s.name).Set(float64(n))
	}
}

func (s *Stream[T]) recordDepth() {
	if s.metrics != nil {
		s.metrics.StreamQueueDepth.WithLabelValues(s.name).Set(float64(s.queue.Len()))
	}
}
