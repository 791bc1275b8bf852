package feeder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
	"github.com/vnykmshr/reqstream/pkg/common/validation"
	"github.com/vnykmshr/reqstream/pkg/metrics"
	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

const module = "feeder"

// Fire results, used as the "result" metric label.
const (
	resultAdmitted = "admitted"
	resultRejected = "rejected"
	resultStopped  = "stopped"
)

// Admitter is the part of a stream a Feeder needs. Any *reqstream.Stream
// satisfies it.
type Admitter interface {
	Admit(req reqstream.Request) error
	IsTerminated() bool
}

// Config holds configuration for a Feeder.
type Config struct {
	// Name labels log entries and metrics.
	Name string

	// Location is the time zone schedules are evaluated in. Nil means
	// time.Local.
	Location *time.Location

	// Logger receives fire and lifecycle logs. Nil discards all output.
	Logger logrus.FieldLogger

	// Metrics records fire counts. Nil disables it.
	Metrics *metrics.Registry
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{Name: "default"}
}

// Options tune a single schedule.
type Options struct {
	// MaxRuns removes the schedule after that many admissions. 0 = unlimited.
	MaxRuns int
}

// Job describes one schedule.
type Job struct {
	ID      cron.EntryID
	Spec    string
	Request reqstream.Request
	Runs    int
	MaxRuns int
	Next    time.Time
}

type job struct {
	id      cron.EntryID
	spec    string
	req     reqstream.Request
	runs    int
	maxRuns int
}

// Feeder admits requests into a stream on cron schedules. Once the stream
// is terminated the feeder removes every schedule and stops.
type Feeder struct {
	name    string
	log     logrus.FieldLogger
	metrics *metrics.Registry
	target  Admitter
	cron    *cron.Cron
	parser  cron.Parser

	mu      sync.Mutex
	jobs    map[cron.EntryID]*job
	stopped bool
}

// New creates a Feeder admitting into target.
func New(target Admitter, config Config) (*Feeder, error) {
	if err := validation.ValidateNotNil(module, "target", target); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		config.Logger = l
	}
	log := config.Logger.WithField("feeder", config.Name)

	// Seconds are optional so both "*/5 * * * *" and "*/10 * * * * *" parse.
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cronLog := cron.PrintfLogger(log)

	return &Feeder{
		name:    config.Name,
		log:     log,
		metrics: config.Metrics,
		target:  target,
		parser:  parser,
		jobs:    make(map[cron.EntryID]*job),
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(config.Location),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}, nil
}

// Schedule admits req every time spec fires.
func (f *Feeder) Schedule(spec string, req reqstream.Request) (cron.EntryID, error) {
	return f.ScheduleWithOptions(spec, req, Options{})
}

// ScheduleWithOptions admits req every time spec fires, subject to opts.
func (f *Feeder) ScheduleWithOptions(spec string, req reqstream.Request, opts Options) (cron.EntryID, error) {
	if err := validation.ValidateNotEmpty(module, "spec", spec); err != nil {
		return 0, err
	}
	if err := validation.ValidateNotEmpty(module, "target", req.Target); err != nil {
		return 0, err
	}
	if err := validation.ValidateNonNegative(module, "maxRuns", opts.MaxRuns); err != nil {
		return 0, err
	}
	schedule, err := f.parser.Parse(spec)
	if err != nil {
		return 0, rserrors.NewValidationError(module, "spec", spec, err.Error()).
			WithHint(`use a cron expression such as "*/5 * * * *" or "@every 1m"`)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return 0, rserrors.NewIllegalStateError(module, "Schedule", "feeder is stopped")
	}

	j := &job{spec: spec, req: req, maxRuns: opts.MaxRuns}
	j.id = f.cron.Schedule(schedule, cron.FuncJob(func() { _ = f.fire(j) }))
	f.jobs[j.id] = j

	f.log.WithFields(logrus.Fields{"id": j.id, "spec": spec, "target": req.Target}).Debug("schedule added")
	return j.id, nil
}

// Fire admits the request of schedule id once, as if its spec had fired.
// It returns the admission error, if any. A terminated stream stops the
// feeder.
func (f *Feeder) Fire(id cron.EntryID) error {
	f.mu.Lock()
	j, ok := f.jobs[id]
	f.mu.Unlock()
	if !ok {
		return nil
	}
	return f.fire(j)
}

func (f *Feeder) fire(j *job) error {
	f.mu.Lock()
	if _, ok := f.jobs[j.id]; !ok || f.stopped {
		f.mu.Unlock()
		return nil
	}
	id, req := j.id, j.req
	f.mu.Unlock()

	if f.target.IsTerminated() {
		f.record(resultStopped)
		f.shutdown()
		return nil
	}

	err := f.target.Admit(req)
	switch {
	case rserrors.IsIllegalState(err):
		f.record(resultStopped)
		f.shutdown()
		return nil
	case err != nil:
		f.record(resultRejected)
		f.log.WithError(err).WithField("target", req.Target).Warn("admission failed")
		return err
	}
	f.record(resultAdmitted)

	f.mu.Lock()
	j.runs++
	done := j.maxRuns > 0 && j.runs >= j.maxRuns
	f.mu.Unlock()

	if done {
		f.Remove(id)
	}
	return nil
}

// Remove deletes schedule id. It reports whether the schedule existed.
func (f *Feeder) Remove(id cron.EntryID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		return false
	}
	delete(f.jobs, id)
	f.cron.Remove(id)
	f.log.WithField("id", id).Debug("schedule removed")
	return true
}

// Jobs lists the active schedules.
func (f *Feeder) Jobs() []Job {
	f.mu.Lock()
	defer f.mu.Unlock()

	jobs := make([]Job, 0, len(f.jobs))
	for id, j := range f.jobs {
		jobs = append(jobs, Job{
			ID:      id,
			Spec:    j.spec,
			Request: j.req,
			Runs:    j.runs,
			MaxRuns: j.maxRuns,
			Next:    f.cron.Entry(id).Next,
		})
	}
	return jobs
}

// Next returns the next fire time of schedule id. It is zero before Start.
func (f *Feeder) Next(id cron.EntryID) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		return time.Time{}, fmt.Errorf("%s: schedule %d not found", module, id)
	}
	return f.cron.Entry(id).Next, nil
}

// Start runs the schedules in the background.
func (f *Feeder) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.cron.Start()
	f.log.Debug("feeder started")
}

// Stop halts the schedules. The returned context is done once fires in
// progress have finished.
func (f *Feeder) Stop() context.Context {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	f.log.Debug("feeder stopped")
	return f.cron.Stop()
}

// Stopped reports whether the feeder has stopped, either by Stop or
// because its stream terminated.
func (f *Feeder) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// shutdown stops the feeder from inside a fire, where waiting for running
// fires would wait on itself.
func (f *Feeder) shutdown() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	for id := range f.jobs {
		f.cron.Remove(id)
		delete(f.jobs, id)
	}
	f.mu.Unlock()

	f.cron.Stop()
	f.log.Info("stream terminated, feeder stopped")
}

func (f *Feeder) record(result string) {
	if f.metrics != nil {
		f.metrics.FeederFires.WithLabelValues(f.name, result).Inc()
	}
}
