package feeder

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/reqstream/internal/testutil"
	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
	"github.com/vnykmshr/reqstream/pkg/metrics"
	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

// recordingAdmitter records admissions and fails them with err when set.
type recordingAdmitter struct {
	mu         sync.Mutex
	admitted   []reqstream.Request
	err        error
	terminated bool
}

func (a *recordingAdmitter) Admit(req reqstream.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.admitted = append(a.admitted, req)
	return nil
}

func (a *recordingAdmitter) IsTerminated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.terminated
}

func (a *recordingAdmitter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.admitted)
}

func newTestFeeder(t *testing.T, target Admitter) (*Feeder, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	f, err := New(target, Config{Name: "test", Metrics: reg})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { <-f.Stop().Done() })
	return f, reg
}

func TestNewRequiresTarget(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	testutil.AssertErrorIs(t, err, rserrors.ErrInvalidConfiguration)
}

func TestScheduleValidation(t *testing.T) {
	f, _ := newTestFeeder(t, &recordingAdmitter{})

	tests := []struct {
		name string
		spec string
		req  reqstream.Request
		opts Options
	}{
		{"empty spec", "", reqstream.Request{Target: "a"}, Options{}},
		{"bad spec", "not a schedule", reqstream.Request{Target: "a"}, Options{}},
		{"empty target", "@every 1s", reqstream.Request{}, Options{}},
		{"negative max runs", "@every 1s", reqstream.Request{Target: "a"}, Options{MaxRuns: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ScheduleWithOptions(tt.spec, tt.req, tt.opts)
			testutil.AssertEqual(t, rserrors.IsValidationError(err), true)
		})
	}
	testutil.AssertEqual(t, len(f.Jobs()), 0)
}

func TestScheduleAcceptsOptionalSeconds(t *testing.T) {
	f, _ := newTestFeeder(t, &recordingAdmitter{})

	for _, spec := range []string{"*/5 * * * *", "*/10 * * * * *", "@hourly", "@every 90s"} {
		_, err := f.Schedule(spec, reqstream.Request{Target: "a"})
		testutil.AssertNoError(t, err)
	}
	testutil.AssertEqual(t, len(f.Jobs()), 4)
}

func TestFireAdmits(t *testing.T) {
	target := &recordingAdmitter{}
	f, reg := newTestFeeder(t, target)

	req := reqstream.Request{Target: "a", Key: "k"}
	id, err := f.Schedule("@hourly", req)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, f.Fire(id))
	testutil.AssertNoError(t, f.Fire(id))
	testutil.AssertEqual(t, target.count(), 2)
	testutil.AssertEqual(t, target.admitted[0].Key, "k")

	jobs := f.Jobs()
	testutil.AssertEqual(t, len(jobs), 1)
	testutil.AssertEqual(t, jobs[0].Runs, 2)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.FeederFires.WithLabelValues("test", resultAdmitted)), 2.0)
}

func TestFireUnknownID(t *testing.T) {
	f, _ := newTestFeeder(t, &recordingAdmitter{})
	testutil.AssertNoError(t, f.Fire(42))
}

func TestMaxRunsRemovesSchedule(t *testing.T) {
	target := &recordingAdmitter{}
	f, _ := newTestFeeder(t, target)

	id, err := f.ScheduleWithOptions("@hourly", reqstream.Request{Target: "a"}, Options{MaxRuns: 2})
	testutil.AssertNoError(t, err)

	for i := 0; i < 4; i++ {
		testutil.AssertNoError(t, f.Fire(id))
	}
	testutil.AssertEqual(t, target.count(), 2)
	testutil.AssertEqual(t, len(f.Jobs()), 0)

	_, err = f.Next(id)
	testutil.AssertError(t, err)
}

func TestAdmissionErrorIsReported(t *testing.T) {
	boom := errors.New("boom")
	target := &recordingAdmitter{err: boom}
	f, reg := newTestFeeder(t, target)

	id, err := f.Schedule("@hourly", reqstream.Request{Target: "a"})
	testutil.AssertNoError(t, err)

	testutil.AssertErrorIs(t, f.Fire(id), boom)
	testutil.AssertEqual(t, f.Stopped(), false)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.FeederFires.WithLabelValues("test", resultRejected)), 1.0)
}

func TestTerminatedStreamStopsFeeder(t *testing.T) {
	s := reqstream.New[string](testutil.NewScriptedProducer().Produce)
	f, reg := newTestFeeder(t, s)

	id, err := f.Schedule("@hourly", reqstream.Request{Target: "a"})
	testutil.AssertNoError(t, err)
	_, err = f.Schedule("@daily", reqstream.Request{Target: "b"})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, f.Fire(id))
	testutil.AssertEqual(t, s.Len(), 1)

	s.Terminate()
	testutil.AssertNoError(t, f.Fire(id))

	testutil.AssertEqual(t, f.Stopped(), true)
	testutil.AssertEqual(t, len(f.Jobs()), 0)
	testutil.AssertEqual(t, s.Len(), 1)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.FeederFires.WithLabelValues("test", resultStopped)), 1.0)

	_, err = f.Schedule("@hourly", reqstream.Request{Target: "c"})
	testutil.AssertErrorIs(t, err, rserrors.ErrIllegalState)
}

func TestIllegalStateStopsFeeder(t *testing.T) {
	target := &recordingAdmitter{err: rserrors.NewIllegalStateError("reqstream", "Admit", "stream is terminated")}
	f, _ := newTestFeeder(t, target)

	id, err := f.Schedule("@hourly", reqstream.Request{Target: "a"})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, f.Fire(id))
	testutil.AssertEqual(t, f.Stopped(), true)
}

func TestRemove(t *testing.T) {
	f, _ := newTestFeeder(t, &recordingAdmitter{})
	id, err := f.Schedule("@hourly", reqstream.Request{Target: "a"})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, f.Remove(id), true)
	testutil.AssertEqual(t, f.Remove(id), false)
}

func TestCronFiresIntoStream(t *testing.T) {
	s := reqstream.New[string](testutil.NewScriptedProducer().Produce)
	f, _ := newTestFeeder(t, s)

	id, err := f.Schedule("@every 1s", reqstream.Request{Target: "tick"})
	testutil.AssertNoError(t, err)
	f.Start()

	testutil.Eventually(t, func() bool {
		next, err := f.Next(id)
		return err == nil && !next.IsZero()
	}, time.Second, 10*time.Millisecond)
	testutil.Eventually(t, func() bool { return s.Len() >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	res, err := s.Pull(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res.Item.Outcome.Value(), "tick")

	s.Terminate()
	testutil.Eventually(t, f.Stopped, 3*time.Second, 20*time.Millisecond)
}
