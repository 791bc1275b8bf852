package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistryWithConfigNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistryWithConfig(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "myapp",
		Labels:    prometheus.Labels{"env": "test"},
	})

	r.StreamQueueDepth.WithLabelValues("s").Set(4)

	expected := `
# HELP myapp_stream_queue_depth Number of admitted entries waiting to be pulled
# TYPE myapp_stream_queue_depth gauge
myapp_stream_queue_depth{env="test",stream_name="s"} 4
`
	if err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "myapp_stream_queue_depth"); err != nil {
		t.Fatalf("unexpected metrics output: %v", err)
	}
}

func TestConfigBuild(t *testing.T) {
	if got := (Config{Enabled: false}).Build(); got != nil {
		t.Fatal("disabled config should build a nil registry")
	}
	if got := DefaultConfig().Build(); got != DefaultRegistry {
		t.Fatal("default config should reuse DefaultRegistry")
	}

	reg := prometheus.NewRegistry()
	r := Config{Enabled: true, Registry: reg}.Build()
	if r == nil || r == DefaultRegistry {
		t.Fatal("custom registerer should produce a dedicated registry")
	}
	r.FeederFires.WithLabelValues("f", "admitted").Inc()
	if n := promtest.CollectAndCount(r.FeederFires); n != 1 {
		t.Fatalf("got %d feeder series, want 1", n)
	}
}

func TestRegistriesAreIsolated(t *testing.T) {
	a := NewRegistry(prometheus.NewRegistry())
	b := NewRegistry(prometheus.NewRegistry())

	a.StreamAborted.WithLabelValues("s").Add(2)

	if got := promtest.ToFloat64(b.StreamAborted.WithLabelValues("s")); got != 0 {
		t.Fatalf("registry b saw %v aborts, want 0", got)
	}
}
