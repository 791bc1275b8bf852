package reqstream

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/vnykmshr/reqstream/pkg/metrics"
)

// Config holds configuration for a Stream.
type Config struct {
	// Name labels log entries and metrics.
	Name string

	// Logger receives debug-level lifecycle logs and warnings about
	// panicking producers. Nil discards all output.
	Logger logrus.FieldLogger

	// Metrics records stream instrumentation. Nil disables it.
	Metrics *metrics.Registry
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Name: "default",
	}
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultConfig().Name
	}
	if c.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.Logger = l
	}
	return c
}
