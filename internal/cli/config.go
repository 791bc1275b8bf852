package cli

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	defaultLogLevel  = "info"
	defaultRedisAddr = "localhost:6379"

	envLogLevel    = "REQSTREAM_LOG_LEVEL"
	envMetricsAddr = "REQSTREAM_METRICS_ADDR"
	envRedisAddr   = "REQSTREAM_REDIS_ADDR"
)

// EnvConfig holds defaults read from the environment. Flags override it.
type EnvConfig struct {
	LogLevel    string
	MetricsAddr string
	RedisAddr   string
}

// LoadEnv reads configuration from environment variables with sensible
// defaults.
func LoadEnv() EnvConfig {
	cfg := EnvConfig{
		LogLevel:  defaultLogLevel,
		RedisAddr: defaultRedisAddr,
	}

	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(envMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		cfg.RedisAddr = v
	}

	return cfg
}

// NewLogger creates a text logger writing to w. Unknown levels fall back
// to info.
func NewLogger(w io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
