package cli

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv(envLogLevel, "")
	t.Setenv(envMetricsAddr, "")
	t.Setenv(envRedisAddr, "")

	cfg := LoadEnv()
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.Equal(t, defaultRedisAddr, cfg.RedisAddr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(envLogLevel, "WARN")
	t.Setenv(envMetricsAddr, ":9100")
	t.Setenv(envRedisAddr, "redis:6380")

	cfg := LoadEnv()
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	l := NewLogger(&buf, "warn")
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.Equal(t, logrus.InfoLevel, NewLogger(&buf, "loud").GetLevel())
}
