package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/reqstream/pkg/metrics"
)

func discardLogger() logrus.FieldLogger {
	return NewLogger(io.Discard, "error")
}

func TestMetricsServerRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRegistry(reg)
	m.StreamAdmitted.WithLabelValues("fetch").Add(3)

	srv := NewMetricsServer(reg, discardLogger())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `reqstream_stream_admitted_total{stream_name="fetch"} 3`)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsServerCORS(t *testing.T) {
	srv := NewMetricsServer(prometheus.NewRegistry(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsServerStartShutdown(t *testing.T) {
	srv := NewMetricsServer(prometheus.NewRegistry(), discardLogger())
	require.NoError(t, srv.Start("127.0.0.1:0"))

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	require.NoError(t, srv.Shutdown())
	_, err = http.Get("http://" + srv.Addr() + "/healthz")
	assert.Error(t, err)
}

func TestMetricsServerShutdownWithoutStart(t *testing.T) {
	srv := NewMetricsServer(prometheus.NewRegistry(), discardLogger())
	assert.NoError(t, srv.Shutdown())
	assert.Empty(t, srv.Addr())
}
