package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/prometheus"
)

func TestRequestLogging_RecordsMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	metrics := prometheus.NewAppMetrics(reg)

	handler := RequestLogging(logging.NewNopLogger(), metrics, DefaultLoggingConfig())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dock", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/dock", "418")))
}

func TestRequestLogging_SkipsConfiguredPaths(t *testing.T) {
	reg := promclient.NewRegistry()
	metrics := prometheus.NewAppMetrics(reg)

	handler := RequestLogging(logging.NewNopLogger(), metrics, DefaultLoggingConfig())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, testutil.CollectAndCount(metrics.HTTPRequestsTotal))
}

func TestRequestLogging_DefaultStatusIs200(t *testing.T) {
	reg := promclient.NewRegistry()
	metrics := prometheus.NewAppMetrics(reg)

	handler := RequestLogging(logging.NewNopLogger(), metrics, DefaultLoggingConfig())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("implicit ok"))
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/structures", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/structures", "200")))
}
