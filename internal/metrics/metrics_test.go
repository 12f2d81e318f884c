// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordAuth("signup", "ok")
	c.RecordAuth("signup", "ok")
	c.RecordAuth("login", "not_found")

	count, err := testutil.GatherAndCount(reg, "ui2code_auth_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per label set")
}

func TestRecordFallbackAndGenerate(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordFallback("signup")
	c.RecordGenerate("mock")
	c.RecordHTTP("GET", "/health", 200, 5*time.Millisecond)

	for _, name := range []string{
		"ui2code_store_fallback_total",
		"ui2code_generate_requests_total",
		"ui2code_http_request_duration_seconds",
	} {
		count, err := testutil.GatherAndCount(reg, name)
		require.NoError(t, err)
		assert.Equal(t, 1, count, name)
	}
}

func TestNilCollector(t *testing.T) {
	var c *metrics.Collector

	assert.NotPanics(t, func() {
		c.RecordAuth("signup", "ok")
		c.RecordFallback("signup")
		c.RecordGenerate("ok")
		c.RecordHTTP("GET", "/", 200, time.Second)
	})
}

func TestHandler(t *testing.T) {
	reg := metrics.NewRegistry()
	c := metrics.NewCollector(reg)
	c.RecordAuth("login", "ok")

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ui2code_auth_requests_total{flow="login",outcome="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
