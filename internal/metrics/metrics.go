// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics collects Prometheus metrics for the auth, store and
// generate paths and serves them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	authRequests  *prometheus.CounterVec
	storeFallback *prometheus.CounterVec
	generate      *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ui2code_auth_requests_total",
			Help: "Auth requests by flow and outcome.",
		}, []string{"flow", "outcome"}),
		storeFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ui2code_store_fallback_total",
			Help: "Operations served by the volatile store.",
		}, []string{"op"}),
		generate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ui2code_generate_requests_total",
			Help: "Image-to-code requests by outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ui2code_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.authRequests,
		c.storeFallback,
		c.generate,
		c.httpDuration,
	)

	return c
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// RecordAuth counts one auth request.
func (c *Collector) RecordAuth(flow, outcome string) {
	if c == nil {
		return
	}
	c.authRequests.WithLabelValues(flow, outcome).Inc()
}

// RecordFallback counts one operation that fell back to the volatile store.
func (c *Collector) RecordFallback(op string) {
	if c == nil {
		return
	}
	c.storeFallback.WithLabelValues(op).Inc()
}

// RecordGenerate counts one generate request.
func (c *Collector) RecordGenerate(outcome string) {
	if c == nil {
		return
	}
	c.generate.WithLabelValues(outcome).Inc()
}

// RecordHTTP observes the latency of one HTTP request.
func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
