// Package metrics provides Prometheus metrics for the intake pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealintake"

// Metrics holds every collector on a private registry, so tests and multiple
// servers in one process do not collide. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// SegmentsTotal tracks segments by outcome: deal, noise or failed
	SegmentsTotal *prometheus.CounterVec

	// DealsClassified tracks classified deals by frequency band
	DealsClassified *prometheus.CounterVec

	// InventoryMatches tracks how many candidates a match call returned
	InventoryMatches prometheus.Histogram

	// OperationDuration tracks service operations in seconds
	OperationDuration *prometheus.HistogramVec

	// PatternReloads tracks pattern override updates by result
	PatternReloads *prometheus.CounterVec

	// HTTPRequestsTotal tracks served HTTP requests
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration tracks served HTTP request duration
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers the pipeline metrics, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SegmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "segments_total",
				Help:      "Total number of message segments by outcome",
			},
			[]string{"outcome"},
		),

		DealsClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dedupe",
				Name:      "deals_total",
				Help:      "Total number of classified deals by frequency band",
			},
			[]string{"band"},
		),

		InventoryMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "matcher",
				Name:      "candidates",
				Help:      "Number of inventory candidates returned per match",
				Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
			},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "service",
				Name:      "operation_duration_seconds",
				Help:      "Duration of intake service operations in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),

		PatternReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "pattern_reloads_total",
				Help:      "Total number of pattern override updates by result",
			},
			[]string{"result"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SegmentsTotal,
		m.DealsClassified,
		m.InventoryMatches,
		m.OperationDuration,
		m.PatternReloads,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Segment counts one segment outcome
func (m *Metrics) Segment(outcome string) {
	if m == nil {
		return
	}
	m.SegmentsTotal.WithLabelValues(outcome).Inc()
}

// Classified counts one classified deal
func (m *Metrics) Classified(band string) {
	if m == nil {
		return
	}
	m.DealsClassified.WithLabelValues(band).Inc()
}

// Matched records the size of one match result
func (m *Metrics) Matched(n int) {
	if m == nil {
		return
	}
	m.InventoryMatches.Observe(float64(n))
}

// ObserveOperation records how long an operation took since start
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// PatternReload counts one pattern update
func (m *Metrics) PatternReload(result string) {
	if m == nil {
		return
	}
	m.PatternReloads.WithLabelValues(result).Inc()
}

// HTTPRequest records one served request
func (m *Metrics) HTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
