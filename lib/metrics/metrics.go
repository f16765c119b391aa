// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureau-foundation/waypoint/lib/barrier"
	"github.com/bureau-foundation/waypoint/lib/plugin"
	"github.com/bureau-foundation/waypoint/lib/version"
)

const namespace = "waypoint"

// unknownService labels requests for services that are not
// registered, keeping label cardinality bounded.
const unknownService = "unknown"

// Metrics records request and dataset metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	admission prometheus.Histogram
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "total",
			Help:      "Requests dispatched, by service and reply status.",
		}, []string{"service", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "duration_seconds",
			Help:      "Time from dispatch to reply, including barrier admission.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"service"}),
		admission: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "barrier",
			Name:      "admission_wait_seconds",
			Help:      "Time queries waited at the barrier while an update was pending.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12),
		}),
	}

	build := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Always 1, labeled with the build version.",
		ConstLabels: prometheus.Labels{"version": version.Version, "commit": version.GitCommit},
	})
	build.Set(1)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.admission,
		build,
	)
	return m
}

// ObserveBarrier exports the barrier's state as gauges read at scrape
// time.
func (m *Metrics) ObserveBarrier(observer barrier.Observer) {
	if m == nil || observer == nil {
		return
	}
	gauge := func(name, help string, value func(barrier.State) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "barrier",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(observer.State()) })
	}
	m.registry.MustRegister(
		gauge("update_pending", "1 while a dataset update is pending or in progress.", func(s barrier.State) float64 {
			if s.UpdatePending {
				return 1
			}
			return 0
		}),
		gauge("active_queries", "Queries currently admitted.", func(s barrier.State) float64 {
			return float64(s.ActiveQueries)
		}),
		gauge("waiting_queries", "Queries blocked behind a pending update.", func(s barrier.State) float64 {
			return float64(s.WaitingQueries)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barrier",
			Name:      "updates_total",
			Help:      "Dataset updates completed, modulo 2^32.",
		}, func() float64 { return float64(observer.Epoch()) }),
	)
}

// ObserveGeneration exports the generation of the dataset being
// served.
func (m *Metrics) ObserveGeneration(generation func() uint64) {
	if m == nil || generation == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dataset",
		Name:      "generation",
		Help:      "Generation of the shared dataset currently served.",
	}, func() float64 { return float64(generation()) }))
}

// ObserveRequest records a dispatched request. Pass registered false
// for unknown services.
func (m *Metrics) ObserveRequest(service string, registered bool, status plugin.Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	if !registered {
		service = unknownService
	}
	m.requests.WithLabelValues(service, strconv.Itoa(int(status))).Inc()
	m.duration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// ObserveAdmission records how long a query waited at the barrier.
func (m *Metrics) ObserveAdmission(waited time.Duration) {
	if m == nil {
		return
	}
	m.admission.Observe(waited.Seconds())
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
