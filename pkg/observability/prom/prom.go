// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pedigree/pkg/observability"
)

const namespace = "pedigree"

// Metrics records pipeline, cache and store events.
type Metrics struct {
	gatherer prometheus.Gatherer

	operations    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	individuals   prometheus.Gauge
	cacheEvents   *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	documentBytes prometheus.Gauge
}

// New registers the metrics with reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Pedigree mutations by kind and outcome.",
		}, []string{"op", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"stage"}),
		individuals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "individuals",
			Help:      "Individuals in the most recently laid out pedigree.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache hits, misses and writes by entry type.",
		}, []string{"type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache by entry type.",
		}, []string{"type"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Document loads and saves by backend and outcome.",
		}, []string{"backend", "op", "status"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "duration_seconds",
			Help:      "Duration of document loads and saves.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		documentBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "document_bytes",
			Help:      "Size of the most recently saved document.",
		}),
	}
	reg.MustRegister(
		m.operations, m.stageDuration, m.individuals,
		m.cacheEvents, m.cacheBytes,
		m.storeOps, m.storeDuration, m.documentBytes,
	)
	return m
}

// Register installs m as the global pipeline, cache and store hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetStoreHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) OnMutateStart(context.Context, string) {}

func (m *Metrics) OnMutateComplete(_ context.Context, op string, d time.Duration, err error) {
	m.operations.WithLabelValues(op, status(err)).Inc()
	m.stageDuration.WithLabelValues("mutate").Observe(d.Seconds())
}

func (m *Metrics) OnLayoutStart(_ context.Context, individuals int) {
	m.individuals.Set(float64(individuals))
}

func (m *Metrics) OnLayoutComplete(_ context.Context, d time.Duration, _ error) {
	m.stageDuration.WithLabelValues("layout").Observe(d.Seconds())
}

func (m *Metrics) OnRiskStart(context.Context, string, int) {}

func (m *Metrics) OnRiskComplete(_ context.Context, _ string, d time.Duration, _ error) {
	m.stageDuration.WithLabelValues("risk").Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnLoad(_ context.Context, backend string, d time.Duration, err error) {
	m.storeOps.WithLabelValues(backend, "load", status(err)).Inc()
	m.storeDuration.WithLabelValues(backend, "load").Observe(d.Seconds())
}

func (m *Metrics) OnSave(_ context.Context, backend string, size int, d time.Duration, err error) {
	m.storeOps.WithLabelValues(backend, "save", status(err)).Inc()
	m.storeDuration.WithLabelValues(backend, "save").Observe(d.Seconds())
	if err == nil {
		m.documentBytes.Set(float64(size))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.StoreHooks    = (*Metrics)(nil)
)
