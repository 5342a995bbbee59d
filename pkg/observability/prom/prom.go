// Package prom implements the observability hooks with Prometheus
// collectors.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/prereqgraph/pkg/observability"
)

const namespace = "prereqgraph"

const (
	labelResult    = "result"
	labelCanTake   = "can_take"
	labelDirection = "direction"
	labelKeyType   = "key_type"
	labelMethod    = "method"
	labelRoute     = "route"
	labelCode      = "code"
)

// Metrics holds every collector and implements PipelineHooks, CacheHooks
// and HTTPHooks.
type Metrics struct {
	builds         *prometheus.CounterVec
	buildDuration  prometheus.Histogram
	graphNodes     prometheus.Histogram
	evaluations    *prometheus.CounterVec
	evalDuration   prometheus.Histogram
	layouts        *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	cacheWrites    *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	inFlight       prometheus.Gauge
	requests       *prometheus.CounterVec
	reqDuration    *prometheus.HistogramVec
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg.
// It panics if a collector is already registered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Prerequisite graphs built from raw records, by result.",
		}, []string{labelResult}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time to fetch, build and decorate one graph.",
			Buckets:   prometheus.DefBuckets,
		}),
		graphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Node count of successfully built graphs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Eligibility evaluations, by result and outcome.",
		}, []string{labelResult, labelCanTake}),
		evalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluate_duration_seconds",
			Help:      "Time to evaluate one learner against one graph.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Layouts computed, by direction and result.",
		}, []string{labelDirection, labelResult}),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time to compute one layout.",
			Buckets:   prometheus.DefBuckets,
		}, []string{labelDirection}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups, by key type and result (hit or miss).",
		}, []string{labelKeyType, labelResult}),
		cacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Cache writes, by key type.",
		}, []string{labelKeyType}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache, by key type.",
		}, []string{labelKeyType}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by method, route and status code.",
		}, []string{labelMethod, labelRoute, labelCode}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{labelMethod, labelRoute}),
	}
	reg.MustRegister(
		m.builds, m.buildDuration, m.graphNodes,
		m.evaluations, m.evalDuration,
		m.layouts, m.layoutDuration,
		m.cacheLookups, m.cacheWrites, m.cacheBytes,
		m.inFlight, m.requests, m.reqDuration,
	)
	return m
}

// Install registers m as the global pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnBuildStart(context.Context, int) {}

func (m *Metrics) OnBuildComplete(_ context.Context, _ int, nodeCount int, d time.Duration, err error) {
	m.builds.WithLabelValues(result(err)).Inc()
	m.buildDuration.Observe(d.Seconds())
	if err == nil {
		m.graphNodes.Observe(float64(nodeCount))
	}
}

func (m *Metrics) OnEvaluateStart(context.Context, int) {}

func (m *Metrics) OnEvaluateComplete(_ context.Context, _ int, canTake bool, d time.Duration, err error) {
	m.evaluations.WithLabelValues(result(err), strconv.FormatBool(canTake && err == nil)).Inc()
	m.evalDuration.Observe(d.Seconds())
}

func (m *Metrics) OnLayoutStart(context.Context, string, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, direction string, d time.Duration, err error) {
	m.layouts.WithLabelValues(direction, result(err)).Inc()
	m.layoutDuration.WithLabelValues(direction).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheWrites.WithLabelValues(keyType).Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.inFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.inFlight.Dec()
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.reqDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
