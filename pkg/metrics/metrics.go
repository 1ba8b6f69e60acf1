// Package metrics exposes Prometheus metrics about the engine itself:
// batches, lines, classified events, configuration refreshes and publishes.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agentmon"

// Batch outcomes.
const (
	OutcomeOK                = "ok"
	OutcomeEmpty             = "empty"
	OutcomeDecodeError       = "decode_error"
	OutcomeConfigUnavailable = "configuration_unavailable"
	OutcomePublishFailed     = "publish_failed"
)

// Line results.
const (
	LineClassified = "classified"
	LineNoEvent    = "no_event"
	LineSkipped    = "skipped"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Registry holds the engine's collectors on a dedicated Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	BatchesTotal          *prometheus.CounterVec
	BatchDuration         prometheus.Histogram
	LinesTotal            *prometheus.CounterVec
	EventsTotal           *prometheus.CounterVec
	ConfigFetchesTotal    *prometheus.CounterVec
	TrieRebuildsTotal     prometheus.Counter
	CachedAgents          prometheus.Gauge
	RecordsPublishedTotal *prometheus.CounterVec
	PublishDuration       prometheus.Histogram
}

// NewRegistry creates a registry with every collector registered, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Log batches processed, by outcome",
		}, []string{"outcome"}),

		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent processing one log batch",
			Buckets:   durationBuckets,
		}),

		LinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Log lines seen, by classification result",
		}, []string{"result"}),

		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Classified agent events, by event type",
		}, []string{"type"}),

		ConfigFetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_fetches_total",
			Help:      "Watched-path configuration fetches, by result",
		}, []string{"result"}),

		TrieRebuildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trie_rebuilds_total",
			Help:      "Watched-path tries built after a configuration change",
		}),

		CachedAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_agents",
			Help:      "Agents with a cached watched-path configuration",
		}),

		RecordsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Metric records handed to the sink, by metric name",
		}, []string{"metric"}),

		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Latency of one sink publish call",
			Buckets:   durationBuckets,
		}),
	}

	r.reg.MustRegister(
		r.BatchesTotal,
		r.BatchDuration,
		r.LinesTotal,
		r.EventsTotal,
		r.ConfigFetchesTotal,
		r.TrieRebuildsTotal,
		r.CachedAgents,
		r.RecordsPublishedTotal,
		r.PublishDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordBatch records a finished batch.
func (r *Registry) RecordBatch(outcome string, duration time.Duration) {
	r.BatchesTotal.WithLabelValues(outcome).Inc()
	r.BatchDuration.Observe(duration.Seconds())
}

// RecordLine records the classification result of one line.
func (r *Registry) RecordLine(result string) {
	r.LinesTotal.WithLabelValues(result).Inc()
}

// RecordEvent counts a classified event of the given type.
func (r *Registry) RecordEvent(eventType string) {
	r.EventsTotal.WithLabelValues(eventType).Inc()
}

// RecordConfigFetch records a configuration fetch.
func (r *Registry) RecordConfigFetch(success bool) {
	result := "ok"
	if !success {
		result = "error"
	}
	r.ConfigFetchesTotal.WithLabelValues(result).Inc()
}

// RecordTrieRebuild counts one trie rebuild.
func (r *Registry) RecordTrieRebuild() {
	r.TrieRebuildsTotal.Inc()
}

// SetCachedAgents reports the number of cache entries.
func (r *Registry) SetCachedAgents(n int) {
	r.CachedAgents.Set(float64(n))
}

// RecordPublish records one sink call carrying the given metric names.
func (r *Registry) RecordPublish(metricNames []string, duration time.Duration) {
	for _, name := range metricNames {
		r.RecordsPublishedTotal.WithLabelValues(name).Inc()
	}
	r.PublishDuration.Observe(duration.Seconds())
}

// Gatherer exposes the underlying registry, e.g. for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry used by the CLI.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
