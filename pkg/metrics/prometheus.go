// Package metrics provides Prometheus metrics for the acerank scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager manages all Prometheus metrics for the acerank service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Core business metrics
	snapshotsProcessed prometheus.Counter
	snapshotsDuplicate prometheus.Counter
	playersScored      prometheus.Counter
	scoringLatency     prometheus.Histogram

	// Operational health metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueDropped     prometheus.Counter
	workerCount      prometheus.Gauge
	workerErrors     prometheus.Counter
	rosterSize       prometheus.Gauge

	// Repository metrics
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Default histogram buckets in milliseconds.
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // shared default

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "acerank",
		histogramBuckets: defaultBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Name: name, Help: help}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{Namespace: m.namespace, Name: name, Help: help}
	}
	histOpts := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: m.namespace, Name: name, Help: help, Buckets: m.histogramBuckets}
	}

	m.snapshotsProcessed = prometheus.NewCounter(factory("snapshots_processed_total", "Roster snapshots scored"))
	m.snapshotsDuplicate = prometheus.NewCounter(factory("snapshots_duplicate_total", "Roster snapshots rejected as duplicates"))
	m.playersScored = prometheus.NewCounter(factory("players_scored_total", "Players scored across all snapshots"))
	m.scoringLatency = prometheus.NewHistogram(histOpts("scoring_latency_ms", "Batch scoring latency in milliseconds"))

	m.queueSize = prometheus.NewGauge(gaugeOpts("queue_size", "Snapshots waiting in the queue"))
	m.queueCapacity = prometheus.NewGauge(gaugeOpts("queue_capacity", "Configured queue capacity"))
	m.queueUtilization = prometheus.NewGauge(gaugeOpts("queue_utilization", "Queue fill ratio 0-1"))
	m.queueDropped = prometheus.NewCounter(factory("queue_dropped_total", "Snapshots rejected due to backpressure"))
	m.workerCount = prometheus.NewGauge(gaugeOpts("worker_count", "Configured scoring workers"))
	m.workerErrors = prometheus.NewCounter(factory("worker_errors_total", "Worker processing failures"))
	m.rosterSize = prometheus.NewGauge(gaugeOpts("roster_size", "Players tracked in the ranking store"))

	m.repositoryUpdateLatency = prometheus.NewHistogram(histOpts("repository_update_latency_ms", "Ranking store write latency in milliseconds"))
	m.repositoryQueryLatency = prometheus.NewHistogram(histOpts("repository_query_latency_ms", "Ranking store read latency in milliseconds"))

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: m.namespace, Name: "http_requests_total", Help: "HTTP requests by endpoint, method and status"},
		[]string{"endpoint", "method", "status"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: m.namespace, Name: "http_request_duration_ms", Help: "HTTP request latency in milliseconds", Buckets: m.histogramBuckets},
		[]string{"endpoint", "method", "status"},
	)

	m.registry.MustRegister(
		m.snapshotsProcessed, m.snapshotsDuplicate, m.playersScored, m.scoringLatency,
		m.queueSize, m.queueCapacity, m.queueUtilization, m.queueDropped,
		m.workerCount, m.workerErrors, m.rosterSize,
		m.repositoryUpdateLatency, m.repositoryQueryLatency,
		m.httpRequests, m.httpRequestDuration,
	)
}

// RecordSnapshotProcessed increments the processed snapshots counter.
func RecordSnapshotProcessed() { globalManager.snapshotsProcessed.Inc() }

// RecordSnapshotDuplicate increments the duplicate snapshots counter.
func RecordSnapshotDuplicate() { globalManager.snapshotsDuplicate.Inc() }

// RecordPlayersScored adds the batch size to the scored players counter.
func RecordPlayersScored(n int) { globalManager.playersScored.Add(float64(n)) }

// RecordScoringLatency observes one batch scoring duration.
func RecordScoringLatency(latencyMs float64) { globalManager.scoringLatency.Observe(latencyMs) }

// UpdateQueueSize sets the current queue depth gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the configured queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue fill ratio gauge.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueDropped increments the backpressure drop counter.
func RecordQueueDropped() { globalManager.queueDropped.Inc() }

// UpdateWorkerCount sets the configured worker gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerError increments the worker failure counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateRosterSize sets the tracked roster size gauge.
func UpdateRosterSize(count int) { globalManager.rosterSize.Set(float64(count)) }

// RecordRepositoryUpdateLatency observes one ranking store write.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency observes one ranking store read.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the registry behind the global manager, for serving /metrics.
func GetRegistry() *prometheus.Registry { return globalManager.registry }
