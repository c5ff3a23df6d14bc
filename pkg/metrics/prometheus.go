// Package metrics provides Prometheus metrics for the epvprep pipeline stages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Match-level outcomes per stage
	matchesProcessed *prometheus.CounterVec
	matchesSkipped   *prometheus.CounterVec
	matchesFailed    *prometheus.CounterVec
	matchDuration    *prometheus.HistogramVec
	lastRunUnix      *prometheus.GaugeVec

	// Event-level counters
	eventsRead      *prometheus.CounterVec
	eventsWritten   *prometheus.CounterVec
	eventsMatched   prometheus.Counter
	framesRead      prometheus.Counter
	duplicateKeys   *prometheus.CounterVec
	unkeyedFrames   prometheus.Counter
	orphanFrames    prometheus.Counter
	goalPossessions prometheus.Counter
	positiveLabels  prometheus.Counter
	rowsExported    *prometheus.CounterVec

	// Queue and worker health
	queueCapacity      prometheus.Gauge
	queueDepth         prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerActive       prometheus.Gauge

	// Errors by component
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at start-up, before anything is recorded.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "epvprep",
		subsystem:        "pipeline",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.matchesProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matches_processed_total",
		Help:        "Matches written by a stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.matchesSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matches_skipped_total",
		Help:        "Matches skipped by a stage, by reason",
		ConstLabels: labels,
	}, []string{"stage", "reason"})

	m.matchesFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matches_failed_total",
		Help:        "Matches whose transformation returned an error",
		ConstLabels: labels,
	}, []string{"stage"})

	m.matchDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "match_duration_milliseconds",
		Help:        "Read-transform-write time per match in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"stage"})

	m.lastRunUnix = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time of the last completed stage run",
		ConstLabels: labels,
	}, []string{"stage"})

	m.eventsRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_read_total",
		Help:        "Events loaded by a stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.eventsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_written_total",
		Help:        "Events persisted by a stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.eventsMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_matched_total",
		Help:        "Events that received a 360 frame during merge",
		ConstLabels: labels,
	})

	m.framesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "frames_read_total",
		Help:        "360 frames loaded during merge",
		ConstLabels: labels,
	})

	m.duplicateKeys = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "duplicate_join_keys_total",
		Help:        "360 frames sharing an event_uuid with an earlier frame",
		ConstLabels: labels,
	}, []string{"policy"})

	m.unkeyedFrames = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unkeyed_frames_total",
		Help:        "360 frames without an event_uuid",
		ConstLabels: labels,
	})

	m.orphanFrames = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "orphan_frames_total",
		Help:        "360 frames whose event_uuid matched no event",
		ConstLabels: labels,
	})

	m.goalPossessions = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "goal_possessions_total",
		Help:        "Distinct possessions ending in a goal",
		ConstLabels: labels,
	})

	m.positiveLabels = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "positive_labels_total",
		Help:        "Events labeled 1",
		ConstLabels: labels,
	})

	m.rowsExported = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_exported_total",
		Help:        "Parquet rows written, by table",
		ConstLabels: labels,
	}, []string{"table"})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Capacity of the match job queue",
		ConstLabels: labels,
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_depth",
		Help:        "Match jobs waiting for a worker",
		ConstLabels: labels,
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_enqueue_errors_total",
		Help:        "Match jobs rejected by the queue",
		ConstLabels: labels,
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "workers_active",
		Help:        "Workers currently processing a match",
		ConstLabels: labels,
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and kind",
		ConstLabels: labels,
	}, []string{"component", "kind"})
}

// RecordMatchProcessed increments the processed counter for a stage.
func RecordMatchProcessed(stage string) {
	globalManager.matchesProcessed.WithLabelValues(stage).Inc()
}

// RecordMatchSkipped increments the skipped counter for a stage.
func RecordMatchSkipped(stage, reason string) {
	globalManager.matchesSkipped.WithLabelValues(stage, reason).Inc()
}

// RecordMatchFailed increments the failed counter for a stage.
func RecordMatchFailed(stage string) {
	globalManager.matchesFailed.WithLabelValues(stage).Inc()
}

// RecordMatchDuration records the per-match processing time in milliseconds.
func RecordMatchDuration(stage string, latencyMs float64) {
	globalManager.matchDuration.WithLabelValues(stage).Observe(latencyMs)
}

// UpdateLastRun sets the completion time of a stage run.
func UpdateLastRun(stage string, unixSeconds float64) {
	globalManager.lastRunUnix.WithLabelValues(stage).Set(unixSeconds)
}

// RecordEventsRead adds to the events loaded by a stage.
func RecordEventsRead(stage string, n int) {
	globalManager.eventsRead.WithLabelValues(stage).Add(float64(n))
}

// RecordEventsWritten adds to the events persisted by a stage.
func RecordEventsWritten(stage string, n int) {
	globalManager.eventsWritten.WithLabelValues(stage).Add(float64(n))
}

// RecordMergeCounts adds the counters produced by merging one match.
func RecordMergeCounts(matched, frames, unkeyed, orphans int) {
	globalManager.eventsMatched.Add(float64(matched))
	globalManager.framesRead.Add(float64(frames))
	globalManager.unkeyedFrames.Add(float64(unkeyed))
	globalManager.orphanFrames.Add(float64(orphans))
}

// RecordDuplicateKeys adds duplicate join keys seen under a policy.
func RecordDuplicateKeys(policy string, n int) {
	globalManager.duplicateKeys.WithLabelValues(policy).Add(float64(n))
}

// RecordLabelCounts adds the counters produced by labeling one match.
func RecordLabelCounts(goalPossessions, positive int) {
	globalManager.goalPossessions.Add(float64(goalPossessions))
	globalManager.positiveLabels.Add(float64(positive))
}

// RecordRowsExported adds parquet rows written to a table.
func RecordRowsExported(table string, n int) {
	globalManager.rowsExported.WithLabelValues(table).Add(float64(n))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueDepth sets the number of queued jobs.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordQueueEnqueueError increments the rejected job counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// IncWorkerActive marks a worker busy.
func IncWorkerActive() {
	globalManager.workerActive.Inc()
}

// DecWorkerActive marks a worker idle.
func DecWorkerActive() {
	globalManager.workerActive.Dec()
}

// RecordError increments the error counter for a component.
func RecordError(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
