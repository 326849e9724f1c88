package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// MetricsService owns the Prometheus registry for HTTP, cache, database and timetable instrumentation.
// All methods are safe on a nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	dbQueryDuration *prometheus.HistogramVec

	generationDuration prometheus.Histogram
	generatedEntries   prometheus.Counter
	conflictsDetected  *prometheus.CounterVec
	timetableSaves     *prometheus.CounterVec
	exportJobs         *prometheus.CounterVec
	exportDuration     *prometheus.HistogramVec
	queueRuns          *prometheus.CounterVec
}

// NewMetricsService registers all collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups partitioned by result",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache reads",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetable_generation_duration_seconds",
			Help:    "Time spent placing subjects into slots",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		generatedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_generated_entries_total",
			Help: "Entries produced by the timetable generator",
		}),
		conflictsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_conflicts_detected_total",
			Help: "Teacher double-bookings found, by where the check ran",
		}, []string{"stage"}),
		timetableSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_saves_total",
			Help: "Timetable save attempts by result",
		}, []string{"result"}),
		exportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_export_jobs_total",
			Help: "Export jobs by format and final status",
		}, []string{"format", "status"}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timetable_export_duration_seconds",
			Help:    "Export worker run time",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
		queueRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_queue_runs_total",
			Help: "Background handler runs by queue and outcome",
		}, []string{"queue", "outcome"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLookups, m.cacheLatency, m.cacheWrite,
		m.dbQueryDuration,
		m.generationDuration, m.generatedEntries, m.conflictsDetected, m.timetableSaves,
		m.exportJobs, m.exportDuration, m.queueRuns,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, label).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, label).Inc()
}

// RecordCacheOperation records a cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records the duration of a labelled database operation.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveGeneration records one generator run.
func (m *MetricsService) ObserveGeneration(duration time.Duration, entries, conflicts int) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(duration.Seconds())
	m.generatedEntries.Add(float64(entries))
	m.conflictsDetected.WithLabelValues("generate").Add(float64(conflicts))
}

// ObserveStoredConflicts records conflicts found when reading a saved timetable.
func (m *MetricsService) ObserveStoredConflicts(conflicts int) {
	if m == nil || conflicts == 0 {
		return
	}
	m.conflictsDetected.WithLabelValues("stored").Add(float64(conflicts))
}

// RecordSave records the outcome of a save attempt: saved, rejected or failed.
func (m *MetricsService) RecordSave(result string) {
	if m == nil {
		return
	}
	m.timetableSaves.WithLabelValues(result).Inc()
}

// ObserveExport records a finished export job run.
func (m *MetricsService) ObserveExport(format, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(format, status).Inc()
	m.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// ObserveQueueRun counts one background handler run; it matches jobs.Observer.
func (m *MetricsService) ObserveQueueRun(queue string, _ jobs.Job, _ time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "retry"
	}
	m.queueRuns.WithLabelValues(queue, outcome).Inc()
}
