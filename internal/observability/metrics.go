package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rehab_course"

// Metrics groups the service's Prometheus collectors. It is built once in
// main and injected; a nil *Metrics records nothing, which keeps tests free
// of registry setup.
type Metrics struct {
	coursesGenerated   *prometheus.CounterVec
	generationDuration prometheus.Histogram
	courseWarnings     prometheus.Counter
	cacheLookups       *prometheus.CounterVec
	backgroundTasks    *prometheus.CounterVec
	queueDepth         prometheus.Gauge
	eventsPublished    *prometheus.CounterVec
	analysisFallbacks  *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		coursesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "course",
			Name:      "generated_total",
			Help:      "Course generation requests by outcome (ok, empty, invalid, error).",
		}, []string{"outcome"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "course",
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating a course, storage reads included.",
			Buckets:   prometheus.DefBuckets,
		}),
		courseWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "course",
			Name:      "warnings_total",
			Help:      "Warnings attached to generated courses.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Catalog cache lookups by kind and result (hit, miss, error).",
		}, []string{"kind", "result"}),
		backgroundTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "tasks_total",
			Help:      "Background tasks by name and result (ok, failed, dropped).",
		}, []string{"task", "result"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "queue_depth",
			Help:      "Tasks waiting in the background queue.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Course events by topic and result (ok, failed).",
		}, []string{"topic", "result"}),
		analysisFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "fallbacks_total",
			Help:      "History reads that failed and fell back to the empty default.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.coursesGenerated,
		m.generationDuration,
		m.courseWarnings,
		m.cacheLookups,
		m.backgroundTasks,
		m.queueDepth,
		m.eventsPublished,
		m.analysisFallbacks,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// CourseGenerated records one generation request.
func (m *Metrics) CourseGenerated(outcome string, elapsed time.Duration, warnings int) {
	if m == nil {
		return
	}
	m.coursesGenerated.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(elapsed.Seconds())
	m.courseWarnings.Add(float64(warnings))
}

func (m *Metrics) CacheLookup(kind, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) BackgroundTask(task, result string) {
	if m == nil {
		return
	}
	m.backgroundTasks.WithLabelValues(task, result).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) EventPublished(topic, result string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(topic, result).Inc()
}

func (m *Metrics) AnalysisFallback(kind string) {
	if m == nil {
		return
	}
	m.analysisFallbacks.WithLabelValues(kind).Inc()
}

// HTTPRequest records one served request. route is the matched pattern,
// not the raw path.
func (m *Metrics) HTTPRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
