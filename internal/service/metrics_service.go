package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// tally is a running count plus the summed duration of what it counts.
type tally struct {
	n     atomic.Uint64
	nanos atomic.Uint64
}

func (t *tally) add(d time.Duration) {
	t.n.Add(1)
	t.nanos.Add(uint64(d.Nanoseconds()))
}

func (t *tally) meanMillis() (uint64, float64) {
	n := t.n.Load()
	if n == 0 {
		return 0, 0
	}
	return n, float64(t.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns a private Prometheus registry for the planner and
// mirrors a handful of counters in memory for the system analytics endpoint.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpSeconds  *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec

	cacheLookups  *prometheus.CounterVec
	cacheSeconds  *prometheus.HistogramVec
	cacheHitRatio prometheus.Gauge

	dbSeconds *prometheus.HistogramVec

	planRuns     *prometheus.CounterVec
	planSessions *prometheus.CounterVec
	planSeconds  prometheus.Histogram

	exportJobs    *prometheus.CounterVec
	exportSeconds prometheus.Histogram

	requests    tally
	queries     tally
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	planCount   atomic.Uint64
	planDropped atomic.Uint64
}

func seconds(name, help string, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: prometheus.DefBuckets,
	}, labels)
}

// NewMetricsService builds and registers every collector.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),

		httpSeconds: seconds("http_request_duration_seconds", "HTTP request latency by route.", "method", "path", "status"),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by route.",
		}, []string{"method", "path", "status"}),

		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Analytics cache lookups by result.",
		}, []string{"result"}),
		cacheSeconds: seconds("cache_operation_seconds", "Analytics cache round trips.", "op"),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Share of analytics cache lookups that hit.",
		}),

		dbSeconds: seconds("db_query_duration_seconds", "Database query latency by label.", "query"),

		planRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "study_plan_runs_total",
			Help: "Study plan runs by mode.",
		}, []string{"mode"}),
		planSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "study_plan_sessions_total",
			Help: "Study sessions the planner placed or dropped.",
		}, []string{"outcome"}),
		planSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "study_plan_generation_seconds",
			Help:    "Study plan runs including persistence.",
			Buckets: prometheus.DefBuckets,
		}),

		exportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "export_jobs_total",
			Help: "Export job attempts by result.",
		}, []string{"result"}),
		exportSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "export_job_duration_seconds",
			Help:    "Export job attempt latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpSeconds, m.httpRequests,
		m.cacheLookups, m.cacheSeconds, m.cacheHitRatio,
		m.dbSeconds,
		m.planRuns, m.planSessions, m.planSeconds,
		m.exportJobs, m.exportSeconds,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. path is the route
// template, never the raw URL.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, took time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpSeconds.WithLabelValues(method, path, code).Observe(took.Seconds())
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.requests.add(took)
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, took time.Duration) {
	if m == nil {
		return
	}
	m.cacheSeconds.WithLabelValues("get").Observe(took.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHits.Add(1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		m.cacheMisses.Add(1)
	}
	m.cacheHitRatio.Set(m.hitRatio())
}

// ObserveCacheWrite records a cache store.
func (m *MetricsService) ObserveCacheWrite(took time.Duration) {
	if m == nil {
		return
	}
	m.cacheSeconds.WithLabelValues("set").Observe(took.Seconds())
}

// ObserveDBQuery records a labelled database round trip.
func (m *MetricsService) ObserveDBQuery(label string, took time.Duration) {
	if m == nil {
		return
	}
	m.dbSeconds.WithLabelValues(label).Observe(took.Seconds())
	m.queries.add(took)
}

// ObservePlannerRun records one planner run. mode is "generate" or "preview".
func (m *MetricsService) ObservePlannerRun(mode string, placed, dropped int, took time.Duration) {
	if m == nil {
		return
	}
	m.planRuns.WithLabelValues(mode).Inc()
	m.planSessions.WithLabelValues("placed").Add(float64(placed))
	m.planSessions.WithLabelValues("dropped").Add(float64(dropped))
	m.planSeconds.Observe(took.Seconds())
	m.planCount.Add(1)
	m.planDropped.Add(uint64(dropped))
}

// ObserveExportJob records one export attempt.
func (m *MetricsService) ObserveExportJob(err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.exportJobs.WithLabelValues(result).Inc()
	m.exportSeconds.Observe(took.Seconds())
}

func (m *MetricsService) hitRatio() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot returns the in-memory counters for GET /analytics/system.
func (m *MetricsService) Snapshot() models.AnalyticsSystemMetrics {
	if m == nil {
		return models.AnalyticsSystemMetrics{}
	}
	requests, avgRequest := m.requests.meanMillis()
	queries, avgQuery := m.queries.meanMillis()
	return models.AnalyticsSystemMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                m.cacheHits.Load(),
		CacheMisses:              m.cacheMisses.Load(),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequest,
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: avgQuery,
		PlannerRuns:              m.planCount.Load(),
		PlannerDroppedSessions:   m.planDropped.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
