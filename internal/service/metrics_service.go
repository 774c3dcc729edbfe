package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	slotDuration        *prometheus.HistogramVec
	slotErrors          *prometheus.CounterVec
	feedbackSubmitted   *prometheus.CounterVec
	feedbackTransitions *prometheus.CounterVec
	feedbackExports     *prometheus.CounterVec
	profileCacheHits    prometheus.Counter
	profileCacheMisses  prometheus.Counter

	requestCount          uint64
	requestDurationTotal  uint64
	slotOpCount           uint64
	slotErrCount          uint64
	slotDurationTotal     uint64
	submittedCount        uint64
	transitionCount       uint64
	exportCount           uint64
	profileCacheHitCount  uint64
	profileCacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	slotDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slot_operation_duration_seconds",
		Help:    "Latency of persistence slot reads and writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})

	slotErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slot_operation_errors_total",
		Help: "Failed persistence slot operations",
	}, []string{"backend", "op"})

	feedbackSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_submitted_total",
		Help: "Accepted feedback submissions by category",
	}, []string{"category"})

	feedbackTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_status_transitions_total",
		Help: "Feedback status transitions",
	}, []string{"from", "to"})

	feedbackExports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_exports_total",
		Help: "Rendered feedback exports by format",
	}, []string{"format"})

	profileCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profile_cache_hits_total",
		Help: "Profile lookups served from cache",
	})

	profileCacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profile_cache_misses_total",
		Help: "Profile lookups that hit the slot store",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, slotDuration, slotErrors, feedbackSubmitted,
		feedbackTransitions, feedbackExports, profileCacheHits, profileCacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		slotDuration:        slotDuration,
		slotErrors:          slotErrors,
		feedbackSubmitted:   feedbackSubmitted,
		feedbackTransitions: feedbackTransitions,
		feedbackExports:     feedbackExports,
		profileCacheHits:    profileCacheHits,
		profileCacheMisses:  profileCacheMisses,
	}
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveSlotOperation records latency and failures of a persistence slot read or write.
func (m *MetricsService) ObserveSlotOperation(backend, op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.slotDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
	atomic.AddUint64(&m.slotOpCount, 1)
	atomic.AddUint64(&m.slotDurationTotal, uint64(duration.Nanoseconds()))
	if err != nil {
		m.slotErrors.WithLabelValues(backend, op).Inc()
		atomic.AddUint64(&m.slotErrCount, 1)
	}
}

// RecordFeedbackSubmitted counts an accepted submission.
func (m *MetricsService) RecordFeedbackSubmitted(category models.FeedbackCategory) {
	if m == nil {
		return
	}
	m.feedbackSubmitted.WithLabelValues(string(category)).Inc()
	atomic.AddUint64(&m.submittedCount, 1)
}

// RecordFeedbackTransition counts an applied status change.
func (m *MetricsService) RecordFeedbackTransition(from, to models.FeedbackStatus) {
	if m == nil {
		return
	}
	m.feedbackTransitions.WithLabelValues(string(from), string(to)).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordFeedbackExport counts a rendered export artifact.
func (m *MetricsService) RecordFeedbackExport(format models.ExportFormat) {
	if m == nil {
		return
	}
	m.feedbackExports.WithLabelValues(string(format)).Inc()
	atomic.AddUint64(&m.exportCount, 1)
}

// RecordProfileCacheLookup records a profile cache hit or miss.
func (m *MetricsService) RecordProfileCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.profileCacheHits.Inc()
		atomic.AddUint64(&m.profileCacheHitCount, 1)
		return
	}
	m.profileCacheMisses.Inc()
	atomic.AddUint64(&m.profileCacheMissCount, 1)
}

// Snapshot returns aggregated metrics suitable for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	slotOps := atomic.LoadUint64(&m.slotOpCount)
	slotDuration := atomic.LoadUint64(&m.slotDurationTotal)
	hits := atomic.LoadUint64(&m.profileCacheHitCount)
	misses := atomic.LoadUint64(&m.profileCacheMissCount)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgSlotMs float64
	if slotOps > 0 {
		avgSlotMs = float64(slotDuration) / float64(slotOps) / float64(time.Millisecond)
	}

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SlotOperations:           slotOps,
		SlotErrors:               atomic.LoadUint64(&m.slotErrCount),
		AverageSlotDurationMs:    avgSlotMs,
		FeedbackSubmitted:        atomic.LoadUint64(&m.submittedCount),
		FeedbackTransitions:      atomic.LoadUint64(&m.transitionCount),
		FeedbackExports:          atomic.LoadUint64(&m.exportCount),
		ProfileCacheHitRatio:     cacheRatio,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
