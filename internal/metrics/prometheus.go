package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portrait_compute_duration_seconds",
			Help:    "Period computation duration in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"period_type", "status"},
	)

	ComputeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_compute_total",
			Help: "Total number of period computations triggered",
		},
		[]string{"period_type", "status"},
	)

	CallsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_calls_classified_total",
			Help: "Total call records classified by the rule engine",
		},
		[]string{"satisfaction"},
	)

	RecordsSynced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_records_synced_total",
			Help: "Total call records pulled from the source database",
		},
		[]string{"status"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portrait_sync_duration_seconds",
			Help:    "Daily sync duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	SnapshotsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_snapshots_written_total",
			Help: "Total period snapshot rows written",
		},
		[]string{"kind"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_llm_requests_total",
			Help: "Total LLM sentiment analysis requests",
		},
		[]string{"status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portrait_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
)

func Init() {
	prometheus.MustRegister(ComputeDuration)
	prometheus.MustRegister(ComputeTotal)
	prometheus.MustRegister(CallsClassified)
	prometheus.MustRegister(RecordsSynced)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(SnapshotsWritten)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(HTTPRequestDuration)
}

// ObserveCompute records one period computation outcome.
func ObserveCompute(periodType, status string, elapsed time.Duration) {
	ComputeDuration.WithLabelValues(periodType, status).Observe(elapsed.Seconds())
	ComputeTotal.WithLabelValues(periodType, status).Inc()
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// HTTPMiddleware times every request by route pattern and status.
func HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		HTTPRequestDuration.WithLabelValues(c.Method(), route, status).Observe(time.Since(start).Seconds())

		return err
	}
}
