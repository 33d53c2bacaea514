// Package observability holds the service's application metrics.
package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "route", "status"},
	)

	lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomk_lookups_total",
			Help: "Codec lookups by operation, scale and outcome.",
		},
		[]string{"op", "scale", "outcome"},
	)

	lookupDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nomk_lookup_duration_seconds",
			Help:    "Latency of codec lookups including cache tiers.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		},
		[]string{"op"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomk_cache_results_total",
			Help: "Sheet cache results by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by result.",
		},
		[]string{"op", "result"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomk_events_total",
			Help: "Lookup events by result (published, failed).",
		},
		[]string{"result"},
	)

	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nomk_events_dropped_total",
			Help: "Lookup events dropped because the publish queue was full.",
		},
	)
)

var (
	initMu     sync.Mutex
	registered = map[prometheus.Registerer]bool{}
)

// Init registers the collectors with reg. Repeated calls with the same
// registry are no-ops. Without Init the collectors still count but are not
// exported.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	initMu.Lock()
	defer initMu.Unlock()
	if registered[reg] {
		return
	}
	reg.MustRegister(
		httpRequestsTotal, httpRequestDurationSeconds,
		lookupsTotal, lookupDurationSeconds,
		cacheResults, cacheOps, redisOpDurationSeconds,
		eventsTotal, eventsDropped,
	)
	registered[reg] = true
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveLookup records one codec call. outcome is "ok" or an error class.
func ObserveLookup(op, scale, outcome string, durationSeconds float64) {
	if scale == "" {
		scale = "auto"
	}
	lookupsTotal.WithLabelValues(op, scale, outcome).Inc()
	lookupDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

// IncCacheResult counts a hit or miss of one cache tier ("l1", "l2").
func IncCacheResult(tier, outcome string) {
	cacheResults.WithLabelValues(tier, outcome).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrCacheMiss):
		result = "miss"
	default:
		result = "error"
	}
	cacheOps.WithLabelValues(op, result).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

// ErrCacheMiss lets stores report a miss through ObserveCacheOp.
var ErrCacheMiss = errors.New("cache miss")

func IncEventPublished() { eventsTotal.WithLabelValues("published").Inc() }
func IncEventFailed()    { eventsTotal.WithLabelValues("failed").Inc() }
func IncEventDropped()   { eventsDropped.Inc() }
