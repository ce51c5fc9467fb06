package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClientRequestsTotal counts calls made by the records client
	ClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_client_requests_total",
			Help: "Total number of requests issued by the records client",
		},
		[]string{"collection", "operation", "outcome"}, // "list", "create", "login" / "success", "error"
	)

	// ClientRequestDuration tracks request latency seen by the records client
	ClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hospital_client_request_duration_seconds",
			Help:    "Duration of records client requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "operation"},
	)

	// ClientSubmissionsTotal counts draft submissions by outcome
	ClientSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_client_submissions_total",
			Help: "Total number of draft submissions",
		},
		[]string{"kind", "outcome"}, // "created", "invalid", "rejected", "failed", "discarded"
	)

	// APIRequestsTotal counts requests served by the records API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_api_requests_total",
			Help: "Total number of requests served by the records API",
		},
		[]string{"method", "route", "status"},
	)

	// APIRequestDuration tracks records API latency
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hospital_api_request_duration_seconds",
			Help:    "Duration of records API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ListCacheTotal counts list cache lookups
	ListCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_api_list_cache_total",
			Help: "Total number of collection list cache lookups",
		},
		[]string{"collection", "result"}, // "hit", "miss", "error"
	)
)

// RecordClientRequest records one records-client call
func RecordClientRequest(collection, operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ClientRequestsTotal.WithLabelValues(collection, operation, outcome).Inc()
	ClientRequestDuration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
}

// RecordSubmission records the outcome of a draft submission
func RecordSubmission(kind, outcome string) {
	ClientSubmissionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAPIRequest records one served API request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordListCache records a list cache lookup result
func RecordListCache(collection, result string) {
	ListCacheTotal.WithLabelValues(collection, result).Inc()
}
