package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	outcomeOK        = "ok"
	outcomeCacheHit  = "cache_hit"
	outcomeRemote    = "remote_error"
	outcomeTransport = "transport_error"
)

var (
	// RequestsTotal counts indexer requests by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftquery_indexer_requests_total",
			Help: "Total number of indexer requests",
		},
		[]string{"outcome"},
	)
	// RequestDuration is the latency of indexer round trips.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nftquery_indexer_request_duration_seconds",
			Help:    "Indexer request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	// CacheErrorsTotal counts cache reads and writes that failed.
	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftquery_cache_errors_total",
			Help: "Total number of response cache failures",
		},
		[]string{"op"},
	)
)
