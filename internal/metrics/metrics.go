package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Listing cache
	ListingCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_cache_hits_total",
		Help: "Get-by-id reads served from a fresh cache row",
	})
	ListingCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_cache_misses_total",
		Help: "Get-by-id reads that had to consult the remote store",
	})
	ListingCacheRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_cache_refreshes_total",
		Help: "Successful background refreshes of the listing cache",
	})
	ListingCacheSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_cache_swept_total",
		Help: "Cache rows deleted by the TTL sweep",
	})
	ListingRemoteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_remote_failures_total",
		Help: "Remote store failures recovered by cache fallback",
	})
	ListingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listings_created_total",
		Help: "Listings created",
	})

	// Worker kuyruğu
	WorkerQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "worker_queue_depth",
		Help: "Current worker queue depth",
	})
)

// /metrics endpoint'i için handler
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ListingCacheHits)
	prometheus.MustRegister(ListingCacheMisses)
	prometheus.MustRegister(ListingCacheRefreshes)
	prometheus.MustRegister(ListingCacheSwept)
	prometheus.MustRegister(ListingRemoteFailures)
	prometheus.MustRegister(ListingsCreated)
	prometheus.MustRegister(WorkerQueueDepth)
}
