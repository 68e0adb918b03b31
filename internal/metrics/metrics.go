package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for the orchestration hot paths. The cache counters track
// profile-cache probes; mirror failures count degraded secondary writes.
var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atlas_profile_cache_hits_total",
		Help: "Profile reads answered from the cache store.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atlas_profile_cache_misses_total",
		Help: "Profile reads that fell through to the document store.",
	})

	MirrorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_mirror_failures_total",
		Help: "Best-effort secondary-store writes that did not complete.",
	}, []string{"store"})

	AnalyticsEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_analytics_events_total",
		Help: "Analytics ingestion events by outcome.",
	}, []string{"outcome"})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
