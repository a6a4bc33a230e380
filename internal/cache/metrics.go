// internal/cache/metrics.go
package cache

import "github.com/prometheus/client_golang/prometheus"

var cacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "response_cache_requests_total",
		Help: "Cached route lookups by result",
	},
	[]string{"prefix", "result"},
)

func init() {
	prometheus.MustRegister(cacheRequests)
}
