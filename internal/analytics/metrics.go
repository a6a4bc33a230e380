// internal/analytics/metrics.go
package analytics

import "github.com/prometheus/client_golang/prometheus"

var pageViews = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "showcase_page_views_total",
		Help: "Recorded views of shared pages",
	},
	[]string{"type", "device"},
)

func init() {
	prometheus.MustRegister(pageViews)
}
