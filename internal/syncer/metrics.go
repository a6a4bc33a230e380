// internal/syncer/metrics.go
package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "github_sync_total",
			Help: "Total number of GitHub user syncs",
		},
		[]string{"result"},
	)

	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "github_sync_duration_seconds",
			Help:    "Duration of one GitHub user sync in seconds",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)
)

func init() {
	prometheus.MustRegister(syncTotal, syncDuration)
}
