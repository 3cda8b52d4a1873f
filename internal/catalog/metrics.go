package catalog

import "github.com/prometheus/client_golang/prometheus"

var ListUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vnshelf",
	Subsystem: "catalog",
	Name:      "list_updates_total",
}, []string{"kind", "result"})

var ListUpdateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "vnshelf",
	Subsystem: "catalog",
	Name:      "list_update_duration_seconds",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
}, []string{"kind"})

var Entries = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "vnshelf",
	Subsystem: "catalog",
	Name:      "entries",
})

// Collectors returns every metric of the package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{ListUpdates, ListUpdateDuration, Entries}
}
