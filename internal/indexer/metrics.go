package indexer

import "github.com/prometheus/client_golang/prometheus"

// TaskOutcomes counts handled tasks by outcome: ok, retry, failed or ignored.
var TaskOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vnshelf",
	Subsystem: "index",
	Name:      "task_outcomes_total",
}, []string{"outcome"})

var Jobs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vnshelf",
	Subsystem: "index",
	Name:      "jobs_total",
}, []string{"status"})

var FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "vnshelf",
	Subsystem: "index",
	Name:      "fetch_duration_seconds",
	Buckets:   prometheus.DefBuckets,
})

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{TaskOutcomes, Jobs, FetchDuration}
}
