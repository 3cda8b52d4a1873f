package queue

import "github.com/prometheus/client_golang/prometheus"

var TasksHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vnshelf",
	Subsystem: "queue",
	Name:      "tasks_handled_total",
	Help:      "Tasks delivered to a handler, by outcome.",
}, []string{"result"})

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{TasksHandled}
}
