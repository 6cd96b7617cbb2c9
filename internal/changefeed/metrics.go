package changefeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "worklog",
		Subsystem: "changefeed",
		Name:      "subscribers",
		Help:      "Number of live change feed subscribers.",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "changefeed",
		Name:      "events_published_total",
		Help:      "Change events published, by table and kind.",
	}, []string{"table", "kind"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "changefeed",
		Name:      "events_dropped_total",
		Help:      "Change events dropped because a subscriber buffer was full.",
	})
)
