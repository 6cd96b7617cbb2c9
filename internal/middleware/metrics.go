package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Name:      "rpc_requests_total",
		Help:      "RPCs handled, by procedure and result code.",
	}, []string{"procedure", "code"})

	rpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worklog",
		Name:      "rpc_duration_seconds",
		Help:      "RPC handling time. Streams are measured until they end.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})
)
