package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Endpoint labels are bounded by the routing table.
var (
	envelopesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zrouter",
			Subsystem: "router",
			Name:      "envelopes_total",
			Help:      "Envelopes written, by endpoint and envelope code",
		},
		[]string{"endpoint", "code"},
	)

	unhandledErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zrouter",
			Subsystem: "router",
			Name:      "unhandled_errors_total",
			Help:      "Handler errors passed to the error hook",
		},
		[]string{"endpoint"},
	)

	handlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zrouter",
			Subsystem: "router",
			Name:      "handler_duration_seconds",
			Help:      "Time spent inside route handlers",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)
)
