package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeOK = "ok"

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_operations_total",
			Help: "Total number of coordinator operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_session_operation_duration_seconds",
			Help:    "Coordinator operation duration in seconds, remote calls included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
