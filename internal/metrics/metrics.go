package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExternalAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toitsol_external_api_calls_total",
			Help: "Total calls to external data services",
		},
		[]string{"service", "status"},
	)

	ExternalAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toitsol_external_api_latency_seconds",
			Help:    "External data service call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toitsol_evaluations_total",
			Help: "Total address evaluations by outcome",
		},
		[]string{"outcome"},
	)

	IrradianceFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toitsol_irradiance_fallbacks_total",
			Help: "Evaluations that used the regional irradiance fallback",
		},
	)
)
