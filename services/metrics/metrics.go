package metricsvc

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notices_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notices_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// EmissionCount tracks emission rule outcomes (emitted, suppressed, duplicate)
	EmissionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notices_emissions_total",
			Help: "Number of emission attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	AckCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notices_acknowledgments_total",
			Help: "Number of acknowledgment calls",
		},
	)

	SweptCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notices_swept_total",
			Help: "Number of records removed by the lifecycle reconciler",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCount, RequestDuration, EmissionCount, AckCount, SweptCount)
	})
}
