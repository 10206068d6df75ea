package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdateCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficwatch_update_cycles_total",
		Help: "Completed traffic update cycles.",
	})

	UpdateCyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficwatch_update_cycles_skipped_total",
		Help: "Scheduler ticks skipped because the previous cycle was still running.",
	})

	ImagesAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trafficwatch_images_analyzed_total",
		Help: "Camera images analyzed, by resulting congestion level.",
	}, []string{"congestion_level"})

	AnalysisFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficwatch_analysis_failures_total",
		Help: "Camera images whose analysis failed.",
	})

	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficwatch_notifications_sent_total",
		Help: "Reroute notifications created for affected drivers.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trafficwatch_http_requests_total",
		Help: "HTTP requests served, by method and status.",
	}, []string{"method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trafficwatch_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
