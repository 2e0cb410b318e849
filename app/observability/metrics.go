// Package observability holds the process-wide Prometheus metrics and the
// OpenTelemetry tracer setup.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task update outcomes.
const (
	OutcomeUpdated  = "updated"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_http_requests_total",
		Help: "HTTP requests by route template, method and status code",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collab_http_request_duration_seconds",
		Help:    "HTTP request latency by route template and method",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	taskUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_task_updates_total",
		Help: "Task thread updates by outcome",
	}, []string{"outcome"})

	taskMentions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "collab_task_mentions",
		Help:    "Size of the mentioned-user set written by a task update",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})

	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_llm_requests_total",
		Help: "Assistant requests by status (ok, error, rate_limited)",
	}, []string{"status"})
)

func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func ObserveTaskUpdate(outcome string, mentions int) {
	taskUpdates.WithLabelValues(outcome).Inc()
	if outcome == OutcomeUpdated {
		taskMentions.Observe(float64(mentions))
	}
}

func ObserveLLM(status string) {
	llmRequests.WithLabelValues(status).Inc()
}
