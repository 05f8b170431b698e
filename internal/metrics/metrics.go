// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	contentGeneratedTotal      *prometheus.CounterVec
	contentPublishedTotal      *prometheus.CounterVec
	webhookDeliveriesTotal     *prometheus.CounterVec
	competitorPagesTotal       *prometheus.CounterVec
	rankChecksTotal            *prometheus.CounterVec
	schedulerRunsTotal         *prometheus.CounterVec
	schedulerRunSeconds        *prometheus.HistogramVec
	leadsCapturedTotal         *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seoengine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"method", "route"},
		)

		contentGeneratedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_content_generated_total",
				Help: "Total pieces of AI-drafted content, labeled by kind and provider.",
			},
			[]string{"kind", "provider"},
		)

		contentPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_content_published_total",
				Help: "Total published content items, labeled by destination and status.",
			},
			[]string{"destination", "status"},
		)

		webhookDeliveriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_webhook_deliveries_total",
				Help: "Total outbound webhook deliveries, labeled by event and status.",
			},
			[]string{"event", "status"},
		)

		competitorPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_competitor_pages_total",
				Help: "Total competitor pages processed, labeled by outcome (new, changed, unchanged, failed).",
			},
			[]string{"outcome"},
		)

		rankChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_rank_checks_total",
				Help: "Total keyword rank checks, labeled by movement (improved, dropped, flat, new).",
			},
			[]string{"movement"},
		)

		schedulerRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_scheduler_runs_total",
				Help: "Total scheduled job executions, labeled by job and status.",
			},
			[]string{"job", "status"},
		)

		schedulerRunSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seoengine_scheduler_run_seconds",
				Help:    "Histogram of scheduled job durations, labeled by job.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"job"},
		)

		leadsCapturedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoengine_leads_captured_total",
				Help: "Total leads captured, labeled by source.",
			},
			[]string{"source"},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ContentGenerated counts one AI draft.
func ContentGenerated(kind, provider string) {
	Init()
	contentGeneratedTotal.WithLabelValues(kind, provider).Inc()
}

// ContentPublished counts one publish attempt.
func ContentPublished(destination, status string) {
	Init()
	contentPublishedTotal.WithLabelValues(destination, status).Inc()
}

// WebhookDelivered counts one webhook delivery outcome.
func WebhookDelivered(event, status string) {
	Init()
	webhookDeliveriesTotal.WithLabelValues(event, status).Inc()
}

// CompetitorPage counts one monitored page outcome.
func CompetitorPage(outcome string) {
	Init()
	competitorPagesTotal.WithLabelValues(outcome).Inc()
}

// RankCheck counts one keyword check by movement.
func RankCheck(movement string) {
	Init()
	rankChecksTotal.WithLabelValues(movement).Inc()
}

// SchedulerRun records one scheduled job execution.
func SchedulerRun(job, status string, duration time.Duration) {
	Init()
	schedulerRunsTotal.WithLabelValues(job, status).Inc()
	schedulerRunSeconds.WithLabelValues(job).Observe(duration.Seconds())
}

// LeadCaptured counts one captured lead.
func LeadCaptured(source string) {
	Init()
	leadsCapturedTotal.WithLabelValues(source).Inc()
}
