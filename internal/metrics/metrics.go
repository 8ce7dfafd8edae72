// Package metrics holds the Prometheus collectors of the engagement engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ActivityRecorded counts appended activity events by type.
var ActivityRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "activity_events_total",
	Help:      "Total activity events recorded.",
}, []string{"type"})

// GoalsCompleted counts goals reaching their target.
var GoalsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "goals_completed_total",
	Help:      "Total goals that reached their target.",
})

// TaskSetsGenerated counts daily task sets written, not fetched.
var TaskSetsGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "daily_task_sets_generated_total",
	Help:      "Total daily task sets generated.",
})

var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "daily_tasks_completed_total",
	Help:      "Total daily tasks completed.",
}, []string{"category"})

var BadgesGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "badges_granted_total",
	Help:      "Total badges granted.",
}, []string{"badge"})

var ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "reports_generated_total",
	Help:      "Total period reports written.",
}, []string{"period_type", "provisional"})

var ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "heartline",
	Name:      "report_generation_seconds",
	Help:      "Period report generation duration in seconds.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
}, []string{"period_type"})

var ReportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "report_jobs_total",
	Help:      "Report jobs by final status.",
}, []string{"status"})

// CacheLookups counts engagement cache lookups by result (hit, miss, error).
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "engagement_cache_lookups_total",
	Help:      "Engagement state cache lookups.",
}, []string{"result"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "heartline",
	Name:      "http_requests_total",
	Help:      "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "heartline",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
