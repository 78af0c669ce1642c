// Package metrics holds the prometheus collectors shared by the HTTP layer,
// the notification service and the scheduled jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yumix"

var (
	APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "created_total",
		Help:      "Notifications stored, by audience and type.",
	}, []string{"audience", "type"})

	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "suppressed_total",
		Help:      "Notifications skipped because the recipient opted out.",
	}, []string{"audience", "type"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Scheduled job executions by job and result.",
	}, []string{"job", "result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Scheduled job execution time.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"job"})

	JobLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run.",
	}, []string{"job"})

	SweptRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "swept_records_total",
		Help:      "Records removed or modified by retention jobs.",
	}, []string{"job", "kind"})
)
