// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminders delivered and marked notified",
		},
		[]string{"provider"},
	)

	RemindersFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Total number of reminder dispatch failures",
		},
		[]string{"provider", "reason"},
	)

	RemindersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_skipped_total",
			Help: "Total number of cards skipped before a gateway call",
		},
		[]string{"reason"},
	)

	DispatchPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "dispatch_pass_duration_seconds",
			Help: "Duration of a full batch dispatch pass in seconds",
		},
	)

	RetryPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retry_passes_total",
			Help: "Total number of retry passes executed after the initial pass",
		},
	)

	RetryExhaustions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retry_exhaustions_total",
			Help: "Total number of retry sessions that hit the ceiling with cards pending",
		},
	)

	TimersArmed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminder_timers_armed",
			Help: "Number of currently armed per-record reminder timers",
		},
	)
)
