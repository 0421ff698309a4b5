// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcomes.
const (
	OutcomeSent          = "sent"
	OutcomeGoalNotified  = "goal_notified"
	OutcomeGoalDone      = "goal_already_notified"
	OutcomePaused        = "paused"
	OutcomeOutsideWindow = "outside_window"
	OutcomeInvalidConfig = "invalid_config"
	OutcomeSendFailed    = "send_failed"
	OutcomeStoreFailed   = "store_failed"
)

var (
	ReminderEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oazis_reminder_evaluations_total",
		Help: "Reminder ticks evaluated, by outcome",
	}, []string{"outcome"})

	ScheduledJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oazis_scheduled_jobs",
		Help: "Per-user reminder jobs currently registered",
	})

	ScheduleSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oazis_schedule_skips_total",
		Help: "Users skipped at scheduling time because of invalid preferences",
	})

	GlassesLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oazis_glasses_logged_total",
		Help: "Glasses recorded by users",
	})

	SendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oazis_notification_send_seconds",
		Help:    "Outbound notification latency, rate limiting included",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
	})
)
