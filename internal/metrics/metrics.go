// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LikesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toothmatch_likes_recorded_total",
			Help: "Swipe decisions appended to the like ledger",
		},
		[]string{"target_type", "decision"},
	)

	MatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toothmatch_matches_created_total",
			Help: "Matches created by the resolver",
		},
		[]string{"target_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toothmatch_notifications_total",
			Help: "Push notifications attempted, by kind and result",
		},
		[]string{"kind", "result"},
	)

	TokensPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toothmatch_push_tokens_pruned_total",
			Help: "Push tokens deleted as invalid or stale",
		},
	)

	InterviewTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toothmatch_interview_transitions_total",
			Help: "Interview state machine actions applied",
		},
		[]string{"action"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toothmatch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "toothmatch_event_streams_active",
			Help: "Open server-sent event streams on this instance",
		},
	)
)
