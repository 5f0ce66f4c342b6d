package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of messages appended to channels",
		},
	)

	notificationsCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dm_notifications_total",
			Help: "Direct message notifications by outcome (created, updated)",
		},
		[]string{"outcome"},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Best-effort side effects that failed",
		},
		[]string{"effect"},
	)
)
