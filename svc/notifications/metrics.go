package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for eventsProcessed.
const (
	outcomeRecorded  = "recorded"
	outcomeNoAdmins  = "no_admins"
	outcomeMalformed = "malformed"
	outcomeFailed    = "failed"
)

var eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "grimoire_notification_events_total",
	Help: "Lifecycle events consumed by the notification pipeline, by channel and outcome",
}, []string{"channel", "outcome"})

var handleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "grimoire_notification_handle_duration_seconds",
	Help:    "Time spent turning one lifecycle event into a stored notification",
	Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
}, []string{"channel"})

var subscriptionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "grimoire_notification_subscription_state",
	Help: "Current state of each lifecycle channel subscription (0 uninitialized, 1 subscribing, 2 active, 3 error)",
}, []string{"channel"})
