package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InboundEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reput_inbound_events_total",
			Help: "Inbound webhook events by outcome",
		},
		[]string{"outcome"},
	)

	RepliesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reput_replies_sent_total",
			Help: "Automated replies dispatched by kind",
		},
		[]string{"kind"},
	)

	QuotaRefusals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reput_quota_refusals_total",
			Help: "Sends skipped because the tenant quota was exhausted",
		},
	)

	Escalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reput_escalations_total",
			Help: "Operator escalation attempts by result",
		},
		[]string{"result"}, // "sent", "failed", "skipped"
	)

	TranscriptionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reput_transcription_failures_total",
			Help: "Voice notes that could not be transcribed",
		},
	)

	DuplicateDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reput_duplicate_deliveries_total",
			Help: "Webhook deliveries dropped by message-sid dedup",
		},
	)
)
