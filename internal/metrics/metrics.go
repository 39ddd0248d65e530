package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook outcomes recorded in WebhookOutcomes.
const (
	OutcomeSaved        = "saved"
	OutcomeDuplicate    = "duplicate"
	OutcomeFailed       = "failed"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
)

var WebhooksReceived = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "metadata_webhooks_received_total",
		Help: "Total number of webhook requests received",
	},
)

var WebhookOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "metadata_webhook_outcomes_total",
		Help: "Webhook requests by outcome",
	},
	[]string{"outcome"},
)

var FieldChangesWritten = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "metadata_field_changes_written_total",
		Help: "Total number of field change rows inserted",
	},
)

var DeletedSnapshots = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "metadata_deleted_entity_upserts_total",
		Help: "Total number of deleted entity upserts",
	},
)

var SaveLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "metadata_event_save_seconds",
		Help:    "Latency of the per-event save transaction",
		Buckets: prometheus.DefBuckets,
	},
)
