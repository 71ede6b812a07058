package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records confirmation-processing outcomes so reconciliation
// drift is visible without log scraping.
type WebhookMetrics struct {
	processed *prometheus.CounterVec
	duplicate prometheus.Counter
	conflict  prometheus.Counter
	recovered prometheus.Counter
	rejected  prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed_total",
		Help: "Stripe confirmation events applied to the ledger, by outcome.",
	}, []string{"outcome"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_duplicate_total",
		Help: "Stripe events skipped because the event id was already seen.",
	})
	conflict := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_conflict_total",
		Help: "Events carrying a terminal outcome that conflicts with the ledger.",
	})
	recovered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_session_recovered_total",
		Help: "Donations reconstructed from session metadata after an unknown-session race.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_rejected_total",
		Help: "Inbound notifications rejected before processing (bad signature).",
	})
	reg.MustRegister(processed, duplicate, conflict, recovered, rejected)
	return &WebhookMetrics{
		processed: processed,
		duplicate: duplicate,
		conflict:  conflict,
		recovered: recovered,
		rejected:  rejected,
	}
}

// IncProcessed counts an applied transition by outcome ("paid"/"failed").
func (m *WebhookMetrics) IncProcessed(outcome string) {
	if m == nil || m.processed == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.processed.WithLabelValues(outcome).Inc()
}

// IncDuplicate counts a redelivered event skipped by the idempotency guard.
func (m *WebhookMetrics) IncDuplicate() {
	if m == nil || m.duplicate == nil {
		return
	}
	m.duplicate.Inc()
}

// IncConflict counts a terminal-outcome conflict kept for manual reconciliation.
func (m *WebhookMetrics) IncConflict() {
	if m == nil || m.conflict == nil {
		return
	}
	m.conflict.Inc()
}

// IncRecovered counts a donation rebuilt from session metadata.
func (m *WebhookMetrics) IncRecovered() {
	if m == nil || m.recovered == nil {
		return
	}
	m.recovered.Inc()
}

// IncRejected counts a notification that failed signature verification.
func (m *WebhookMetrics) IncRejected() {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Inc()
}
