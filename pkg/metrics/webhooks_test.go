package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebhookMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.IncProcessed("paid")
	m.IncProcessed("paid")
	m.IncProcessed("failed")
	m.IncDuplicate()
	m.IncConflict()
	m.IncRecovered()
	m.IncRejected()

	if got := testutil.ToFloat64(m.processed.WithLabelValues("paid")); got != 2 {
		t.Fatalf("expected 2 paid, got %v", got)
	}
	if got := testutil.ToFloat64(m.processed.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed, got %v", got)
	}
	if got := testutil.ToFloat64(m.duplicate); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
	if got := testutil.ToFloat64(m.conflict); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
}

func TestWebhookMetricsEmptyOutcomeLabeledUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.IncProcessed("")

	if got := testutil.ToFloat64(m.processed.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected 1 unknown, got %v", got)
	}
}

func TestWebhookMetricsNilSafe(t *testing.T) {
	var m *WebhookMetrics
	m.IncProcessed("paid")
	m.IncDuplicate()
	m.IncConflict()
	m.IncRecovered()
	m.IncRejected()

	unregistered := NewWebhookMetrics(nil)
	unregistered.IncProcessed("paid")
}
