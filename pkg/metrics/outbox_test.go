package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsExportsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("grn_posted")
	m.IncPublished("grn_posted")
	m.IncFailed("vendor_payment_recorded")
	m.IncDeadLettered("max_attempts")
	m.IncDeferred()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_published_total", "event_type", "grn_posted"); err != nil || got != 2 {
		t.Fatalf("expected 2 published, got %v err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_failed_total", "event_type", "vendor_payment_recorded"); err != nil || got != 1 {
		t.Fatalf("expected 1 failure, got %v err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_dead_lettered_total", "reason", "max_attempts"); err != nil || got != 1 {
		t.Fatalf("expected 1 dead letter, got %v err=%v", got, err)
	}
	family := findMetricFamily(mfs, "outbox_events_deferred_total")
	if family == nil || family.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one deferred event")
	}

	var nilMetrics *OutboxMetrics
	nilMetrics.IncPublished("grn_posted")
	nilMetrics.IncDeferred()
}
