package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.CallPlaced("connected")
	m.CallPlaced("connected")
	m.CallFinished("interested", 90*time.Second)
	m.SetQueue(4, 1)
	m.LLMResult("fallback")

	if got := testutil.ToFloat64(m.CallsPlaced.WithLabelValues("connected")); got != 2 {
		t.Fatalf("expected 2 connected calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.CallOutcomes.WithLabelValues("interested")); got != 1 {
		t.Fatalf("expected 1 interested outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueueDepth); got != 4 {
		t.Fatalf("expected queue depth 4, got %v", got)
	}
	if got := testutil.ToFloat64(m.LLMRequests.WithLabelValues("fallback")); got != 1 {
		t.Fatalf("expected 1 fallback, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CallPlaced("failed")
	m.CallFinished("follow-up", time.Second)
	m.SetQueue(1, 0)
	m.SchedulerWait("daily_cap")
	m.Turn()
	m.LLMResult("success")
	m.Webhook("status")
	m.PersistenceError("save_call")
	if m.Handler() == nil {
		t.Fatalf("nil metrics should still serve a handler")
	}
}
