// Package metrics exposes Prometheus collectors for the dialer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CallsPlaced       *prometheus.CounterVec
	CallOutcomes      *prometheus.CounterVec
	CallDuration      prometheus.Histogram
	QueueDepth        prometheus.Gauge
	ActiveCalls       prometheus.Gauge
	SchedulerWaits    *prometheus.CounterVec
	ConversationTurns prometheus.Counter
	LLMRequests       *prometheus.CounterVec
	WebhooksReceived  *prometheus.CounterVec
	PersistenceErrors *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers collectors on the default registry.
func New() *Metrics {
	m := build(prometheus.DefaultRegisterer)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

// NewWithRegistry registers collectors on reg. Used by tests.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := build(reg)
	m.gatherer = reg
	return m
}

func build(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		CallsPlaced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldcall_calls_placed_total",
			Help: "Dial attempts by result (connected, no-answer, busy, failed)",
		}, []string{"result"}),
		CallOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldcall_call_outcomes_total",
			Help: "Classified outcomes of connected calls",
		}, []string{"outcome"}),
		CallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "coldcall_call_duration_seconds",
			Help:    "Duration of connected calls",
			Buckets: []float64{15, 30, 60, 120, 180, 300, 600},
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coldcall_queue_depth",
			Help: "Items waiting in the shared call queue",
		}),
		ActiveCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coldcall_active_calls",
			Help: "Calls currently in flight",
		}),
		SchedulerWaits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldcall_scheduler_waits_total",
			Help: "Drain loop suspensions by reason (daily_cap, call_hours)",
		}, []string{"reason"}),
		ConversationTurns: factory.NewCounter(prometheus.CounterOpts{
			Name: "coldcall_conversation_turns_total",
			Help: "Prospect utterances processed",
		}),
		LLMRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldcall_llm_requests_total",
			Help: "Language model turns by result (success, fallback)",
		}, []string{"result"}),
		WebhooksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldcall_webhooks_received_total",
			Help: "Telephony webhooks by kind (answer, utterance, status)",
		}, []string{"kind"}),
		PersistenceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldcall_persistence_errors_total",
			Help: "Swallowed persistence failures by operation",
		}, []string{"op"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// CallPlaced records one dial attempt.
func (m *Metrics) CallPlaced(result string) {
	if m == nil {
		return
	}
	m.CallsPlaced.WithLabelValues(result).Inc()
}

// CallFinished records a connected call's outcome and duration.
func (m *Metrics) CallFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallOutcomes.WithLabelValues(outcome).Inc()
	m.CallDuration.Observe(d.Seconds())
}

// SetQueue publishes queue depth and in-flight count.
func (m *Metrics) SetQueue(queued, active int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(queued))
	m.ActiveCalls.Set(float64(active))
}

// SchedulerWait records a drain loop suspension.
func (m *Metrics) SchedulerWait(reason string) {
	if m == nil {
		return
	}
	m.SchedulerWaits.WithLabelValues(reason).Inc()
}

// Turn records one processed prospect utterance.
func (m *Metrics) Turn() {
	if m == nil {
		return
	}
	m.ConversationTurns.Inc()
}

// LLMResult records whether a model turn succeeded or fell back.
func (m *Metrics) LLMResult(result string) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(result).Inc()
}

// Webhook records an inbound telephony callback.
func (m *Metrics) Webhook(kind string) {
	if m == nil {
		return
	}
	m.WebhooksReceived.WithLabelValues(kind).Inc()
}

// PersistenceError records a swallowed storage failure.
func (m *Metrics) PersistenceError(op string) {
	if m == nil {
		return
	}
	m.PersistenceErrors.WithLabelValues(op).Inc()
}
