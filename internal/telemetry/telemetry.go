// Package telemetry collects Prometheus metrics for research runs and
// tool usage.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry owns the metric registry so tests can run with isolated
// collectors instead of the process-global default.
type Telemetry struct {
	registry *prometheus.Registry

	researchRuns     *prometheus.CounterVec
	researchDuration prometheus.Histogram
	iterations       prometheus.Histogram
	toolInvocations  *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
	sourcesCollected prometheus.Histogram
	chatMessages     *prometheus.CounterVec
}

// New builds a Telemetry with its own registry.
func New() *Telemetry {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Telemetry{
		registry: registry,
		researchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmi_research_runs_total",
			Help: "Research runs by outcome (found, not_found, error, cancelled).",
		}, []string{"outcome"}),
		researchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "llmi_research_duration_seconds",
			Help:    "Wall-clock duration of research runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "llmi_research_iterations",
			Help:    "Iterations consumed per research run.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		toolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmi_tool_invocations_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llmi_tool_duration_seconds",
			Help:    "Tool invocation latency by tool name.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"tool"}),
		sourcesCollected: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "llmi_research_sources",
			Help:    "Deduplicated sources collected per research run.",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		}),
		chatMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmi_chat_messages_total",
			Help: "Chat messages handled, by kind (plain, research).",
		}, []string{"kind"}),
	}
}

// Handler exposes the registry for a /metrics route.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// RecordResearch records one finished research run.
func (t *Telemetry) RecordResearch(outcome string, duration time.Duration, iterations, sources int) {
	if t == nil {
		return
	}
	t.researchRuns.WithLabelValues(outcome).Inc()
	t.researchDuration.Observe(duration.Seconds())
	t.iterations.Observe(float64(iterations))
	t.sourcesCollected.Observe(float64(sources))
}

// RecordToolInvocation records one tool call.
func (t *Telemetry) RecordToolInvocation(tool, outcome string, duration time.Duration) {
	if t == nil {
		return
	}
	t.toolInvocations.WithLabelValues(tool, outcome).Inc()
	t.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordChatMessage records one handled chat message.
func (t *Telemetry) RecordChatMessage(kind string) {
	if t == nil {
		return
	}
	t.chatMessages.WithLabelValues(kind).Inc()
}
