// Package telemetry implements the local statistics half of spec §4.9:
// Prometheus counters/histograms for token usage, tool invocations,
// cache hit rate, and model-swap duration, served on a loopback-only
// HTTP endpoint with no network egress. Grounded on the teacher's
// pkg/observability.Metrics (same metric-family shape: CounterVec/
// HistogramVec per concern, a nil-receiver no-op guard on every Record*
// method so instrumentation call sites never need a nil check) and its
// own go-chi/chi/v5 dependency for the endpoint router.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the counters and histograms of spec §4.9. A nil
// *Metrics is valid and every method becomes a no-op, so call sites
// never need to check whether telemetry is enabled.
type Metrics struct {
	registry *prometheus.Registry

	tokensIn  *prometheus.CounterVec
	tokensOut *prometheus.CounterVec

	toolCalls *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	modelSwitches       prometheus.Counter
	modelSwitchDuration prometheus.Histogram
}

// New builds a registered Metrics instance, or returns nil if enabled
// is false (the caller's config toggle).
func New(enabled bool) *Metrics {
	if !enabled {
		return nil
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.tokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "llm",
			Name:      "tokens_input_total",
			Help:      "Total number of input tokens sent to the backend",
		},
		[]string{"model"},
	)
	m.tokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "llm",
			Name:      "tokens_output_total",
			Help:      "Total number of output tokens received from the backend",
		},
		[]string{"model"},
	)
	m.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Total number of tool invocations",
		},
		[]string{"tool_name"},
	)
	m.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "tool",
			Name:      "cache_hits_total",
			Help:      "Total number of tool-output cache hits",
		},
		[]string{"tool_name"},
	)
	m.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "tool",
			Name:      "cache_misses_total",
			Help:      "Total number of tool-output cache misses",
		},
		[]string{"tool_name"},
	)
	m.modelSwitches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "cycle",
			Name:      "model_switches_total",
			Help:      "Total number of model warm-swaps performed by the cycle manager",
		},
	)
	m.modelSwitchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agentcore",
			Subsystem: "cycle",
			Name:      "model_switch_duration_seconds",
			Help:      "Time spent warming a model during a cycle switch",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to 256s
		},
	)

	m.registry.MustRegister(
		m.tokensIn, m.tokensOut, m.toolCalls,
		m.cacheHits, m.cacheMisses,
		m.modelSwitches, m.modelSwitchDuration,
	)

	return m
}

// RecordTokens records input/output token counts for one backend call.
func (m *Metrics) RecordTokens(model string, in, out int) {
	if m == nil {
		return
	}
	m.tokensIn.WithLabelValues(model).Add(float64(in))
	m.tokensOut.WithLabelValues(model).Add(float64(out))
}

// RecordToolCall records one tool invocation.
func (m *Metrics) RecordToolCall(toolName string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(toolName).Inc()
}

// RecordCacheHit and RecordCacheMiss track the ToolExecutor's output
// cache hit rate (I6).
func (m *Metrics) RecordCacheHit(toolName string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(toolName).Inc()
}

func (m *Metrics) RecordCacheMiss(toolName string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(toolName).Inc()
}

// RecordModelSwitch records one CycleManager model-swap event.
func (m *Metrics) RecordModelSwitch(duration time.Duration) {
	if m == nil {
		return
	}
	m.modelSwitches.Inc()
	m.modelSwitchDuration.Observe(duration.Seconds())
}

// Handler returns the /metrics HTTP handler, or a 503 stub when
// telemetry is disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
