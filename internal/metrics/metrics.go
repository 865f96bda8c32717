// In file: internal/metrics/metrics.go

// Package metrics exposes Prometheus counters and histograms for chat turns
// and tool calls. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weather_agent"

type Metrics struct {
	registry     *prometheus.Registry
	chatRequests *prometheus.CounterVec
	chatLatency  prometheus.Histogram
	toolCalls    *prometheus.CounterVec
	iterations   prometheus.Histogram
}

// New creates a private registry so tests and multiple servers never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by HTTP status code.",
		}, []string{"code"}),
		chatLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_duration_seconds",
			Help:      "End-to-end latency of answered chat requests.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_iterations",
			Help:      "Model calls needed per chat turn.",
			Buckets:   prometheus.LinearBuckets(1, 1, 6),
		}),
	}
	m.registry.MustRegister(
		m.chatRequests,
		m.chatLatency,
		m.toolCalls,
		m.iterations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveChat records one chat request.
func (m *Metrics) ObserveChat(code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(strconv.Itoa(code)).Inc()
	if code == http.StatusOK {
		m.chatLatency.Observe(elapsed.Seconds())
	}
}

// ObserveToolCall records one tool invocation. failed means the tool
// returned an error text instead of a payload.
func (m *Metrics) ObserveToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// ObserveIterations records how many model calls one run needed.
func (m *Metrics) ObserveIterations(n int) {
	if m == nil {
		return
	}
	m.iterations.Observe(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
