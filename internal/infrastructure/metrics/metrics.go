package metrics

import (
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
)

var _ output.MetricsPort = (*ActorMetrics)(nil)

type ActorMetrics struct {
	toolRequests *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	conversions  *prometheus.CounterVec
}

func NewActorMetrics(registry prometheus.Registerer) *ActorMetrics {
	m := &ActorMetrics{
		toolRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actor",
				Name:      "tool_requests_total",
				Help:      "Tool requests completed by the tool controller, by tool and result code.",
			},
			[]string{"tool", "code"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "actor",
				Name:      "tool_request_duration_seconds",
				Help:      "Time from Invoke to completion of a tool request.",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool"},
		),
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actor",
				Name:      "action_conversions_total",
				Help:      "Actions converted into tool requests, by action kind and outcome.",
			},
			[]string{"action", "outcome"},
		),
	}

	if registry != nil {
		registry.MustRegister(m.toolRequests, m.toolDuration, m.conversions)
	}
	return m
}

func (m *ActorMetrics) ObserveToolRequest(tool entity.ToolName, code entity.ResultCode, elapsed time.Duration) {
	m.toolRequests.WithLabelValues(tool.String(), code.String()).Inc()
	m.toolDuration.WithLabelValues(tool.String()).Observe(elapsed.Seconds())
}

func (m *ActorMetrics) ObserveConversion(action string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "malformed"
	}
	m.conversions.WithLabelValues(action, outcome).Inc()
}
