package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes used as the "outcome" label.
const (
	OutcomeOK              = "ok"
	OutcomeServerError     = "server_error"
	OutcomeConnectionError = "connection_error"
	OutcomeDecodeError     = "decode_error"
)

// Metrics holds the call channel's Prometheus collectors.
type Metrics struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. Pass a fresh
// prometheus.NewRegistry() per session or test to avoid global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemarepl",
				Name:      "calls_total",
				Help:      "Total number of remote calls by function and outcome",
			},
			[]string{"function", "outcome"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "schemarepl",
				Name:      "call_duration_seconds",
				Help:      "Remote call round-trip duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"function"},
		),
	}
}

func (m *Metrics) observe(function, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(function, outcome).Inc()
	m.CallDuration.WithLabelValues(function).Observe(seconds)
}
