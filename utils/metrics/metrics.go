// Package metrics exposes Prometheus instrumentation for the polling
// engine and the execution pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics instruments the polling loop.
type EngineMetrics struct {
	CyclesTotal        prometheus.Counter
	CycleFailures      prometheus.Counter
	QuoteFetchErrors   prometheus.Counter
	OpportunitiesFound prometheus.Counter
	CycleDuration      prometheus.Gauge
}

// NewEngineMetrics registers the engine collectors on reg.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stablearb_cycles_total",
			Help: "Number of polling cycles started",
		}),
		CycleFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "stablearb_cycle_failures_total",
			Help: "Number of polling cycles that ended in an error or panic",
		}),
		QuoteFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "stablearb_quote_fetch_errors_total",
			Help: "Number of failed pool quote fetches",
		}),
		OpportunitiesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "stablearb_opportunities_found_total",
			Help: "Number of cycles where a direction cleared the profit threshold",
		}),
		CycleDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stablearb_cycle_duration_seconds",
			Help: "Wall time of the most recent polling cycle",
		}),
	}
}

// PipelineMetrics instruments round-trip executions.
type PipelineMetrics struct {
	ExecutionsStarted prometheus.Counter
	ExecutionsFailed  *prometheus.CounterVec
	// CumulativeProfit is a gauge because losses pull it below zero.
	CumulativeProfit prometheus.Gauge
}

// NewPipelineMetrics registers the pipeline collectors on reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		ExecutionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "stablearb_executions_started_total",
			Help: "Number of round-trip executions started",
		}),
		ExecutionsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stablearb_executions_failed_total",
			Help: "Number of executions that failed, by pipeline stage",
		}, []string{"stage"}),
		CumulativeProfit: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stablearb_cumulative_profit",
			Help: "Running sum of realized round-trip profit in home token units",
		}),
	}
}
