package flow

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a Prometheus instrumentation bundle for a Workflow, following
// the teacher's PrometheusMetrics shape: gauges for point-in-time state,
// counters for monotonic totals. Installed via WithMetrics; a Workflow
// built without one skips metrics recording entirely rather than using a
// no-op recorder, since prometheus.Registerer requires an explicit choice
// of registry.
type Metrics struct {
	sessionsActive      prometheus.Gauge
	executionsActive    prometheus.Gauge
	nodesRunning        prometheus.Gauge
	nodeRunsTotal       *prometheus.CounterVec
	routingInvalidTotal prometheus.Counter
	sessionsReapedTotal prometheus.Counter
}

// NewMetrics registers a full set of dagflow metrics on reg and returns
// the bundle for use with WithMetrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dagflow",
			Name:      "sessions_active",
			Help:      "Number of sessions currently held in memory, not yet reaped.",
		}),
		executionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dagflow",
			Name:      "executions_active",
			Help:      "Number of triggers currently fanning out through the graph.",
		}),
		nodesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dagflow",
			Name:      "nodes_running",
			Help:      "Number of node bodies currently inside Execute.",
		}),
		nodeRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dagflow",
			Name:      "node_runs_total",
			Help:      "Total node runs, partitioned by outcome status.",
		}, []string{"status"}),
		routingInvalidTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dagflow",
			Name:      "routing_invalid_total",
			Help:      "Total Routing.Add/Skip calls rejected for naming an unknown successor.",
		}),
		sessionsReapedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dagflow",
			Name:      "sessions_reaped_total",
			Help:      "Total sessions removed by the TTL reaper.",
		}),
	}
	reg.MustRegister(m.sessionsActive, m.executionsActive, m.nodesRunning, m.nodeRunsTotal, m.routingInvalidTotal, m.sessionsReapedTotal)
	return m
}

func (m *Metrics) recordRun(status ExecutionStatus) {
	if m == nil {
		return
	}
	m.nodeRunsTotal.WithLabelValues(status.String()).Inc()
}
