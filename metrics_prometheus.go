package taskq

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements MetricsPolicy on top of a Prometheus
// registry, for hosts that already scrape one. Counter updates happen on
// the worker hot path, so the collectors are plain counters and a gauge,
// nothing with labels.
type PrometheusMetrics struct {
	queued     prometheus.Gauge
	executed   prometheus.Counter
	taskErrors prometheus.Counter
}

var _ MetricsPolicy = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics builds the collectors and registers them with reg.
// namespace keeps several pools apart in one registry; empty means "taskq".
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (*PrometheusMetrics, error) {
	if namespace == "" {
		namespace = "taskq"
	}
	m := &PrometheusMetrics{
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queued_tasks",
			Help:      "Number of tasks currently buffered in the queue.",
		}),
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executed_tasks_total",
			Help:      "Total number of task bodies finished, including failed ones.",
		}),
		taskErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_errors_total",
			Help:      "Total number of tasks whose final attempt failed or panicked.",
		}),
	}
	for _, c := range []prometheus.Collector{m.queued, m.executed, m.taskErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) IncQueued()             { m.queued.Inc() }
func (m *PrometheusMetrics) DecQueued()             { m.queued.Dec() }
func (m *PrometheusMetrics) BatchDecQueued(n int64) { m.queued.Sub(float64(n)) }
func (m *PrometheusMetrics) IncExecuted()           { m.executed.Inc() }
func (m *PrometheusMetrics) IncTaskError()          { m.taskErrors.Inc() }
