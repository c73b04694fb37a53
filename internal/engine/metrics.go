package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "mlprov"

// Metrics collects run and step outcomes on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the provisioning collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "runs_total",
				Help:      "Provisioning runs by outcome",
			},
			[]string{"status"},
		),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "steps_total",
				Help:      "Provisioning steps by outcome",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "step_duration_seconds",
				Help:      "Wall time of invoked provisioning steps",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
			},
			[]string{"step"},
		),
	}
	m.registry.MustRegister(m.runsTotal, m.stepsTotal, m.stepDuration)
	return m
}

// Registry exposes the collectors for writing or serving.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteToTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observeStep(stepID, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(stepID, status).Inc()
	if status == StatusSuccess || status == StatusFailed {
		m.stepDuration.WithLabelValues(stepID).Observe(d.Seconds())
	}
}

func (m *Metrics) observeRun(success bool) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if !success {
		status = StatusFailed
	}
	m.runsTotal.WithLabelValues(status).Inc()
}
