// Package metrics collects Prometheus metrics for a publish run.
//
// shotpub is a short-lived CI step, so nothing is served over HTTP. Metrics
// are written once at the end of the run in the text exposition format,
// ready for the node_exporter textfile collector or a pipeline artifact.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mrz1836/shotpub/internal/domain"
)

// Metrics holds the collectors of one run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Outcomes       *prometheus.CounterVec
	ItemDuration   *prometheus.HistogramVec
	BatchSize      prometheus.Gauge
	TaskResult     *prometheus.GaugeVec
	LastRunSeconds prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shotpub_screenshots_total",
				Help: "Number of failed tests processed, by outcome",
			},
			[]string{"outcome"},
		),
		ItemDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shotpub_item_duration_seconds",
				Help:    "Time to resolve, transform and upload one screenshot",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		BatchSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shotpub_failed_tests",
				Help: "Number of failed tests in the build",
			},
		),
		TaskResult: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shotpub_task_result",
				Help: "Task result of the run; the active result is 1",
			},
			[]string{"result"},
		),
		LastRunSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shotpub_run_duration_seconds",
				Help: "Wall time of the whole run",
			},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetBatchSize records the number of failed tests.
func (m *Metrics) SetBatchSize(n int) {
	m.BatchSize.Set(float64(n))
}

// ObserveOutcome counts one processed item.
func (m *Metrics) ObserveOutcome(kind domain.OutcomeKind, d time.Duration) {
	m.Outcomes.WithLabelValues(string(kind)).Inc()
	m.ItemDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// RecordResult marks result as the active task result.
func (m *Metrics) RecordResult(result domain.TaskResult, d time.Duration) {
	for _, r := range []domain.TaskResult{
		domain.TaskSkipped,
		domain.TaskSucceeded,
		domain.TaskSucceededWithIssues,
		domain.TaskFailed,
	} {
		v := 0.0
		if r == result {
			v = 1
		}
		m.TaskResult.WithLabelValues(string(r)).Set(v)
	}
	m.LastRunSeconds.Set(d.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
