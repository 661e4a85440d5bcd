package compiler

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/newtron-network/rgosc/pkg/warnings"
)

// Unit status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds the compile counters. Create one per registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	Units    *prometheus.CounterVec
	Warnings *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers the compile metrics on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	auto := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		Units: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "rgosc_units_total",
			Help: "Compilation units processed, by status.",
		}, []string{"status"}),
		Warnings: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "rgosc_warnings_total",
			Help: "Warnings emitted, by kind.",
		}, []string{"kind"}),
		Duration: auto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rgosc_unit_duration_seconds",
			Help:    "Wall time spent compiling one unit.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// Observe records one result.
func (m *Metrics) Observe(r *Result) {
	status := StatusOK
	if r.Err != nil {
		status = StatusFailed
	}
	m.Units.WithLabelValues(status).Inc()
	m.Duration.Observe(r.Duration.Seconds())
	for kind, n := range r.Warnings.Counts() {
		m.Warnings.WithLabelValues(string(kind)).Add(float64(n))
	}
}

// WarningCount returns the accumulated counter for kind.
func (m *Metrics) WarningCount(kind warnings.Kind) float64 {
	return counterValue(m.gatherer, "rgosc_warnings_total", "kind", string(kind))
}

// UnitCount returns the accumulated counter for status.
func (m *Metrics) UnitCount(status string) float64 {
	return counterValue(m.gatherer, "rgosc_units_total", "status", status)
}

// WriteTextfile writes every metric on the registry in the node-exporter
// textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func counterValue(g prometheus.Gatherer, name, label, value string) float64 {
	families, err := g.Gather()
	if err != nil {
		return 0
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
