package compiler

import (
	"time"

	"github.com/brimdata/cql/compiler/semantic"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the work of a Manager.
type Metrics struct {
	Libraries   *prometheus.CounterVec
	Diagnostics *prometheus.CounterVec
	Duration    prometheus.Histogram
}

const (
	LabelSuccess = "success"
	LabelError   = "error"
)

func NewMetrics() *Metrics {
	const (
		namespace = "cql"
		subsystem = "compiler"
	)
	return &Metrics{
		Libraries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "libraries_total",
			Help:      "Count of the libraries translated",
		}, []string{"result"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "diagnostics_total",
			Help:      "Count of the diagnostics reported",
		}, []string{"severity"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "library_duration_seconds",
			Help:      "Histogram of times spent translating a library",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 5, 7),
		}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Libraries,
		m.Diagnostics,
		m.Duration,
	}
}

func (m *Metrics) observe(u *semantic.Unit, d time.Duration) {
	if m == nil {
		return
	}
	result := LabelSuccess
	if len(u.Errors()) > 0 {
		result = LabelError
	}
	m.Libraries.WithLabelValues(result).Inc()
	for _, diag := range u.Diagnostics {
		m.Diagnostics.WithLabelValues(diag.Severity.String()).Inc()
	}
	m.Duration.Observe(d.Seconds())
}
