package metrics

import "github.com/prometheus/client_golang/prometheus"

// GateMetrics tracks comparator and evaluation pass metrics.
type GateMetrics struct {
	evaluations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	timeouts     *prometheus.CounterVec
	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	registered   prometheus.Gauge
}

func newGateMetrics(registry *prometheus.Registry) *GateMetrics {
	m := &GateMetrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparator_evaluations_total",
				Help:      "Comparator evaluations by status and reason code",
			},
			[]string{"comparator", "status", "reason"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "comparator_evaluation_duration_seconds",
				Help:      "Comparator evaluation duration in seconds",
				// Local comparators finish in microseconds, schema validation
				// can take hundreds of milliseconds.
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"comparator"},
		),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparator_timeouts_total",
				Help:      "Comparator evaluations abandoned at the per-comparator deadline",
			},
			[]string{"comparator"},
		),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Evaluation passes by aggregate outcome",
			},
			[]string{"outcome"},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Evaluation pass duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
		),
		registered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_comparators",
				Help:      "Number of comparators in the registry",
			},
		),
	}
	registry.MustRegister(m.evaluations, m.duration, m.timeouts, m.passes, m.passDuration, m.registered)
	return m
}
