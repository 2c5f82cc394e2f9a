package metrics

import "github.com/prometheus/client_golang/prometheus"

// PolicyMetrics tracks policy pack reloads.
type PolicyMetrics struct {
	reloads *prometheus.CounterVec
	rules   prometheus.Gauge
}

func newPolicyMetrics(registry *prometheus.Registry) *PolicyMetrics {
	m := &PolicyMetrics{
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_reloads_total",
				Help:      "Policy pack load attempts by result",
			},
			[]string{"result"},
		),
		rules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "policy_rules",
				Help:      "Rules in the active policy pack",
			},
		),
	}
	registry.MustRegister(m.reloads, m.rules)
	return m
}
