package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercator-hq/prgate/pkg/finding"
)

const namespace = "prgate"

// Collector records prgate metrics.
type Collector struct {
	registry *prometheus.Registry

	gate   *GateMetrics
	policy *PolicyMetrics
	http   *HTTPMetrics
}

// NewCollector creates a collector. A nil registry gets a fresh one with the
// Go and process collectors registered.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &Collector{
		registry: registry,
		gate:     newGateMetrics(registry),
		policy:   newPolicyMetrics(registry),
		http:     newHTTPMetrics(registry),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordComparator records one comparator evaluation.
func (c *Collector) RecordComparator(id string, status finding.Status, code finding.Code, d time.Duration) {
	c.gate.evaluations.WithLabelValues(id, string(status), string(code)).Inc()
	c.gate.duration.WithLabelValues(id).Observe(d.Seconds())
	if code == finding.CodeEvaluationTimeout {
		c.gate.timeouts.WithLabelValues(id).Inc()
	}
}

// RecordEvaluation records one evaluation pass.
func (c *Collector) RecordEvaluation(outcome string, d time.Duration) {
	c.gate.passes.WithLabelValues(outcome).Inc()
	c.gate.passDuration.Observe(d.Seconds())
}

// SetRegisteredComparators records the registry size.
func (c *Collector) SetRegisteredComparators(n int) {
	c.gate.registered.Set(float64(n))
}

// RecordPolicyReload records a policy pack load attempt. rules is ignored
// when err is set.
func (c *Collector) RecordPolicyReload(rules int, err error) {
	if err != nil {
		c.policy.reloads.WithLabelValues("failure").Inc()
		return
	}
	c.policy.reloads.WithLabelValues("success").Inc()
	c.policy.rules.Set(float64(rules))
}

// RecordHTTPRequest records one served API request.
func (c *Collector) RecordHTTPRequest(route string, code int, d time.Duration) {
	c.http.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.http.duration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
