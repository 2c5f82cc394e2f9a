// Package metrics exposes prgate's Prometheus metrics.
//
// Metrics:
//   - prgate_comparator_evaluations_total{comparator,status,reason}
//   - prgate_comparator_evaluation_duration_seconds{comparator}
//   - prgate_comparator_timeouts_total{comparator}
//   - prgate_evaluations_total{outcome}
//   - prgate_evaluation_duration_seconds
//   - prgate_registered_comparators
//   - prgate_policy_reloads_total{result}
//   - prgate_policy_rules
//   - prgate_http_requests_total{route,code}
//   - prgate_http_request_duration_seconds{route}
//
// A Collector owns its own registry so tests and embedded uses never share
// global state. It implements gate.Recorder.
package metrics
