// Package tracing sets up OpenTelemetry tracing for prgate.
//
// When tracing is disabled New returns a Tracer backed by the no-op
// provider, so callers can always start spans. When enabled, spans are
// batched to an OTLP gRPC collector and sampled parent-based with an
// always, never or ratio root sampler.
//
// The evaluation driver emits a "gate.evaluate" span per pass with one
// "comparator.evaluate" child per rule. HTTPMiddleware continues traces
// started by callers that send W3C traceparent headers.
package tracing
