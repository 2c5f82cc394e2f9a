package gate

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/prgate/pkg/finding"
)

// Recorder receives evaluation measurements. The metrics collector
// implements it.
type Recorder interface {
	RecordComparator(comparatorID string, status finding.Status, code finding.Code, d time.Duration)
	RecordEvaluation(outcome string, d time.Duration)
}

// SpanStarter starts trace spans. Both OpenTelemetry tracers and the
// tracing package's Tracer implement it.
type SpanStarter interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

type noopRecorder struct{}

func (noopRecorder) RecordComparator(string, finding.Status, finding.Code, time.Duration) {}
func (noopRecorder) RecordEvaluation(string, time.Duration)                              {}
