// Package telemetry groups the observability packages of prgate.
//
// # Components
//
//   - logging: slog construction with secret redaction and run/request IDs
//   - metrics: Prometheus collector for comparator and evaluation metrics
//   - tracing: OpenTelemetry tracer with OTLP export and HTTP propagation
//   - health: liveness and readiness checks
//
// # Usage
//
//	cfg := config.MustGetConfig()
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	collector := metrics.NewCollector(nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//
//	engine, err := gate.New(engineCfg, registry, logger,
//		gate.WithRecorder(collector),
//		gate.WithTracer(tracer),
//	)
package telemetry
