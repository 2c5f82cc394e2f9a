// Package logging builds the process *slog.Logger.
//
// New returns a standard *slog.Logger whose handler redacts secret-looking
// values before they are written and adds request and run identifiers found
// in the context. Comparators report secrets they find in diffs; the
// redacting handler keeps those values out of log sinks.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redact: true})
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "evaluation started", "token", "ghp_...")
//	// {"msg":"evaluation started","token":"ghp_***","request_id":"req-123"}
package logging
