package tracing

// Attribute keys outside the OpenTelemetry semantic conventions use the
// "prgate." namespace.
const (
	AttrRequestID = "prgate.request_id"
	AttrRunID     = "prgate.run_id"
	AttrRuleSet   = "prgate.rule_set"
	AttrOutcome   = "prgate.outcome"
)
