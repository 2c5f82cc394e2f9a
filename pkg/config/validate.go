package config

import (
	"fmt"
	"net"
	"strings"
)

// FieldError is a validation failure of one field.
type FieldError struct {
	// Field is the dotted path, e.g. "engine.pass_timeout".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error of a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate returns a ValidationError listing every invalid field, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	s := cfg.Server
	if _, _, err := net.SplitHostPort(s.ListenAddress); err != nil {
		add("server.listen_address", "must be host:port: %v", err)
	}
	if s.ReadTimeout < 0 {
		add("server.read_timeout", "must not be negative")
	}
	if s.WriteTimeout < 0 {
		add("server.write_timeout", "must not be negative")
	}
	if s.ShutdownTimeout <= 0 {
		add("server.shutdown_timeout", "must be positive")
	}
	if s.MaxBodyBytes <= 0 {
		add("server.max_body_bytes", "must be positive")
	}
	if s.Auth.Enabled && len(s.Auth.Keys) == 0 {
		add("server.auth.keys", "at least one key is required when auth is enabled")
	}
	for i, k := range s.Auth.Keys {
		field := fmt.Sprintf("server.auth.keys[%d]", i)
		if k.Client == "" {
			add(field+".client", "is required")
		}
		if (k.Key == "") == (k.KeyEnv == "") {
			add(field, "exactly one of key and key_env must be set")
		}
	}

	e := cfg.Engine
	if e.ComparatorTimeout <= 0 {
		add("engine.comparator_timeout", "must be positive")
	}
	if e.PassTimeout <= 0 {
		add("engine.pass_timeout", "must be positive")
	}
	if e.ComparatorTimeout > e.PassTimeout {
		add("engine.comparator_timeout", "must not exceed engine.pass_timeout (%v)", e.PassTimeout)
	}
	if e.MaxConcurrency <= 0 {
		add("engine.max_concurrency", "must be positive")
	}

	if cfg.Comparators.MaxEvidence <= 0 {
		add("comparators.max_evidence", "must be positive")
	}
	if cfg.Comparators.SnippetLength <= 0 {
		add("comparators.snippet_length", "must be positive")
	}

	if cfg.Policy.MaxFileSize <= 0 {
		add("policy.max_file_size", "must be positive")
	}
	if cfg.Policy.Debounce < 0 {
		add("policy.debounce", "must not be negative")
	}

	t := cfg.Telemetry
	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("telemetry.logging.level", "unknown level %q", t.Logging.Level)
	}
	switch strings.ToLower(t.Logging.Format) {
	case "json", "text":
	default:
		add("telemetry.logging.format", "unknown format %q", t.Logging.Format)
	}
	if t.Metrics.Enabled && !strings.HasPrefix(t.Metrics.Path, "/") {
		add("telemetry.metrics.path", "must start with /")
	}
	switch t.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		add("telemetry.tracing.sampler", "must be always, never or ratio")
	}
	if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
		add("telemetry.tracing.sample_ratio", "must be within [0, 1]")
	}
	if t.Tracing.Enabled && t.Tracing.Endpoint == "" {
		add("telemetry.tracing.endpoint", "is required when tracing is enabled")
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
