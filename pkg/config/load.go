package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRGATE_"

// LoadConfig loads the YAML file at path and applies defaults. An empty path
// yields the defaults alone. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads path, then applies PRGATE_* environment
// variables, which take precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// envOverrides maps each variable suffix to the field it sets.
func envOverrides(cfg *Config) map[string]any {
	return map[string]any{
		"SERVER_LISTEN_ADDRESS":   &cfg.Server.ListenAddress,
		"SERVER_READ_TIMEOUT":     &cfg.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":    &cfg.Server.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":     &cfg.Server.IdleTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
		"SERVER_MAX_BODY_BYTES":   &cfg.Server.MaxBodyBytes,
		"SERVER_CORS_ENABLED":     &cfg.Server.CORS.Enabled,
		"SERVER_AUTH_ENABLED":     &cfg.Server.Auth.Enabled,
		"SERVER_AUTH_HEADER":      &cfg.Server.Auth.Header,

		"ENGINE_COMPARATOR_TIMEOUT": &cfg.Engine.ComparatorTimeout,
		"ENGINE_PASS_TIMEOUT":       &cfg.Engine.PassTimeout,
		"ENGINE_MAX_CONCURRENCY":    &cfg.Engine.MaxConcurrency,

		"COMPARATORS_MAX_EVIDENCE":   &cfg.Comparators.MaxEvidence,
		"COMPARATORS_SNIPPET_LENGTH": &cfg.Comparators.SnippetLength,

		"POLICY_PATH":          &cfg.Policy.Path,
		"POLICY_WATCH":         &cfg.Policy.Watch,
		"POLICY_STRICT":        &cfg.Policy.Strict,
		"POLICY_MAX_FILE_SIZE": &cfg.Policy.MaxFileSize,
		"POLICY_DEBOUNCE":      &cfg.Policy.Debounce,

		"TELEMETRY_LOGGING_LEVEL":        &cfg.Telemetry.Logging.Level,
		"TELEMETRY_LOGGING_FORMAT":       &cfg.Telemetry.Logging.Format,
		"TELEMETRY_LOGGING_REDACT":       &cfg.Telemetry.Logging.Redact,
		"TELEMETRY_METRICS_ENABLED":      &cfg.Telemetry.Metrics.Enabled,
		"TELEMETRY_METRICS_PATH":         &cfg.Telemetry.Metrics.Path,
		"TELEMETRY_TRACING_ENABLED":      &cfg.Telemetry.Tracing.Enabled,
		"TELEMETRY_TRACING_SAMPLER":      &cfg.Telemetry.Tracing.Sampler,
		"TELEMETRY_TRACING_SAMPLE_RATIO": &cfg.Telemetry.Tracing.SampleRatio,
		"TELEMETRY_TRACING_ENDPOINT":     &cfg.Telemetry.Tracing.Endpoint,
		"TELEMETRY_TRACING_SERVICE_NAME": &cfg.Telemetry.Tracing.ServiceName,
		"TELEMETRY_TRACING_INSECURE":     &cfg.Telemetry.Tracing.Insecure,
	}
}

// applyEnvOverrides sets every field whose variable is present. Values that
// do not parse are reported together as a ValidationError.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	var errs []FieldError
	for suffix, field := range envOverrides(cfg) {
		name := EnvPrefix + suffix
		val, ok := lookup(name)
		if !ok || val == "" {
			continue
		}
		if err := setField(field, val); err != nil {
			errs = append(errs, FieldError{Field: name, Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return ValidationError{Errors: errs}
	}
	return nil
}

func setField(field any, val string) error {
	switch f := field.(type) {
	case *string:
		*f = val
	case *bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", val)
		}
		*f = b
	case *int:
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid integer %q", val)
		}
		*f = i
	case *int64:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", val)
		}
		*f = i
	case *float64:
		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", val)
		}
		*f = x
	case *time.Duration:
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q", val)
		}
		*f = d
	default:
		return fmt.Errorf("unsupported field type %T", field)
	}
	return nil
}
