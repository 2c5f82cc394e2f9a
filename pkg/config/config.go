package config

import "time"

// Config is the root configuration for prgate.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Engine      EngineConfig      `yaml:"engine"`
	Comparators ComparatorsConfig `yaml:"comparators"`
	Policy      PolicyConfig      `yaml:"policy"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// ListenAddress is "host:port".
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout must cover a full evaluation pass.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits request bodies. PR snapshots with inline file
	// content can be large.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	CORS CORSConfig `yaml:"cors"`
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig configures API key authentication of the /v1 routes. Health,
// readiness and metrics stay unauthenticated.
type AuthConfig struct {
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Header carries the key. "Authorization" expects the Bearer scheme.
	// Default: "Authorization"
	Header string `yaml:"header"`

	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig is one accepted key. Exactly one of Key and KeyEnv is set.
type APIKeyConfig struct {
	// Client names the caller in logs, e.g. "ci".
	Client string `yaml:"client"`

	Key string `yaml:"key"`

	// KeyEnv names an environment variable holding the key.
	KeyEnv string `yaml:"key_env"`

	Disabled bool `yaml:"disabled"`
}

// CORSConfig configures cross-origin requests.
type CORSConfig struct {
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// EngineConfig configures the evaluation driver.
type EngineConfig struct {
	// ComparatorTimeout bounds a single comparator.
	// Default: 5s
	ComparatorTimeout time.Duration `yaml:"comparator_timeout"`

	// PassTimeout bounds a whole evaluation.
	// Default: 30s
	PassTimeout time.Duration `yaml:"pass_timeout"`

	// Default: 8
	MaxConcurrency int `yaml:"max_concurrency"`
}

// ComparatorsConfig configures the built-in comparators.
type ComparatorsConfig struct {
	// MaxEvidence caps evidence items per result.
	// Default: 5
	MaxEvidence int `yaml:"max_evidence"`

	// SnippetLength caps snippet evidence, in characters.
	// Default: 200
	SnippetLength int `yaml:"snippet_length"`
}

// PolicyConfig configures the policy pack source.
type PolicyConfig struct {
	// Path is a pack file or directory.
	// Default: "./policies"
	Path string `yaml:"path"`

	// Watch reloads the pack when its files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Strict rejects packs with lint warnings.
	// Default: false
	Strict bool `yaml:"strict"`

	// Default: 1048576 (1MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// Default: 250ms
	Debounce time.Duration `yaml:"debounce"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks secret-looking attribute values.
	// Default: true
	Redact bool `yaml:"redact"`

	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is an extra log redaction rule.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Default: "prgate"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`
}
