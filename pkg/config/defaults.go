package config

import "time"

// Default values for configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = 10 << 20
	DefaultCORSMaxAge      = 3600
	DefaultAuthHeader      = "Authorization"

	DefaultComparatorTimeout = 5 * time.Second
	DefaultPassTimeout       = 30 * time.Second
	DefaultMaxConcurrency    = 8

	DefaultMaxEvidence   = 5
	DefaultSnippetLength = 200

	DefaultPolicyPath        = "./policies"
	DefaultPolicyMaxFileSize = 1 << 20
	DefaultPolicyDebounce    = 250 * time.Millisecond

	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsPath    = "/metrics"
	DefaultTracingSampler = "ratio"
	DefaultSampleRatio    = 0.1
	DefaultTracingAddress = "localhost:4317"
	DefaultServiceName    = "prgate"
)

// Default returns a configuration with every default applied, including
// the boolean defaults that ApplyDefaults cannot infer from zero values.
func Default() *Config {
	cfg := &Config{}
	cfg.Telemetry.Logging.Redact = true
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Tracing.Insecure = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. It is idempotent.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if len(s.CORS.AllowedOrigins) == 0 {
		s.CORS.AllowedOrigins = []string{"*"}
	}
	if len(s.CORS.AllowedMethods) == 0 {
		s.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(s.CORS.AllowedHeaders) == 0 {
		s.CORS.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if s.CORS.MaxAge == 0 {
		s.CORS.MaxAge = DefaultCORSMaxAge
	}
	if s.Auth.Header == "" {
		s.Auth.Header = DefaultAuthHeader
	}

	e := &cfg.Engine
	if e.ComparatorTimeout == 0 {
		e.ComparatorTimeout = DefaultComparatorTimeout
	}
	if e.PassTimeout == 0 {
		e.PassTimeout = DefaultPassTimeout
	}
	if e.MaxConcurrency == 0 {
		e.MaxConcurrency = DefaultMaxConcurrency
	}

	if cfg.Comparators.MaxEvidence == 0 {
		cfg.Comparators.MaxEvidence = DefaultMaxEvidence
	}
	if cfg.Comparators.SnippetLength == 0 {
		cfg.Comparators.SnippetLength = DefaultSnippetLength
	}

	p := &cfg.Policy
	if p.Path == "" {
		p.Path = DefaultPolicyPath
	}
	if p.MaxFileSize == 0 {
		p.MaxFileSize = DefaultPolicyMaxFileSize
	}
	if p.Debounce == 0 {
		p.Debounce = DefaultPolicyDebounce
	}

	t := &cfg.Telemetry
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultSampleRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingAddress
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultServiceName
	}
}
