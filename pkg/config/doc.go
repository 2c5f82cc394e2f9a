// Package config loads prgate configuration.
//
// Configuration is read from a YAML file, completed with defaults, then
// overridden from the environment. Environment variables are named
// PRGATE_<SECTION>_<FIELD>, for example PRGATE_SERVER_LISTEN_ADDRESS or
// PRGATE_ENGINE_COMPARATOR_TIMEOUT. Validation collects every field error
// before failing.
//
// Example configuration:
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//	engine:
//	  comparator_timeout: 5s
//	  pass_timeout: 30s
//	  max_concurrency: 8
//	comparators:
//	  max_evidence: 5
//	  snippet_length: 200
//	policy:
//	  path: ./policies
//	  watch: true
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	  tracing:
//	    enabled: false
//
// Most callers build their dependencies from an explicit *Config. The
// package-level singleton (Initialize, GetConfig) serves the CLI.
package config
