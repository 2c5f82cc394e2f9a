// Package server exposes the gate engine over HTTP.
//
// Routes:
//
//	POST /v1/evaluate     evaluate a PR snapshot against a rule set
//	GET  /v1/comparators  list registered comparators
//	GET  /v1/policy       active policy pack status
//	GET  /health          liveness probe
//	GET  /ready           readiness probe
//	GET  /metrics         Prometheus metrics (path configurable)
//
// An evaluate request carries the snapshot and, optionally, an inline rule
// set. Without one, the rule set of the loaded policy pack is used:
//
//	{
//	  "pull_request": { "number": 42, "author": {"login": "octocat"}, ... },
//	  "rule_set": { "name": "inline", "rules": [ ... ] }
//	}
//
// The response is the gate.Report. Unknown comparators are reported together
// with status 422; malformed requests get 400 and a missing policy pack 503.
//
// When server.auth is enabled, the /v1 routes require an API key (see
// package auth) and answer 401 without one. Probes and metrics stay open.
package server
