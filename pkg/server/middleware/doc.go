// Package middleware provides the HTTP middleware chain for the prgate API.
//
// The server composes the chain outermost first:
//
//	handler = Recovery(logger)(handler)
//	handler = Logging(logger)(handler)
//	handler = RequestID(handler)
//	handler = CORS(cfg)(handler)
//	handler = BodyLimit(maxBytes)(handler)
//
// Per-route middleware (Metrics, tracing) is applied where the route is
// registered so the route label stays bounded.
package middleware
