/*
Package auth provides API key authentication for the prgate HTTP API.

CI systems posting snapshots to /v1/evaluate present a key in the configured
header. "Authorization" expects the Bearer scheme; any other header carries
the raw key.

# Basic Usage

	validator, err := auth.FromConfig(cfg.Server.Auth, os.LookupEnv)
	if err != nil {
		return err
	}
	h = auth.Middleware(validator, cfg.Server.Auth.Header, logger)(h)

Inside a handler, the authenticated client is available from the context:

	if info, ok := auth.GetKeyInfo(r.Context()); ok {
		logger.Info("evaluation requested", "client", info.Client)
	}

# Configuration Example

	server:
	  auth:
	    enabled: true
	    header: Authorization
	    keys:
	      - client: ci
	        key_env: PRGATE_CI_KEY
	      - client: release-bot
	        key: "pg-7f3c..."

Keys are stored as SHA-256 digests and never logged; only client names are.
*/
package auth
