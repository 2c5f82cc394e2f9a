package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/prgate/pkg/server/middleware"
)

// Middleware rejects requests without a valid key in header with 401.
// The authenticated KeyInfo is stored in the request context.
func Middleware(store KeyStore, header string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := store.Validate(extractKey(r, header))
			if err != nil {
				logger.WarnContext(r.Context(), "API key rejected",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				msg := "invalid API key"
				if errors.Is(err, ErrMissingKey) {
					msg = "missing API key"
				}
				if strings.EqualFold(header, "Authorization") {
					w.Header().Set("WWW-Authenticate", `Bearer realm="prgate"`)
				}
				middleware.WriteError(w, r, http.StatusUnauthorized, middleware.ErrTypeUnauthorized, msg)
				return
			}

			logger.DebugContext(r.Context(), "API key authenticated", "client", info.Client, "path", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), keyInfoKey, info)))
		})
	}
}

// extractKey reads the key from header. The Authorization header must use
// the Bearer scheme.
func extractKey(r *http.Request, header string) string {
	value := strings.TrimSpace(r.Header.Get(header))
	if !strings.EqualFold(header, "Authorization") {
		return value
	}
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const keyInfoKey contextKey = "api_key_info"

// GetKeyInfo returns the authenticated client of the request context.
func GetKeyInfo(ctx context.Context) (*KeyInfo, bool) {
	info, ok := ctx.Value(keyInfoKey).(*KeyInfo)
	return info, ok
}
