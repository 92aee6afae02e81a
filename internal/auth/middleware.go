// Package auth provides HTTP middleware for bearer token authentication.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// NewAuthMiddleware returns an HTTP middleware that enforces bearer token
// authentication on the MCP endpoint. If token is empty, authentication is
// disabled and every request reaches next.
//
// When enabled, the request must carry exactly:
//
//	Authorization: Bearer <token>
//
// The prefix is case-sensitive. Anything else is answered with 401 and a
// WWW-Authenticate challenge; next is never called. Rejections are logged at
// debug level on logger (slog.Default() when nil).
func NewAuthMiddleware(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			provided, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || provided == "" || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				logger.Debug("rejected unauthenticated request",
					"remote", r.RemoteAddr,
					"path", r.URL.Path,
					"has_header", header != "",
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="issue-mcp"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
