package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/token"
)

const bearerPrefix = "Bearer "

// Gate returns the authentication middleware. It runs once per request,
// before any business logic:
//
//   - no Authorization header: the request proceeds anonymously so public
//     routes stay reachable; the policy stage decides whether that is enough
//   - header present without the exact "Bearer " prefix: 401. A client that
//     attempted auth and got it wrong must not fall back to anonymous
//   - invalid or expired token: 401, with a distinct message for expiry so
//     clients know to log in again rather than retry
//   - valid token: the decoded principal is attached to the request context
//
// The gate holds no mutable state and does no I/O, only a signature check.
func Gate(codec *token.Codec, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Anonymous())))
				return
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				logger.Debug("malformed authorization header", zap.String("path", r.URL.Path))
				unauthorized(w, "invalid token")
				return
			}

			raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			claims, err := codec.Verify(raw)
			if err != nil {
				if errors.Is(err, token.ErrExpiredToken) {
					unauthorized(w, "token expired, please log in again")
					return
				}
				logger.Debug("token rejected", zap.String("path", r.URL.Path))
				unauthorized(w, "invalid token")
				return
			}

			p := Principal{UserID: claims.UserID, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeStatus(w, http.StatusUnauthorized, msg)
}

func forbidden(w http.ResponseWriter) {
	writeStatus(w, http.StatusForbidden, "insufficient role")
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
