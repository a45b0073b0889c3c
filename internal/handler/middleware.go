package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const tokenKey contextKey = "bearerToken"

// BearerAuthMiddleware requires an Authorization header and injects the
// raw header value into the request context so it can be forwarded to
// the bank API verbatim. When secret is non-empty the bearer token is
// additionally verified as an HMAC-signed JWT; with an empty secret the
// token is passed through opaquely and the bank API is the authority.
func BearerAuthMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "authorization token required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			if secret != "" {
				_, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(secret), nil
				})
				if err != nil {
					logger.Warn("auth: invalid or expired token",
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
					writeError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
			}

			ctx := context.WithValue(r.Context(), tokenKey, authHeader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext extracts the raw Authorization header value injected
// by BearerAuthMiddleware.
func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}
