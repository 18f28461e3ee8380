package capsule

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// TokenKey is the context key for the raw capsule token.
const TokenKey contextKey = "capsule_token"

// TokenFromContext retrieves the raw capsule token from the request context.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// Middleware provides the capsule presence check for protected endpoints.
// It only verifies that a token was presented; opening (signature and expiry
// checks) happens inside the request's handling sequence, where each endpoint
// applies its own expiry policy.
type Middleware struct {
	logger *zap.Logger
}

// NewMiddleware creates a capsule middleware.
func NewMiddleware(logger *zap.Logger) *Middleware {
	return &Middleware{logger: logger}
}

// RequireCapsule rejects requests without a bearer token before any store
// interaction is attempted. The rejection is a plain-text 401, matching the
// API contract for missing credentials.
func (m *Middleware) RequireCapsule(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := TokenFromRequest(r)
		if err != nil {
			m.logger.Debug("request rejected: no capsule presented",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TokenKey, token)
		next(w, r.WithContext(ctx))
	}
}
