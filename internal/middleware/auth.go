package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/internal/security"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/mroshb/jeju_points/pkg/logger"
)

type contextKey struct{}

var principalKey = contextKey{}

// WithPrincipal stores the authenticated principal in ctx.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal placed in ctx by Authenticate.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// Authenticate validates the bearer token and attaches its principal.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "missing bearer token")
				return
			}

			claims, err := security.ValidateJWT(token, secret)
			if err != nil {
				logger.Debug("Rejected bearer token", "error", err)
				WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims.Principal())))
		})
	}
}

// RequireAdmin rejects principals without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "unauthorized")
			return
		}
		if !p.IsAdmin() {
			WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles each principal with rl.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if ok && !rl.Allow(p.UserID) {
				WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Code: code, Message: message})
}
