package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/internal/security"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_minimum_32_chars"

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.Equal(t, 0, rl.Remaining("u1"))

	assert.True(t, rl.Allow("u2"))
	assert.Equal(t, 1, rl.Remaining("u2"))

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("u1"))

	rl.prune()
	assert.Len(t, rl.limits, 1)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	w.Header().Set("X-User", p.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func TestAuthenticate(t *testing.T) {
	user, err := security.GenerateJWT(models.Principal{UserID: "u1", Role: models.RoleUser}, testSecret, time.Hour)
	require.NoError(t, err)
	admin, err := security.GenerateJWT(models.Principal{UserID: "root", Role: models.RoleAdmin}, testSecret, time.Hour)
	require.NoError(t, err)

	plain := Authenticate(testSecret)(http.HandlerFunc(okHandler))
	adminOnly := Authenticate(testSecret)(RequireAdmin(http.HandlerFunc(okHandler)))

	tests := []struct {
		name     string
		handler  http.Handler
		header   string
		status   int
		wantUser string
		wantCode string
	}{
		{"no header", plain, "", http.StatusUnauthorized, "", errors.ErrCodeUnauthorized},
		{"bad token", plain, "Bearer nope", http.StatusUnauthorized, "", errors.ErrCodeUnauthorized},
		{"user", plain, "Bearer " + user, http.StatusNoContent, "u1", ""},
		{"user on admin route", adminOnly, "Bearer " + user, http.StatusForbidden, "", errors.ErrCodeForbidden},
		{"admin", adminOnly, "Bearer " + admin, http.StatusNoContent, "root", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
			if tt.wantCode != "" {
				var body ErrorBody
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Code)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()
	h := RateLimit(rl)(http.HandlerFunc(okHandler))

	serve := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), models.Principal{UserID: userID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve("u1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("u1"))
	assert.Equal(t, http.StatusNoContent, serve("u2"))
}
