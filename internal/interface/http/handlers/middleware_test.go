package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/internal/domain/shared"
)

var testAuth = AuthConfig{Secret: "test-secret", Issuer: "learnhub"}

func TestAuthenticator_Parse(t *testing.T) {
	a := NewAuthenticator(testAuth)

	t.Run("valid token", func(t *testing.T) {
		tok, err := IssueToken(testAuth, "alice", "", time.Minute)
		require.NoError(t, err)

		p, err := a.Parse(tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", p.UserID)
		assert.Equal(t, "user", p.Role)
		assert.False(t, p.IsAdmin())
	})

	t.Run("admin role", func(t *testing.T) {
		tok, err := IssueToken(testAuth, "admin", "admin", time.Minute)
		require.NoError(t, err)

		p, err := a.Parse(tok)
		require.NoError(t, err)
		assert.True(t, p.IsAdmin())
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := IssueToken(testAuth, "alice", "user", -time.Minute)
		require.NoError(t, err)

		_, err = a.Parse(tok)
		assertInvalidToken(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := IssueToken(AuthConfig{Secret: "other", Issuer: "learnhub"}, "alice", "user", time.Minute)
		require.NoError(t, err)

		_, err = a.Parse(tok)
		assertInvalidToken(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok, err := IssueToken(AuthConfig{Secret: testAuth.Secret, Issuer: "elsewhere"}, "alice", "user", time.Minute)
		require.NoError(t, err)

		_, err = a.Parse(tok)
		assertInvalidToken(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss": testAuth.Issuer,
			"exp": time.Now().Add(time.Minute).Unix(),
		}).SignedString([]byte(testAuth.Secret))
		require.NoError(t, err)

		_, err = a.Parse(tok)
		assertInvalidToken(t, err)
	})
}

func assertInvalidToken(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, shared.IsUnauthorized(err))
	assert.Equal(t, ErrInvalidToken.Message, shared.Message(err))
}

func TestMiddleware(t *testing.T) {
	a := NewAuthenticator(testAuth)

	var gotErr error
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusTeapot)
	}

	var seen *Principal
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), a.Middleware(onError), RequireAdmin(onError))

	t.Run("no token", func(t *testing.T) {
		gotErr = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.ErrorIs(t, gotErr, ErrMissingToken)
		assert.True(t, shared.IsUnauthorized(gotErr))
	})

	t.Run("non-admin", func(t *testing.T) {
		gotErr = nil
		tok, _ := IssueToken(testAuth, "alice", "user", time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.ErrorIs(t, gotErr, ErrAdminOnly)
		assert.True(t, shared.IsForbidden(gotErr))
	})

	t.Run("admin passes", func(t *testing.T) {
		gotErr = nil
		tok, _ := IssueToken(testAuth, "admin", "admin", time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.NoError(t, gotErr)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "admin", seen.UserID)
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per key")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
