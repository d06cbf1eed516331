package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/internal/application/query"
	"github.com/learnhub/activity-hub/internal/domain/shared"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/memory"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/seed"
	"github.com/learnhub/activity-hub/internal/interface/http/handlers"
	"github.com/learnhub/activity-hub/pkg/logger"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

var testAuth = handlers.AuthConfig{Secret: "server-test-secret", Issuer: "learnhub"}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Meta      *ResponseMeta   `json:"meta"`
	RequestID string          `json:"request_id"`
}

func newTestServer(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	store := memory.NewStore()
	store.Load(seed.Demo(time.Now()))

	clock := timeutil.SystemClock{}
	enricher := query.NewActivityEnricher(store.Users(), store.Profiles())
	rater := query.NewCompletionRateAggregator(store.Courses(), store.Lessons(), store.Progress(), store.Profiles(), 4)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.Version = "test"
	if mutate != nil {
		mutate(&cfg)
	}

	srv := NewServer(cfg, Dependencies{
		MyActivities:   query.NewGetMyActivitiesHandler(store.Activities()),
		UserActivities: query.NewGetUserActivitiesHandler(store.Activities()),
		GlobalFeed:     query.NewGetGlobalFeedHandler(store.Activities(), enricher),
		Overview:       query.NewGetCompletionOverviewHandler(store.Users(), store.Courses(), rater, clock, logger.Nop()),
		PublicProfile: query.NewGetPublicProfileHandler(query.ProfileReaders{
			Users:       store.Users(),
			Profiles:    store.Profiles(),
			Courses:     store.Courses(),
			Lessons:     store.Lessons(),
			Enrollments: store.Enrollments(),
			Progress:    store.Progress(),
			Posts:       store.Posts(),
			Bookings:    store.Bookings(),
			Activities:  store.Activities(),
		}, clock, 4),
		Auth:   handlers.NewAuthenticator(testAuth),
		Logger: logger.Nop(),
	})
	return srv.Handler()
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := handlers.IssueToken(testAuth, sub, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func get(t *testing.T, h http.Handler, path, tok string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestAuthBoundary(t *testing.T) {
	h := newTestServer(t, nil)

	rec, env := get(t, h, "/activity/my-activities", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "unauthorized", env.Error.Code)

	rec, _ = get(t, h, "/activity/my-activities", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = get(t, h, "/analytics/overview", token(t, "alice", "user"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", env.Error.Message)

	rec, _ = get(t, h, "/activity/global", token(t, "alice", "user"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMyActivities(t *testing.T) {
	h := newTestServer(t, nil)

	rec, env := get(t, h, "/activity/my-activities?limit=3", token(t, "alice", "user"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, rec.Header().Get("X-Request-ID"))

	var list query.ActivityList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Activities, 3)
	for i, a := range list.Activities {
		assert.Equal(t, "alice", a.UserID)
		if i > 0 {
			assert.False(t, a.CreatedAt.After(list.Activities[i-1].CreatedAt), "newest first")
		}
	}
}

func TestUserActivities_PaginationMeta(t *testing.T) {
	h := newTestServer(t, nil)
	tok := token(t, "admin", "admin")

	rec, env := get(t, h, "/activity/user/alice?page=1&limit=5", tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Activities []json.RawMessage `json:"activities"`
		Total      int               `json:"total"`
		Page       int               `json:"page"`
		TotalPages int               `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Activities, 5)
	assert.Greater(t, page.Total, 5)
	assert.Equal(t, 1, page.Page)

	require.NotNil(t, env.Meta)
	assert.Equal(t, page.Total, env.Meta.TotalCount)
	assert.Equal(t, 5, env.Meta.PageSize)
	assert.True(t, env.Meta.HasMore)
}

func TestUserActivities_DefaultsToCaller(t *testing.T) {
	h := newTestServer(t, nil)

	_, viaPath := get(t, h, "/activity/user/carol", token(t, "alice", "user"))
	_, viaQuery := get(t, h, "/activity/user?userId=carol", token(t, "alice", "user"))
	_, own := get(t, h, "/activity/user", token(t, "carol", "user"))

	assert.JSONEq(t, string(viaPath.Data), string(viaQuery.Data))
	assert.JSONEq(t, string(viaPath.Data), string(own.Data))
}

func TestUserActivities_InvalidDate(t *testing.T) {
	h := newTestServer(t, nil)

	rec, env := get(t, h, "/activity/user/alice?startDate=yesterday", token(t, "alice", "user"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestGlobalFeed_Admin(t *testing.T) {
	h := newTestServer(t, nil)

	rec, env := get(t, h, "/activity/global?limit=10", token(t, "admin", "admin"))
	require.Equal(t, http.StatusOK, rec.Code)

	var feed struct {
		Activities []struct {
			UserID string `json:"userId"`
			User   struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"user"`
		} `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed.Activities, 10)
	for _, a := range feed.Activities {
		assert.Equal(t, a.UserID, a.User.ID)
	}
}

func TestOverview_Admin(t *testing.T) {
	h := newTestServer(t, nil)

	rec, env := get(t, h, "/analytics/overview", token(t, "admin", "admin"))
	require.Equal(t, http.StatusOK, rec.Code)

	var ov query.CompletionOverview
	require.NoError(t, json.Unmarshal(env.Data, &ov))
	assert.Equal(t, 4, ov.TotalUsers)
	assert.GreaterOrEqual(t, ov.CompletionRatePercent, 0)
	assert.LessOrEqual(t, ov.CompletionRatePercent, 100)
	assert.Empty(t, ov.Warnings)
}

func TestPublicProfile(t *testing.T) {
	h := newTestServer(t, nil)
	tok := token(t, "bob", "user")

	rec, env := get(t, h, "/profiles/alice/public", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary query.PublicProfileSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "alice", summary.UserID)
	assert.NotEmpty(t, summary.PublicAchievements)
	assert.NotContains(t, string(env.Data), "email")

	rec, env = get(t, h, "/profiles/ghost/public", tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
	assert.Equal(t, "Profile not found", env.Error.Message)

	// bob has no profile row
	rec, _ = get(t, h, "/profiles/bob/public", tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	for _, path := range []string{"/health", "/healthz", "/ready", "/live"} {
		rec, env := get(t, h, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, env.Success, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	get(t, h, "/live", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "activity_hub_http_request_duration_seconds")
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, func(c *Config) { c.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		rec, _ := get(t, h, "/live", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := get(t, h, "/live", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit_exceeded", env.Error.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func liveFrom(h http.Handler, xff string) int {
	req := httptest.NewRequest(http.MethodGet, "/live", nil) // RemoteAddr 192.0.2.1
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_RotatingForwardedForFromUntrustedPeer(t *testing.T) {
	h := newTestServer(t, func(c *Config) { c.RateLimitPerMinute = 2 })

	assert.Equal(t, http.StatusOK, liveFrom(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, liveFrom(h, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, liveFrom(h, "10.0.0.3"))
}

func TestRateLimit_ForwardedForBehindTrustedProxy(t *testing.T) {
	h := newTestServer(t, func(c *Config) {
		c.RateLimitPerMinute = 1
		c.TrustedProxies = []string{"192.0.2.0/24"}
	})

	assert.Equal(t, http.StatusOK, liveFrom(h, "203.0.113.7"))
	assert.Equal(t, http.StatusOK, liveFrom(h, "203.0.113.8"))
	// a forged left-most hop does not change the client the proxy appended
	assert.Equal(t, http.StatusTooManyRequests, liveFrom(h, "10.9.9.9, 203.0.113.7"))
}

func TestClientIP(t *testing.T) {
	srv := NewServer(Config{TrustedProxies: []string{"192.0.2.1", "10.0.0.0/8"}}, Dependencies{
		Auth:   handlers.NewAuthenticator(testAuth),
		Logger: logger.Nop(),
	})

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"untrusted peer ignores headers", "198.51.100.4:5000", "203.0.113.7", "203.0.113.8", "198.51.100.4"},
		{"trusted peer, single hop", "192.0.2.1:5000", "203.0.113.7", "", "203.0.113.7"},
		{"skips trusted hops right to left", "192.0.2.1:5000", "6.6.6.6, 203.0.113.7, 10.1.2.3", "", "203.0.113.7"},
		{"real ip from trusted peer", "192.0.2.1:5000", "", "203.0.113.9", "203.0.113.9"},
		{"all hops trusted falls back to peer", "192.0.2.1:5000", "10.0.0.5", "", "192.0.2.1"},
		{"garbage header", "192.0.2.1:5000", "not-an-ip", "", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/live", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, srv.clientIP(req))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.1 ", "", "nope"})
	assert.ErrorContains(t, err, "nope")
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "192.0.2.1/32", got[1].String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"not found", shared.ErrProfileNotFound, http.StatusNotFound, "not_found", "Profile not found"},
		{"validation", shared.NewDomainError("query", "Op", shared.ErrValidation, "limit must be positive"), http.StatusBadRequest, "validation_error", "limit must be positive"},
		{"bare validation kind", shared.ErrValidation, http.StatusBadRequest, "validation_error", "Invalid request"},
		{"forbidden", handlers.ErrAdminOnly, http.StatusForbidden, "forbidden", "Admin access required"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "unavailable", "Request cancelled"},
		{"internal", errors.New("pq: relation missing"), http.StatusInternalServerError, "internal_error", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, msg)
		})
	}
}
