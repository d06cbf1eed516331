package http

import (
	"net/http"
	"strings"

	"github.com/learnhub/activity-hub/internal/application/query"
	"github.com/learnhub/activity-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		s.writeJSON(w, r, code, status, nil)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	}, nil)
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			}, nil)
			return
		}
	}

	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, nil)
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleMyActivities handles GET /activity/my-activities?limit=
func (s *Server) handleMyActivities(w http.ResponseWriter, r *http.Request) {
	p, _ := handlers.PrincipalFrom(r.Context())

	result, err := s.deps.MyActivities.Handle(r.Context(), query.GetMyActivitiesQuery{
		UserID: p.UserID,
		Limit:  getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, result, nil)
}

// handleUserActivities handles GET /activity/user and /activity/user/{userId}.
// The path segment wins over ?userId=; with neither the caller's own log is read.
func (s *Server) handleUserActivities(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		userID = strings.TrimSpace(params.Get("userId"))
	}
	if userID == "" {
		p, _ := handlers.PrincipalFrom(r.Context())
		userID = p.UserID
	}

	page, err := s.deps.UserActivities.Handle(r.Context(), query.GetUserActivitiesQuery{
		UserID:    userID,
		Page:      getQueryParamInt(r, "page", 1),
		Limit:     getQueryParamInt(r, "limit", 0),
		StartDate: params.Get("startDate"),
		EndDate:   params.Get("endDate"),
		Types:     params.Get("types"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, page, &ResponseMeta{
		TotalCount: page.Total,
		Page:       page.Page,
		PageSize:   len(page.Activities),
		HasMore:    page.Page < page.TotalPages,
	})
}

// handleGlobalFeed handles GET /activity/global?limit= (admin).
func (s *Server) handleGlobalFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.deps.GlobalFeed.Handle(r.Context(), query.GetGlobalFeedQuery{
		Limit: getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, feed, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS & PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleOverview handles GET /analytics/overview (admin).
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.deps.Overview.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, overview, nil)
}

// handlePublicProfile handles GET /profiles/{userId}/public.
func (s *Server) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.PublicProfile.Handle(r.Context(), query.GetPublicProfileQuery{
		UserID: r.PathValue("userId"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, summary, nil)
}
