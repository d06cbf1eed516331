// Package activity contains the append-only activity log: the Activity entity,
// its closed Type enumeration, query filters and the storage contract.
// This is a pure domain layer; the only dependency is the shared error taxonomy.
package activity

import (
	"math"
	"strings"
	"time"

	"github.com/learnhub/activity-hub/internal/domain/shared"
)

// Activity is one immutable logged domain event.
// CreatedAt is the sole ordering key.
type Activity struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId" validate:"required"`
	ActivityType Type           `json:"activityType" validate:"required"`
	Title        string         `json:"title" validate:"required"`
	Description  string         `json:"description,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Validate checks required fields only. No deduplication is performed.
func (a *Activity) Validate() error {
	var problems []string
	if strings.TrimSpace(a.UserID) == "" {
		problems = append(problems, "userId is required")
	}
	if !a.ActivityType.IsValid() {
		problems = append(problems, "activityType is not a known type")
	}
	if strings.TrimSpace(a.Title) == "" {
		problems = append(problems, "title is required")
	}
	if len(problems) > 0 {
		return shared.WrapError("activity", "Validate", shared.ErrValidation,
			strings.Join(problems, "; "), nil)
	}
	return nil
}

// Filter narrows an activity search. All set fields combine with logical AND.
// A zero StartDate or EndDate leaves that side of the range open.
type Filter struct {
	UserID    string
	Types     []Type
	StartDate time.Time
	EndDate   time.Time
}

// Validate rejects inverted date ranges.
func (f Filter) Validate() error {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.StartDate.After(f.EndDate) {
		return shared.ErrInvalidDateRange
	}
	return nil
}

// Matches reports whether a satisfies every constraint in the filter.
// The date range is inclusive on both ends.
func (f Filter) Matches(a *Activity) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if a.ActivityType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.StartDate.IsZero() && a.CreatedAt.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && a.CreatedAt.After(f.EndDate) {
		return false
	}
	return true
}

// Pagination defaults.
const (
	DefaultPage      = 1
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	DefaultUserLimit = 10
	DefaultFeedLimit = 50
	MilestoneLimit   = 100
)

// PageRequest is a 1-based page position.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps page and limit into their valid ranges.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of a filtered search, newest first.
// Total counts the whole filtered set, not just the returned page.
type Page struct {
	Activities []*Activity `json:"activities"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// NewPage assembles a Page and derives TotalPages = ceil(total / limit).
func NewPage(activities []*Activity, total int, req PageRequest) *Page {
	if activities == nil {
		activities = []*Activity{}
	}
	return &Page{
		Activities: activities,
		Total:      total,
		Page:       req.Page,
		TotalPages: TotalPages(total, req.Limit),
	}
}

// TotalPages returns ceil(total / limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// ClampLimit bounds a list limit to [1, MaxPageLimit], falling back to def.
func ClampLimit(limit, def int) int {
	if limit < 1 {
		return def
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
