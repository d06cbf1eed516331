// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/shared"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MY ACTIVITIES QUERY
// Последние активности текущего пользователя.
// ══════════════════════════════════════════════════════════════════════════════

// GetMyActivitiesQuery содержит параметры запроса.
type GetMyActivitiesQuery struct {
	// UserID - аутентифицированный пользователь.
	UserID string

	// Limit - количество записей (по умолчанию 10, максимум 100).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetMyActivitiesQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return errors.New("user id is required")
	}
	q.Limit = activity.ClampLimit(q.Limit, activity.DefaultUserLimit)
	return nil
}

// ActivityList is the {activities: [...]} response shape.
type ActivityList struct {
	Activities []*activity.Activity `json:"activities"`
}

// GetMyActivitiesHandler обрабатывает GetMyActivitiesQuery.
type GetMyActivitiesHandler struct {
	repo activity.Repository
}

// NewGetMyActivitiesHandler создаёт новый обработчик.
func NewGetMyActivitiesHandler(repo activity.Repository) *GetMyActivitiesHandler {
	return &GetMyActivitiesHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *GetMyActivitiesHandler) Handle(ctx context.Context, q GetMyActivitiesQuery) (*ActivityList, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetMyActivities", shared.ErrValidation, err.Error(), err)
	}

	list, err := h.repo.FindByUserID(ctx, q.UserID, q.Limit)
	if err != nil {
		return nil, err
	}
	return &ActivityList{Activities: nonNil(list)}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET USER ACTIVITIES QUERY
// Постраничная выборка с фильтрами: тип, диапазон дат.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserActivitiesQuery содержит параметры фильтрации и пагинации.
// Date and type fields carry raw query-string values; Validate parses them.
type GetUserActivitiesQuery struct {
	// UserID - чьи активности; пустая строка = все пользователи.
	UserID string

	Page  int
	Limit int

	// StartDate, EndDate - RFC3339 или YYYY-MM-DD, включительно.
	StartDate string
	EndDate   string

	// Types - список тегов через запятую; неизвестные молча отбрасываются,
	// а если не осталось ни одного, фильтр по типу не применяется.
	Types string

	filter activity.Filter
}

// Validate парсит даты и типы и нормализует пагинацию.
func (q *GetUserActivitiesQuery) Validate() error {
	start, err := timeutil.ParseDateParam(q.StartDate, false)
	if err != nil {
		return shared.WrapError("query", "GetUserActivities", shared.ErrValidation, "invalid startDate", err)
	}
	end, err := timeutil.ParseDateParam(q.EndDate, true)
	if err != nil {
		return shared.WrapError("query", "GetUserActivities", shared.ErrValidation, "invalid endDate", err)
	}

	q.filter = activity.Filter{
		UserID:    strings.TrimSpace(q.UserID),
		Types:     activity.ParseTypes(q.Types),
		StartDate: start,
		EndDate:   end,
	}
	return q.filter.Validate()
}

// GetUserActivitiesHandler обрабатывает GetUserActivitiesQuery.
type GetUserActivitiesHandler struct {
	repo activity.Repository
}

// NewGetUserActivitiesHandler создаёт новый обработчик.
func NewGetUserActivitiesHandler(repo activity.Repository) *GetUserActivitiesHandler {
	return &GetUserActivitiesHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *GetUserActivitiesHandler) Handle(ctx context.Context, q GetUserActivitiesQuery) (*activity.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	req := activity.PageRequest{Page: q.Page, Limit: q.Limit}.Normalize()
	list, total, err := h.repo.FindWithFilters(ctx, q.filter, req)
	if err != nil {
		return nil, err
	}
	return activity.NewPage(list, total, req), nil
}

func nonNil(list []*activity.Activity) []*activity.Activity {
	if list == nil {
		return []*activity.Activity{}
	}
	return list
}
