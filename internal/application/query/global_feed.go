package query

import (
	"context"

	"github.com/learnhub/activity-hub/internal/domain/activity"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GLOBAL FEED QUERY
// Лента последних активностей всех пользователей (только для админов).
// ══════════════════════════════════════════════════════════════════════════════

// GetGlobalFeedQuery содержит параметры запроса.
type GetGlobalFeedQuery struct {
	// Limit - количество записей (по умолчанию 50, максимум 100).
	Limit int
}

// Validate нормализует лимит.
func (q *GetGlobalFeedQuery) Validate() error {
	q.Limit = activity.ClampLimit(q.Limit, activity.DefaultFeedLimit)
	return nil
}

// GlobalFeed is the {activities: [...]} response shape with identities.
type GlobalFeed struct {
	Activities []EnrichedActivity `json:"activities"`
}

// GetGlobalFeedHandler обрабатывает GetGlobalFeedQuery.
type GetGlobalFeedHandler struct {
	repo     activity.Repository
	enricher *ActivityEnricher
}

// NewGetGlobalFeedHandler создаёт новый обработчик.
func NewGetGlobalFeedHandler(repo activity.Repository, enricher *ActivityEnricher) *GetGlobalFeedHandler {
	return &GetGlobalFeedHandler{repo: repo, enricher: enricher}
}

// Handle выполняет запрос.
func (h *GetGlobalFeedHandler) Handle(ctx context.Context, q GetGlobalFeedQuery) (*GlobalFeed, error) {
	_ = q.Validate()

	list, err := h.repo.FindGlobalRecent(ctx, q.Limit)
	if err != nil {
		return nil, err
	}
	return &GlobalFeed{Activities: h.enricher.Enrich(ctx, list)}, nil
}
