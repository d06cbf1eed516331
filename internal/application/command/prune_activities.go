package command

import (
	"context"
	"fmt"
	"time"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/shared"
	"github.com/learnhub/activity-hub/internal/observability"
	"github.com/learnhub/activity-hub/pkg/logger"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE ACTIVITIES COMMAND
// Retention: removes every activity older than now - MaxAge.
// ══════════════════════════════════════════════════════════════════════════════

// PruneActivitiesCommand contains the retention window.
type PruneActivitiesCommand struct {
	// MaxAge is how long activities are kept.
	MaxAge time.Duration
}

// Validate checks the command.
func (c PruneActivitiesCommand) Validate() error {
	if c.MaxAge <= 0 {
		return shared.ErrInvalidRetentionAge
	}
	return nil
}

// PruneActivitiesResult reports one retention run.
type PruneActivitiesResult struct {
	Cutoff  time.Time `json:"cutoff"`
	Deleted int64     `json:"deleted"`
}

// PruneActivitiesHandler handles PruneActivitiesCommand.
type PruneActivitiesHandler struct {
	repo  activity.Repository
	clock timeutil.Clock
	log   *logger.Logger
}

// NewPruneActivitiesHandler creates a new PruneActivitiesHandler.
func NewPruneActivitiesHandler(repo activity.Repository, clock timeutil.Clock, log *logger.Logger) *PruneActivitiesHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PruneActivitiesHandler{
		repo:  repo,
		clock: clock,
		log:   log.With(logger.Component("prune_activities")),
	}
}

// Handle deletes activities created before the cutoff.
func (h *PruneActivitiesHandler) Handle(ctx context.Context, cmd PruneActivitiesCommand) (*PruneActivitiesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.clock.Now()
	cutoff := now.Add(-cmd.MaxAge)

	deleted, err := h.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("prune_activities: %w", err)
	}

	observability.RecordPruned(deleted, now)
	h.log.Info("activities pruned",
		logger.Time("cutoff", cutoff),
		logger.Int64("deleted", deleted),
	)

	return &PruneActivitiesResult{Cutoff: cutoff, Deleted: deleted}, nil
}
