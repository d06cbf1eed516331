// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/shared"
	"github.com/learnhub/activity-hub/pkg/logger"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Appends entries to the activity log. Callers are the domain-event loggers
// and the Kafka ingestion consumer; the log itself never mutates an entry.
// ══════════════════════════════════════════════════════════════════════════════

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("activity_type", func(fl validator.FieldLevel) bool {
		return activity.Type(fl.Field().String()).IsValid()
	})
}

// RecordActivityCommand contains the data to record one activity.
type RecordActivityCommand struct {
	// ID is optional; a UUID is generated when empty.
	ID string `json:"id,omitempty" validate:"omitempty,max=64"`

	// UserID is the user the entry belongs to.
	UserID string `json:"userId" validate:"required,max=64"`

	// ActivityType must be one of the known tags.
	ActivityType string `json:"activityType" validate:"required,activity_type"`

	// Title is the short display label.
	Title string `json:"title" validate:"required,max=300"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Metadata is an opaque payload.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt defaults to now when zero.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Validate checks required fields and the activity type tag.
func (c RecordActivityCommand) Validate() error {
	c.UserID = strings.TrimSpace(c.UserID)
	c.Title = strings.TrimSpace(c.Title)
	if err := validate.Struct(c); err != nil {
		return shared.WrapError("activity", "Record", shared.ErrValidation, describeValidation(err), err)
	}
	return nil
}

// toActivity builds the entity, filling the generated fields.
func (c RecordActivityCommand) toActivity(now time.Time) *activity.Activity {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &activity.Activity{
		ID:           id,
		UserID:       strings.TrimSpace(c.UserID),
		ActivityType: activity.Type(c.ActivityType),
		Title:        strings.TrimSpace(c.Title),
		Description:  c.Description,
		Metadata:     c.Metadata,
		CreatedAt:    createdAt.UTC(),
	}
}

// describeValidation flattens validator errors into "field: tag" pairs.
func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return "invalid activity: " + strings.Join(parts, ", ")
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityHandler handles RecordActivityCommand.
type RecordActivityHandler struct {
	repo  activity.Repository
	clock timeutil.Clock
	log   *logger.Logger
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(repo activity.Repository, clock timeutil.Clock, log *logger.Logger) *RecordActivityHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RecordActivityHandler{
		repo:  repo,
		clock: clock,
		log:   log.With(logger.Component("record_activity")),
	}
}

// Handle validates and persists one activity, returning the stored record.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*activity.Activity, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	a := cmd.toActivity(h.clock.Now())
	if err := h.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("record_activity: failed to create: %w", err)
	}

	h.log.Debug("activity recorded",
		logger.UserID(a.UserID),
		logger.ActivityType(string(a.ActivityType)),
	)
	return a, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH
// Every command is validated before anything is written; the store then
// persists the batch as one unit.
// ══════════════════════════════════════════════════════════════════════════════

// RecordBatchActivityCommand contains multiple activities to record together.
type RecordBatchActivityCommand struct {
	Activities []RecordActivityCommand
}

// HandleBatch validates and persists a batch. Any invalid item rejects the batch.
func (h *RecordActivityHandler) HandleBatch(ctx context.Context, cmd RecordBatchActivityCommand) ([]*activity.Activity, error) {
	if len(cmd.Activities) == 0 {
		return []*activity.Activity{}, nil
	}

	now := h.clock.Now()
	list := make([]*activity.Activity, 0, len(cmd.Activities))
	for i, c := range cmd.Activities {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("record_activity: item %d: %w", i, err)
		}
		list = append(list, c.toActivity(now))
	}

	if err := h.repo.CreateMany(ctx, list); err != nil {
		return nil, fmt.Errorf("record_activity: failed to create batch: %w", err)
	}

	h.log.Debug("activity batch recorded", logger.Count(len(list)))
	return list, nil
}
