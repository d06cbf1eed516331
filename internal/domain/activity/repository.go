package activity

import (
	"context"
	"time"
)

// Repository defines the interface for activity log persistence.
// This interface is implemented by the infrastructure layer.
// Every list method returns activities newest first; ties on CreatedAt
// are broken by insertion order, most recent insert first.
type Repository interface {
	// Write operations

	// Create persists a single activity. ID and CreatedAt must already be set.
	// An activity whose ID is already stored is left untouched.
	Create(ctx context.Context, a *Activity) error

	// CreateMany persists a batch atomically: either all new rows land or none do.
	// IDs that are already stored, or repeat an earlier item of the batch,
	// are skipped, so a redelivered batch is a no-op for those rows.
	CreateMany(ctx context.Context, activities []*Activity) error

	// Read operations

	// FindByID returns an activity by its ID, or (nil, nil) when absent.
	FindByID(ctx context.Context, id string) (*Activity, error)

	// FindByUserID returns at most limit activities of one user.
	FindByUserID(ctx context.Context, userID string, limit int) ([]*Activity, error)

	// FindWithFilters returns one page of the filtered set together with
	// the size of the whole filtered set.
	FindWithFilters(ctx context.Context, filter Filter, page PageRequest) ([]*Activity, int, error)

	// FindGlobalRecent returns at most limit activities across all users.
	FindGlobalRecent(ctx context.Context, limit int) ([]*Activity, error)

	// Maintenance

	// DeleteOlderThan removes activities created strictly before cutoff.
	// Returns the number of removed rows.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
