package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/activity-hub/internal/domain/activity"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRepository implements activity.Repository for PostgreSQL.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

const activityColumns = `id, user_id, activity_type, title, description, metadata, created_at`

const insertActivitySQL = `
	INSERT INTO activities (id, user_id, activity_type, title, description, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO NOTHING
`

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts one activity.
func (r *ActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	args, err := insertArgs(a)
	if err != nil {
		return err
	}
	if _, err := r.conn.Exec(ctx, insertActivitySQL, args...); err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// CreateMany inserts a batch inside one transaction; any failure rolls back all rows.
// Already stored IDs hit ON CONFLICT DO NOTHING; repeats inside the batch are
// dropped before queueing so seq follows the first occurrence.
func (r *ActivityRepository) CreateMany(ctx context.Context, activities []*activity.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	seen := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		args, err := insertArgs(a)
		if err != nil {
			return err
		}
		batch.Queue(insertActivitySQL, args...)
	}

	queued := batch.Len()
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < queued; i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert activity %d of %d: %w", i+1, queued, err)
			}
		}
		return results.Close()
	})
}

func insertArgs(a *activity.Activity) ([]any, error) {
	var meta []byte
	if len(a.Metadata) > 0 {
		var err error
		meta, err = json.Marshal(a.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
	}
	return []any{
		a.ID,
		a.UserID,
		string(a.ActivityType),
		a.Title,
		nullIfEmpty(a.Description),
		meta,
		a.CreatedAt,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// FindByID returns an activity by ID, or (nil, nil) when it does not exist.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	a, err := scanActivity(r.conn.QueryRow(ctx, query, id))
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// FindByUserID returns the newest activities of one user.
func (r *ActivityRepository) FindByUserID(ctx context.Context, userID string, limit int) ([]*activity.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query user activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// FindWithFilters returns one page of the filtered set and the total filtered count.
func (r *ActivityRepository) FindWithFilters(ctx context.Context, filter activity.Filter, page activity.PageRequest) ([]*activity.Activity, int, error) {
	where, args := buildActivityFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM activities` + where
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}
	if total == 0 {
		return []*activity.Activity{}, 0, nil
	}

	pageArgs := append(args, page.Limit, page.Offset())
	pageQuery := fmt.Sprintf(`
		SELECT %s
		FROM activities%s
		ORDER BY created_at DESC, seq DESC
		LIMIT $%d OFFSET $%d
	`, activityColumns, where, len(args)+1, len(args)+2)

	rows, err := r.conn.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	list, err := scanActivities(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// FindGlobalRecent returns the newest activities across all users.
func (r *ActivityRepository) FindGlobalRecent(ctx context.Context, limit int) ([]*activity.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		ORDER BY created_at DESC, seq DESC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// DeleteOlderThan removes activities created before cutoff in a single statement.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM activities WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old activities: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// buildActivityFilter renders the WHERE clause for f with positional args.
func buildActivityFilter(f activity.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		conds = append(conds, "user_id = "+next(f.UserID))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		conds = append(conds, "activity_type = ANY("+next(types)+")")
	}
	if !f.StartDate.IsZero() {
		conds = append(conds, "created_at >= "+next(f.StartDate))
	}
	if !f.EndDate.IsZero() {
		conds = append(conds, "created_at <= "+next(f.EndDate))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	var (
		a           activity.Activity
		typ         string
		description *string
		meta        []byte
	)
	if err := row.Scan(&a.ID, &a.UserID, &typ, &a.Title, &description, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.ActivityType = activity.Type(typ)
	if description != nil {
		a.Description = *description
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity metadata: %w", err)
		}
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func scanActivities(rows pgx.Rows) ([]*activity.Activity, error) {
	list := make([]*activity.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
