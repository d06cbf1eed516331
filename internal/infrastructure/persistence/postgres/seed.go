package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/seed"
)

// Seed inserts ds in one transaction. Rows that already exist are left untouched,
// so seeding twice is harmless.
func Seed(ctx context.Context, conn *Connection, ds *seed.Dataset) error {
	batch := &pgx.Batch{}

	for _, u := range ds.Users {
		batch.Queue(`INSERT INTO users (id, email, role, is_active, created_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`, u.ID, u.Email, u.Role, u.IsActive, u.CreatedAt)
	}
	for _, p := range ds.Profiles {
		batch.Queue(`INSERT INTO profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id) DO NOTHING`, p.UserID, p.Name, p.ProfilePhoto, p.Bio, p.Level, p.Points, p.CreatedAt)
	}
	for _, c := range ds.Courses {
		batch.Queue(`INSERT INTO courses (id, title, description, is_active, created_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`, c.ID, c.Title, c.Description, c.IsActive, c.CreatedAt)
	}
	for _, l := range ds.Lessons {
		batch.Queue(`INSERT INTO lessons (id, course_id, title, position) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`, l.ID, l.CourseID, l.Title, l.Position)
	}
	for _, e := range ds.Enrollments {
		batch.Queue(`INSERT INTO enrollments (id, user_id, course_id, enrolled_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING`, e.ID, e.UserID, e.CourseID, e.EnrolledAt)
	}
	for _, p := range ds.Progress {
		batch.Queue(`INSERT INTO progress (id, user_id, course_id, lesson_id, completed, completed_at, last_accessed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT DO NOTHING`, p.ID, p.UserID, p.CourseID, p.LessonID, p.Completed, p.CompletedAt, p.LastAccessedAt)
	}
	for _, p := range ds.Posts {
		batch.Queue(`INSERT INTO posts (id, user_id, title, created_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`, p.ID, p.UserID, p.Title, p.CreatedAt)
	}
	for _, b := range ds.Bookings {
		batch.Queue(`INSERT INTO bookings (id, user_id, status, scheduled_at, created_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`, b.ID, b.UserID, string(b.Status), b.ScheduledAt, b.CreatedAt)
	}
	for _, a := range ds.Activities {
		args, err := insertArgs(a)
		if err != nil {
			return err
		}
		batch.Queue(insertActivitySQL+` ON CONFLICT (id) DO NOTHING`, args...)
	}

	return conn.WithTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("seed statement %d: %w", i+1, err)
			}
		}
		return results.Close()
	})
}
