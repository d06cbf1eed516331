package postgres

import (
	"context"
	"fmt"

	"github.com/learnhub/activity-hub/internal/domain/community"
)

// PostRepository implements community.PostRepository for PostgreSQL.
type PostRepository struct {
	conn *Connection
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(conn *Connection) *PostRepository {
	return &PostRepository{conn: conn}
}

// FindByUserID returns a user's posts, newest first.
func (r *PostRepository) FindByUserID(ctx context.Context, userID string) ([]*community.Post, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, title, created_at
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*community.Post, 0)
	for rows.Next() {
		var p community.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// BookingRepository implements community.BookingRepository for PostgreSQL.
type BookingRepository struct {
	conn *Connection
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(conn *Connection) *BookingRepository {
	return &BookingRepository{conn: conn}
}

// FindByUserID returns a user's bookings, newest first.
func (r *BookingRepository) FindByUserID(ctx context.Context, userID string) ([]*community.Booking, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, status, scheduled_at, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY scheduled_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*community.Booking, 0)
	for rows.Next() {
		var b community.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.UserID, &status, &b.ScheduledAt, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Status = community.BookingStatus(status)
		bookings = append(bookings, &b)
	}
	return bookings, rows.Err()
}
