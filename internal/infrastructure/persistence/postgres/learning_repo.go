package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/activity-hub/internal/domain/learning"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements learning.CourseRepository for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// FindByID returns a course, or (nil, nil) when absent.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*learning.Course, error) {
	var c learning.Course
	err := r.conn.QueryRow(ctx, `
		SELECT id, title, description, is_active, created_at
		FROM courses
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Title, &c.Description, &c.IsActive, &c.CreatedAt)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

// FindAll returns all courses, optionally only the active ones.
func (r *CourseRepository) FindAll(ctx context.Context, onlyActive bool) ([]*learning.Course, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, title, description, is_active, created_at
		FROM courses
		WHERE is_active OR NOT $1
		ORDER BY created_at, id
	`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*learning.Course, 0)
	for rows.Next() {
		var c learning.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, &c)
	}
	return courses, rows.Err()
}

// FindAllWithLessonCounts returns courses with their lesson counts in one query.
func (r *CourseRepository) FindAllWithLessonCounts(ctx context.Context, onlyActive bool) ([]*learning.CourseWithLessonCount, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT c.id, c.title, c.description, c.is_active, c.created_at, COUNT(l.id)
		FROM courses c
		LEFT JOIN lessons l ON l.course_id = c.id
		WHERE c.is_active OR NOT $1
		GROUP BY c.id
		ORDER BY c.created_at, c.id
	`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses with lesson counts: %w", err)
	}
	defer rows.Close()

	result := make([]*learning.CourseWithLessonCount, 0)
	for rows.Next() {
		var c learning.CourseWithLessonCount
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.IsActive, &c.CreatedAt, &c.LessonCount); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// LessonRepository implements learning.LessonRepository for PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

// FindByCourseID returns a course's lessons ordered by position.
func (r *LessonRepository) FindByCourseID(ctx context.Context, courseID string) ([]*learning.Lesson, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, course_id, title, position
		FROM lessons
		WHERE course_id = $1
		ORDER BY position, id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]*learning.Lesson, 0)
	for rows.Next() {
		var l learning.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Position); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, &l)
	}
	return lessons, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository implements learning.EnrollmentRepository for PostgreSQL.
type EnrollmentRepository struct {
	conn *Connection
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(conn *Connection) *EnrollmentRepository {
	return &EnrollmentRepository{conn: conn}
}

// FindByUserID returns a user's enrollments, oldest first.
func (r *EnrollmentRepository) FindByUserID(ctx context.Context, userID string) ([]*learning.Enrollment, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, course_id, enrolled_at
		FROM enrollments
		WHERE user_id = $1
		ORDER BY enrolled_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	list := make([]*learning.Enrollment, 0)
	for rows.Next() {
		var e learning.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements learning.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// FindByUserAndCourse returns progress rows for one (user, course) pair.
func (r *ProgressRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) ([]*learning.Progress, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, course_id, lesson_id, completed, completed_at, last_accessed_at
		FROM progress
		WHERE user_id = $1 AND course_id = $2
		ORDER BY last_accessed_at DESC, id
	`, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	return scanProgressRows(rows)
}

// GetCompletedLessonCount counts completed lessons for one (user, course) pair.
func (r *ProgressRepository) GetCompletedLessonCount(ctx context.Context, userID, courseID string) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM progress
		WHERE user_id = $1 AND course_id = $2 AND completed
	`, userID, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return n, nil
}

func scanProgressRows(rows pgx.Rows) ([]*learning.Progress, error) {
	list := make([]*learning.Progress, 0)
	for rows.Next() {
		var p learning.Progress
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseID, &p.LessonID, &p.Completed, &p.CompletedAt, &p.LastAccessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
