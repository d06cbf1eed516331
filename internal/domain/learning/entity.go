// Package learning describes courses, their lessons, and the per-user
// enrollment and progress records the analytics engine aggregates over.
package learning

import (
	"math"
	"time"
)

// Course is a unit of study made of ordered lessons.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CourseWithLessonCount pairs a course with the number of its lessons.
type CourseWithLessonCount struct {
	Course
	LessonCount int `json:"lessonCount"`
}

// Lesson belongs to exactly one course.
type Lesson struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Enrollment links a user to a course.
type Enrollment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CourseID   string    `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Progress is one user's state on one lesson.
type Progress struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	CourseID       string     `json:"courseId"`
	LessonID       string     `json:"lessonId"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	LastAccessedAt time.Time  `json:"lastAccessedAt"`
}

// CompletionPercent returns completed / total * 100, or 0 when total is 0.
func CompletionPercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// IsCourseComplete reports whether the rounded completion percentage is exactly 100.
func IsCourseComplete(completed, total int) bool {
	return total > 0 && math.Round(CompletionPercent(completed, total)) == 100
}

// LastAccessed returns the latest LastAccessedAt among rows, or nil when rows is empty.
func LastAccessed(rows []*Progress) *time.Time {
	var latest *time.Time
	for _, r := range rows {
		if r == nil {
			continue
		}
		if latest == nil || r.LastAccessedAt.After(*latest) {
			t := r.LastAccessedAt
			latest = &t
		}
	}
	return latest
}
