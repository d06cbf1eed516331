package learning

import "context"

// CourseRepository reads courses.
// FindByID returns (nil, nil) when the course does not exist.
type CourseRepository interface {
	FindByID(ctx context.Context, id string) (*Course, error)

	// FindAll returns every course, or only active ones when onlyActive is set.
	FindAll(ctx context.Context, onlyActive bool) ([]*Course, error)

	// FindAllWithLessonCounts is FindAll with each course's lesson count attached.
	FindAllWithLessonCounts(ctx context.Context, onlyActive bool) ([]*CourseWithLessonCount, error)
}

// LessonRepository reads lessons.
type LessonRepository interface {
	// FindByCourseID returns a course's lessons ordered by position.
	FindByCourseID(ctx context.Context, courseID string) ([]*Lesson, error)
}

// EnrollmentRepository reads enrollments.
type EnrollmentRepository interface {
	FindByUserID(ctx context.Context, userID string) ([]*Enrollment, error)
}

// ProgressRepository reads per-lesson progress.
type ProgressRepository interface {
	// FindByUserAndCourse returns the user's progress rows for one course.
	FindByUserAndCourse(ctx context.Context, userID, courseID string) ([]*Progress, error)

	// GetCompletedLessonCount counts completed lessons for one (user, course) pair.
	GetCompletedLessonCount(ctx context.Context, userID, courseID string) (int, error)
}
