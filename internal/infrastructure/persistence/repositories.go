// Package persistence bundles the repository set behind one storage driver.
package persistence

import (
	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/community"
	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/memory"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/postgres"
)

// Repositories is every store the application layer reads or writes.
type Repositories struct {
	Activities  activity.Repository
	Users       user.Repository
	Profiles    user.ProfileRepository
	Courses     learning.CourseRepository
	Lessons     learning.LessonRepository
	Enrollments learning.EnrollmentRepository
	Progress    learning.ProgressRepository
	Posts       community.PostRepository
	Bookings    community.BookingRepository
}

// Memory returns the repository set backed by an in-process store.
func Memory(s *memory.Store) *Repositories {
	return &Repositories{
		Activities:  s.Activities(),
		Users:       s.Users(),
		Profiles:    s.Profiles(),
		Courses:     s.Courses(),
		Lessons:     s.Lessons(),
		Enrollments: s.Enrollments(),
		Progress:    s.Progress(),
		Posts:       s.Posts(),
		Bookings:    s.Bookings(),
	}
}

// Postgres returns the repository set backed by conn.
func Postgres(conn *postgres.Connection) *Repositories {
	return &Repositories{
		Activities:  postgres.NewActivityRepository(conn),
		Users:       postgres.NewUserRepository(conn),
		Profiles:    postgres.NewProfileRepository(conn),
		Courses:     postgres.NewCourseRepository(conn),
		Lessons:     postgres.NewLessonRepository(conn),
		Enrollments: postgres.NewEnrollmentRepository(conn),
		Progress:    postgres.NewProgressRepository(conn),
		Posts:       postgres.NewPostRepository(conn),
		Bookings:    postgres.NewBookingRepository(conn),
	}
}
