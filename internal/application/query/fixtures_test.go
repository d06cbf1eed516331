package query

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/memory"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

var errBoom = errors.New("boom")

// addCourse inserts a course with n lessons named <id>-l01...
func addCourse(s *memory.Store, id string, active bool, n int) {
	s.AddCourse(&learning.Course{ID: id, Title: "Course " + id, IsActive: active, CreatedAt: testNow.Add(-100 * day)})
	for i := 1; i <= n; i++ {
		s.AddLesson(&learning.Lesson{ID: fmt.Sprintf("%s-l%02d", id, i), CourseID: id, Title: "Lesson", Position: i})
	}
}

// complete marks the first n lessons of courseID completed for userID.
func complete(s *memory.Store, userID, courseID string, n int, at time.Time) {
	for i := 1; i <= n; i++ {
		lessonID := fmt.Sprintf("%s-l%02d", courseID, i)
		done := at.Add(time.Duration(i) * time.Hour)
		s.AddProgress(&learning.Progress{
			ID: "p-" + userID + "-" + lessonID, UserID: userID, CourseID: courseID, LessonID: lessonID,
			Completed: true, CompletedAt: &done, LastAccessedAt: done,
		})
	}
}

func addLearner(s *memory.Store, id string, age time.Duration, level, points int) {
	s.AddUser(&user.User{ID: id, Email: id + "@example.com", Role: user.RoleUser, IsActive: true, CreatedAt: testNow.Add(-age)})
	s.AddProfile(&user.Profile{UserID: id, Name: "Learner " + id, Level: level, Points: points, CreatedAt: testNow.Add(-age)})
}

func enroll(s *memory.Store, userID, courseID string) {
	s.AddEnrollment(&learning.Enrollment{ID: "e-" + userID + "-" + courseID, UserID: userID, CourseID: courseID, EnrolledAt: testNow.Add(-30 * day)})
}

// ─────────────────────────────────────────────────────────────────────────────
// Stubs
// ─────────────────────────────────────────────────────────────────────────────

type countingLessons struct {
	learning.LessonRepository
	calls atomic.Int32
}

func (c *countingLessons) FindByCourseID(ctx context.Context, courseID string) ([]*learning.Lesson, error) {
	c.calls.Add(1)
	return c.LessonRepository.FindByCourseID(ctx, courseID)
}

type failingProgress struct {
	learning.ProgressRepository
}

func (failingProgress) GetCompletedLessonCount(context.Context, string, string) (int, error) {
	return 0, errBoom
}

type failingUsers struct{}

func (failingUsers) FindByID(context.Context, string) (*user.User, error) { return nil, errBoom }
func (failingUsers) FindAll(context.Context) ([]*user.User, error)        { return nil, errBoom }

type failingRater struct{}

func (failingRater) CompletionRate(context.Context) (int, error) { return 0, errBoom }

type fixedRater int

func (r fixedRater) CompletionRate(context.Context) (int, error) { return int(r), nil }

type failingActivities struct {
	activity.Repository
}

func (failingActivities) FindByUserID(context.Context, string, int) ([]*activity.Activity, error) {
	return nil, errBoom
}

// stubIdentityCache is an in-process IdentityCache.
type stubIdentityCache struct {
	entries map[string]user.Identity
	getErr  error
	sets    [][]user.Identity
}

func (c *stubIdentityCache) GetMany(_ context.Context, ids []string) (map[string]user.Identity, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	out := map[string]user.Identity{}
	for _, id := range ids {
		if v, ok := c.entries[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (c *stubIdentityCache) SetMany(_ context.Context, list []user.Identity) error {
	c.sets = append(c.sets, list)
	return nil
}
