// Package seed builds a small deterministic demo dataset that both the
// in-memory and PostgreSQL stores can load.
package seed

import (
	"fmt"
	"time"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/community"
	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/user"
)

// Dataset is a full set of records for every collection.
type Dataset struct {
	Users       []*user.User
	Profiles    []*user.Profile
	Courses     []*learning.Course
	Lessons     []*learning.Lesson
	Enrollments []*learning.Enrollment
	Progress    []*learning.Progress
	Posts       []*community.Post
	Bookings    []*community.Booking
	Activities  []*activity.Activity
}

// Demo returns a dataset anchored at now: an admin, three learners,
// two active courses and one retired course.
func Demo(now time.Time) *Dataset {
	now = now.UTC()
	day := 24 * time.Hour
	ds := &Dataset{}

	addUser := func(id, email, role string, age time.Duration, name string, level, points int) {
		joined := now.Add(-age)
		ds.Users = append(ds.Users, &user.User{ID: id, Email: email, Role: role, IsActive: true, CreatedAt: joined})
		if name != "" {
			ds.Profiles = append(ds.Profiles, &user.Profile{UserID: id, Name: name, Level: level, Points: points, CreatedAt: joined})
		}
		ds.Activities = append(ds.Activities, &activity.Activity{
			ID: "act-reg-" + id, UserID: id, ActivityType: activity.TypeUserRegistered,
			Title: "Joined the platform", CreatedAt: joined,
		})
	}
	addUser("admin", "admin@learnhub.dev", user.RoleAdmin, 400*day, "Site Admin", 10, 1200)
	addUser("alice", "alice@learnhub.dev", user.RoleUser, 40*day, "Alice", 3, 150)
	addUser("bob", "bob@learnhub.dev", user.RoleUser, 12*day, "", 1, 20)
	addUser("carol", "carol@learnhub.dev", user.RoleUser, 45*day, "Carol", 2, 60)

	addCourse := func(id, title string, active bool, lessons int) {
		ds.Courses = append(ds.Courses, &learning.Course{ID: id, Title: title, IsActive: active, CreatedAt: now.Add(-500 * day)})
		for i := 1; i <= lessons; i++ {
			ds.Lessons = append(ds.Lessons, &learning.Lesson{
				ID: fmt.Sprintf("%s-l%02d", id, i), CourseID: id, Title: fmt.Sprintf("%s %d", title, i), Position: i,
			})
		}
	}
	addCourse("basics", "Basics", true, 8)
	addCourse("conversation", "Conversation", true, 12)
	addCourse("legacy", "Legacy Track", false, 4)

	complete := func(userID, courseID string, n int, startAge time.Duration) {
		ds.Enrollments = append(ds.Enrollments, &learning.Enrollment{
			ID: "enr-" + userID + "-" + courseID, UserID: userID, CourseID: courseID, EnrolledAt: now.Add(-startAge),
		})
		for i := 1; i <= n; i++ {
			at := now.Add(-startAge + time.Duration(i)*day)
			lessonID := fmt.Sprintf("%s-l%02d", courseID, i)
			ds.Progress = append(ds.Progress, &learning.Progress{
				ID: "prg-" + userID + "-" + lessonID, UserID: userID, CourseID: courseID, LessonID: lessonID,
				Completed: true, CompletedAt: &at, LastAccessedAt: at,
			})
			ds.Activities = append(ds.Activities, &activity.Activity{
				ID: "act-" + userID + "-" + lessonID, UserID: userID, ActivityType: activity.TypeLessonCompleted,
				Title: "Completed lesson", Metadata: map[string]any{"lessonId": lessonID, "courseId": courseID}, CreatedAt: at,
			})
		}
	}
	complete("alice", "basics", 8, 38*day)
	complete("alice", "conversation", 4, 20*day)
	complete("bob", "basics", 2, 10*day)
	complete("carol", "conversation", 12, 30*day)

	ds.Posts = append(ds.Posts,
		&community.Post{ID: "post-1", UserID: "alice", Title: "Study group?", CreatedAt: now.Add(-5 * day)},
		&community.Post{ID: "post-2", UserID: "carol", Title: "Tips for listening", CreatedAt: now.Add(-3 * day)},
	)
	ds.Bookings = append(ds.Bookings,
		&community.Booking{ID: "bk-1", UserID: "alice", Status: community.BookingCompleted, ScheduledAt: now.Add(-7 * day), CreatedAt: now.Add(-9 * day)},
		&community.Booking{ID: "bk-2", UserID: "alice", Status: community.BookingConfirmed, ScheduledAt: now.Add(2 * day), CreatedAt: now.Add(-1 * day)},
		&community.Booking{ID: "bk-3", UserID: "carol", Status: community.BookingCancelled, ScheduledAt: now.Add(-2 * day), CreatedAt: now.Add(-4 * day)},
	)
	for _, p := range ds.Posts {
		ds.Activities = append(ds.Activities, &activity.Activity{
			ID: "act-" + p.ID, UserID: p.UserID, ActivityType: activity.TypePostCreated, Title: p.Title, CreatedAt: p.CreatedAt,
		})
	}

	return ds
}
