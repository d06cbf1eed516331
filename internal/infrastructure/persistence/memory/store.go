// Package memory provides mutex-guarded in-memory implementations of every
// repository. It backs STORAGE_DRIVER=memory and doubles as the collaborator
// fake in unit tests.
package memory

import (
	"sort"
	"sync"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/community"
	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/seed"
)

// Store holds all collections behind one lock.
type Store struct {
	mu sync.RWMutex

	users       map[string]*user.User
	userOrder   []string
	profiles    map[string]*user.Profile
	courses     map[string]*learning.Course
	courseOrder []string
	lessons     map[string][]*learning.Lesson // by course
	enrollments map[string][]*learning.Enrollment
	progress    map[string][]*learning.Progress // by user|course
	posts       map[string][]*community.Post
	bookings    map[string][]*community.Booking

	activities []storedActivity
	seq        int64
}

type storedActivity struct {
	a   *activity.Activity
	seq int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*user.User),
		profiles:    make(map[string]*user.Profile),
		courses:     make(map[string]*learning.Course),
		lessons:     make(map[string][]*learning.Lesson),
		enrollments: make(map[string][]*learning.Enrollment),
		progress:    make(map[string][]*learning.Progress),
		posts:       make(map[string][]*community.Post),
		bookings:    make(map[string][]*community.Booking),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────────────────────

// AddUser inserts or replaces a user.
func (s *Store) AddUser(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		s.userOrder = append(s.userOrder, u.ID)
	}
	cp := *u
	s.users[u.ID] = &cp
}

// AddProfile inserts or replaces a profile.
func (s *Store) AddProfile(p *user.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.UserID] = &cp
}

// AddCourse inserts or replaces a course.
func (s *Store) AddCourse(c *learning.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[c.ID]; !ok {
		s.courseOrder = append(s.courseOrder, c.ID)
	}
	cp := *c
	s.courses[c.ID] = &cp
}

// AddLesson appends a lesson to its course.
func (s *Store) AddLesson(l *learning.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.lessons[l.CourseID] = append(s.lessons[l.CourseID], &cp)
	sort.SliceStable(s.lessons[l.CourseID], func(i, j int) bool {
		return s.lessons[l.CourseID][i].Position < s.lessons[l.CourseID][j].Position
	})
}

// AddEnrollment appends an enrollment.
func (s *Store) AddEnrollment(e *learning.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.enrollments[e.UserID] = append(s.enrollments[e.UserID], &cp)
}

// AddProgress inserts a progress row, replacing any row for the same lesson.
func (s *Store) AddProgress(p *learning.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	k := progressKey(p.UserID, p.CourseID)
	for i, existing := range s.progress[k] {
		if existing.LessonID == p.LessonID {
			s.progress[k][i] = &cp
			return
		}
	}
	s.progress[k] = append(s.progress[k], &cp)
}

// AddPost appends a post.
func (s *Store) AddPost(p *community.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.posts[p.UserID] = append(s.posts[p.UserID], &cp)
}

// AddBooking appends a booking.
func (s *Store) AddBooking(b *community.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.UserID] = append(s.bookings[b.UserID], &cp)
}

// Load inserts every record of ds.
func (s *Store) Load(ds *seed.Dataset) {
	for _, u := range ds.Users {
		s.AddUser(u)
	}
	for _, p := range ds.Profiles {
		s.AddProfile(p)
	}
	for _, c := range ds.Courses {
		s.AddCourse(c)
	}
	for _, l := range ds.Lessons {
		s.AddLesson(l)
	}
	for _, e := range ds.Enrollments {
		s.AddEnrollment(e)
	}
	for _, p := range ds.Progress {
		s.AddProgress(p)
	}
	for _, p := range ds.Posts {
		s.AddPost(p)
	}
	for _, b := range ds.Bookings {
		s.AddBooking(b)
	}
	s.appendActivities(ds.Activities)
}

func progressKey(userID, courseID string) string {
	return userID + "|" + courseID
}

// ─────────────────────────────────────────────────────────────────────────────
// Repository accessors
// ─────────────────────────────────────────────────────────────────────────────

// Activities returns the activity.Repository view of the store.
func (s *Store) Activities() *ActivityRepository { return &ActivityRepository{s: s} }

// Users returns the user.Repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Profiles returns the user.ProfileRepository view of the store.
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }

// Courses returns the learning.CourseRepository view of the store.
func (s *Store) Courses() *CourseRepository { return &CourseRepository{s: s} }

// Lessons returns the learning.LessonRepository view of the store.
func (s *Store) Lessons() *LessonRepository { return &LessonRepository{s: s} }

// Enrollments returns the learning.EnrollmentRepository view of the store.
func (s *Store) Enrollments() *EnrollmentRepository { return &EnrollmentRepository{s: s} }

// Progress returns the learning.ProgressRepository view of the store.
func (s *Store) Progress() *ProgressRepository { return &ProgressRepository{s: s} }

// Posts returns the community.PostRepository view of the store.
func (s *Store) Posts() *PostRepository { return &PostRepository{s: s} }

// Bookings returns the community.BookingRepository view of the store.
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }
