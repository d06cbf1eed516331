package memory

import (
	"context"

	"github.com/learnhub/activity-hub/internal/domain/community"
	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USERS & PROFILES
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository in memory.
type UserRepository struct{ s *Store }

var _ user.Repository = (*UserRepository)(nil)

// FindByID returns a user, or (nil, nil) when absent.
func (r *UserRepository) FindByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// FindAll returns users in insertion order.
func (r *UserRepository) FindAll(_ context.Context) ([]*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*user.User, 0, len(r.s.userOrder))
	for _, id := range r.s.userOrder {
		cp := *r.s.users[id]
		out = append(out, &cp)
	}
	return out, nil
}

// ProfileRepository implements user.ProfileRepository in memory.
type ProfileRepository struct{ s *Store }

var _ user.ProfileRepository = (*ProfileRepository)(nil)

// FindByUserID returns a profile, or (nil, nil) when absent.
func (r *ProfileRepository) FindByUserID(_ context.Context, userID string) (*user.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

// FindAll returns profiles ordered like their users.
func (r *ProfileRepository) FindAll(_ context.Context) ([]*user.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*user.Profile, 0, len(r.s.profiles))
	seen := make(map[string]bool, len(r.s.profiles))
	for _, id := range r.s.userOrder {
		if p, ok := r.s.profiles[id]; ok {
			cp := *p
			out = append(out, &cp)
			seen[id] = true
		}
	}
	// profiles without a user record
	for id, p := range r.s.profiles {
		if !seen[id] {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements learning.CourseRepository in memory.
type CourseRepository struct{ s *Store }

var _ learning.CourseRepository = (*CourseRepository)(nil)

// FindByID returns a course, or (nil, nil) when absent.
func (r *CourseRepository) FindByID(_ context.Context, id string) (*learning.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

// FindAll returns courses in insertion order, optionally only active ones.
func (r *CourseRepository) FindAll(_ context.Context, onlyActive bool) ([]*learning.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*learning.Course, 0, len(r.s.courseOrder))
	for _, id := range r.s.courseOrder {
		c := r.s.courses[id]
		if onlyActive && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// FindAllWithLessonCounts returns courses with their lesson counts.
func (r *CourseRepository) FindAllWithLessonCounts(ctx context.Context, onlyActive bool) ([]*learning.CourseWithLessonCount, error) {
	courses, _ := r.FindAll(ctx, onlyActive)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*learning.CourseWithLessonCount, 0, len(courses))
	for _, c := range courses {
		out = append(out, &learning.CourseWithLessonCount{Course: *c, LessonCount: len(r.s.lessons[c.ID])})
	}
	return out, nil
}

// LessonRepository implements learning.LessonRepository in memory.
type LessonRepository struct{ s *Store }

var _ learning.LessonRepository = (*LessonRepository)(nil)

// FindByCourseID returns a course's lessons ordered by position.
func (r *LessonRepository) FindByCourseID(_ context.Context, courseID string) ([]*learning.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.lessons[courseID]
	out := make([]*learning.Lesson, len(src))
	for i, l := range src {
		cp := *l
		out[i] = &cp
	}
	return out, nil
}

// EnrollmentRepository implements learning.EnrollmentRepository in memory.
type EnrollmentRepository struct{ s *Store }

var _ learning.EnrollmentRepository = (*EnrollmentRepository)(nil)

// FindByUserID returns a user's enrollments.
func (r *EnrollmentRepository) FindByUserID(_ context.Context, userID string) ([]*learning.Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.enrollments[userID]
	out := make([]*learning.Enrollment, len(src))
	for i, e := range src {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

// ProgressRepository implements learning.ProgressRepository in memory.
type ProgressRepository struct{ s *Store }

var _ learning.ProgressRepository = (*ProgressRepository)(nil)

// FindByUserAndCourse returns progress rows for one (user, course) pair.
func (r *ProgressRepository) FindByUserAndCourse(_ context.Context, userID, courseID string) ([]*learning.Progress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.progress[progressKey(userID, courseID)]
	out := make([]*learning.Progress, len(src))
	for i, p := range src {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

// GetCompletedLessonCount counts completed rows for one (user, course) pair.
func (r *ProgressRepository) GetCompletedLessonCount(_ context.Context, userID, courseID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.progress[progressKey(userID, courseID)] {
		if p.Completed {
			n++
		}
	}
	return n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMUNITY
// ══════════════════════════════════════════════════════════════════════════════

// PostRepository implements community.PostRepository in memory.
type PostRepository struct{ s *Store }

var _ community.PostRepository = (*PostRepository)(nil)

// FindByUserID returns a user's posts.
func (r *PostRepository) FindByUserID(_ context.Context, userID string) ([]*community.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.posts[userID]
	out := make([]*community.Post, len(src))
	for i, p := range src {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

// BookingRepository implements community.BookingRepository in memory.
type BookingRepository struct{ s *Store }

var _ community.BookingRepository = (*BookingRepository)(nil)

// FindByUserID returns a user's bookings.
func (r *BookingRepository) FindByUserID(_ context.Context, userID string) ([]*community.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.bookings[userID]
	out := make([]*community.Booking, len(src))
	for i, b := range src {
		cp := *b
		out[i] = &cp
	}
	return out, nil
}
