package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learnhub/activity-hub/internal/domain/achievement"
	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/community"
	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/shared"
	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PUBLIC PROFILE QUERY
// Публичная карточка пользователя: прогресс по записанным курсам,
// сообщество, достижения и навыки. Достижения не хранятся, а
// вычисляются на каждый запрос.
// ══════════════════════════════════════════════════════════════════════════════

// GetPublicProfileQuery содержит ID пользователя.
type GetPublicProfileQuery struct {
	UserID string
}

// Validate проверяет корректность параметров запроса.
func (q GetPublicProfileQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return errors.New("user id is required")
	}
	return nil
}

// CourseProgress is the user's standing in one enrolled active course.
type CourseProgress struct {
	CourseID       string     `json:"courseId"`
	Title          string     `json:"title"`
	Completed      int        `json:"completed"`
	Total          int        `json:"total"`
	Percent        int        `json:"percent"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
}

// PublicProfileSummary is the derived public view of one user.
type PublicProfileSummary struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Level        int       `json:"level"`
	Points       int       `json:"points"`
	JoinedAt     time.Time `json:"joinedAt"`

	TotalLessonsCompleted int              `json:"totalLessonsCompleted"`
	TotalLessonsAvailable int              `json:"totalLessonsAvailable"`
	CompletedCourses      int              `json:"completedCourses"`
	TotalCourses          int              `json:"totalCourses"`
	CommunityPosts        int              `json:"communityPosts"`
	SessionsAttended      int              `json:"sessionsAttended"`
	CourseProgress        []CourseProgress `json:"courseProgress"`

	PublicAchievements []achievement.Achievement `json:"publicAchievements"`
	LearningStats      []achievement.Skill       `json:"learningStats"`
	RecentMilestones   []*activity.Activity      `json:"recentMilestones"`
}

// ProfileReaders groups the collaborators the synthesizer reads from.
type ProfileReaders struct {
	Users       user.Repository
	Profiles    user.ProfileRepository
	Courses     learning.CourseRepository
	Lessons     learning.LessonRepository
	Enrollments learning.EnrollmentRepository
	Progress    learning.ProgressRepository
	Posts       community.PostRepository
	Bookings    community.BookingRepository
	Activities  activity.Repository
}

// GetPublicProfileHandler обрабатывает GetPublicProfileQuery.
type GetPublicProfileHandler struct {
	r     ProfileReaders
	clock timeutil.Clock
	limit int
}

// NewGetPublicProfileHandler создаёт новый обработчик.
func NewGetPublicProfileHandler(r ProfileReaders, clock timeutil.Clock, fanout int) *GetPublicProfileHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if fanout <= 0 {
		fanout = DefaultFanoutLimit
	}
	return &GetPublicProfileHandler{r: r, clock: clock, limit: fanout}
}

// Handle synthesizes the summary. A missing or inactive user, or a missing
// profile, yields ErrProfileNotFound; any other read failure is returned as is.
func (h *GetPublicProfileHandler) Handle(ctx context.Context, q GetPublicProfileQuery) (*PublicProfileSummary, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetPublicProfile", shared.ErrValidation, err.Error(), err)
	}

	u, p, err := h.loadIdentity(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	var (
		progress     []CourseProgress
		totalCourses int
		posts        []*community.Post
		bookings     []*community.Booking
		milestones   []*activity.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		progress, err = h.courseProgress(gctx, u.ID)
		return err
	})
	g.Go(func() error {
		all, err := h.r.Courses.FindAll(gctx, false)
		if err != nil {
			return fmt.Errorf("load courses: %w", err)
		}
		totalCourses = len(all)
		return nil
	})
	g.Go(func() error {
		var err error
		if posts, err = h.r.Posts.FindByUserID(gctx, u.ID); err != nil {
			return fmt.Errorf("load posts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if bookings, err = h.r.Bookings.FindByUserID(gctx, u.ID); err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if milestones, err = h.r.Activities.FindByUserID(gctx, u.ID, activity.MilestoneLimit); err != nil {
			return fmt.Errorf("load milestones: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get_public_profile: %w", err)
	}

	m := achievement.Metrics{
		CommunityPosts:   len(posts),
		SessionsAttended: community.CountAttended(bookings),
		Points:           p.Points,
		Level:            p.Level,
		DaysSinceJoin:    timeutil.DaysSince(u.CreatedAt, h.clock.Now()),
	}
	for _, cp := range progress {
		m.LessonsAvailable += cp.Total
		m.LessonsCompleted += cp.Completed
		if learning.IsCourseComplete(cp.Completed, cp.Total) {
			m.CompletedCourses++
		}
	}

	return &PublicProfileSummary{
		UserID:       u.ID,
		Name:         user.ResolveIdentity(u.ID, u, p).Name,
		ProfilePhoto: p.ProfilePhoto,
		Bio:          p.Bio,
		Level:        p.Level,
		Points:       p.Points,
		JoinedAt:     u.CreatedAt,

		TotalLessonsCompleted: m.LessonsCompleted,
		TotalLessonsAvailable: m.LessonsAvailable,
		CompletedCourses:      m.CompletedCourses,
		TotalCourses:          totalCourses,
		CommunityPosts:        m.CommunityPosts,
		SessionsAttended:      m.SessionsAttended,
		CourseProgress:        progress,

		PublicAchievements: achievement.Derive(m, u.CreatedAt),
		LearningStats:      achievement.Skills(m),
		RecentMilestones:   nonNil(milestones),
	}, nil
}

// loadIdentity fetches the user and the profile in parallel.
func (h *GetPublicProfileHandler) loadIdentity(ctx context.Context, userID string) (*user.User, *user.Profile, error) {
	var (
		u *user.User
		p *user.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		u, err = h.r.Users.FindByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		p, err = h.r.Profiles.FindByUserID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("get_public_profile: load identity: %w", err)
	}

	if u == nil || !u.IsActive || p == nil {
		return nil, nil, shared.ErrProfileNotFound
	}
	return u, p, nil
}

// courseProgress resolves every enrollment of the user. Enrollments whose
// course is missing or inactive are skipped and never counted.
func (h *GetPublicProfileHandler) courseProgress(ctx context.Context, userID string) ([]CourseProgress, error) {
	enrollments, err := h.r.Enrollments.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}

	slots := make([]*CourseProgress, len(enrollments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.limit)
	for i, e := range enrollments {
		g.Go(func() error {
			cp, err := h.enrolledCourse(gctx, userID, e.CourseID)
			if err != nil {
				return err
			}
			slots[i] = cp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]CourseProgress, 0, len(slots))
	for _, cp := range slots {
		if cp != nil {
			out = append(out, *cp)
		}
	}
	return out, nil
}

// enrolledCourse returns nil when the course is missing or inactive.
func (h *GetPublicProfileHandler) enrolledCourse(ctx context.Context, userID, courseID string) (*CourseProgress, error) {
	course, err := h.r.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", courseID, err)
	}
	if course == nil || !course.IsActive {
		return nil, nil
	}

	var (
		lessons   []*learning.Lesson
		completed int
		rows      []*learning.Progress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if lessons, err = h.r.Lessons.FindByCourseID(gctx, courseID); err != nil {
			return fmt.Errorf("load lessons of course %s: %w", courseID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if completed, err = h.r.Progress.GetCompletedLessonCount(gctx, userID, courseID); err != nil {
			return fmt.Errorf("count completed lessons of course %s: %w", courseID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if rows, err = h.r.Progress.FindByUserAndCourse(gctx, userID, courseID); err != nil {
			return fmt.Errorf("load progress of course %s: %w", courseID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &CourseProgress{
		CourseID:       course.ID,
		Title:          course.Title,
		Completed:      completed,
		Total:          len(lessons),
		Percent:        int(math.Round(learning.CompletionPercent(completed, len(lessons)))),
		LastAccessedAt: learning.LastAccessed(rows),
	}, nil
}
