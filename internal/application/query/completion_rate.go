package query

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION-RATE AGGREGATOR
// Средний процент завершения по всем парам (профиль, активный курс).
//
// Lesson counts are fetched once per course and profiles once per call, so
// the only per-pair read left is the completed-lesson count. Both lookup
// tables live for one call only.
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRater computes the platform-wide completion percentage.
type CompletionRater interface {
	CompletionRate(ctx context.Context) (int, error)
}

// CompletionRateAggregator implements CompletionRater over the repositories.
type CompletionRateAggregator struct {
	courses  learning.CourseRepository
	lessons  learning.LessonRepository
	progress learning.ProgressRepository
	profiles user.ProfileRepository
	limit    int
}

// NewCompletionRateAggregator creates an aggregator. fanout bounds concurrent
// reads per group; non-positive selects DefaultFanoutLimit.
func NewCompletionRateAggregator(
	courses learning.CourseRepository,
	lessons learning.LessonRepository,
	progress learning.ProgressRepository,
	profiles user.ProfileRepository,
	fanout int,
) *CompletionRateAggregator {
	if fanout <= 0 {
		fanout = DefaultFanoutLimit
	}
	return &CompletionRateAggregator{
		courses:  courses,
		lessons:  lessons,
		progress: progress,
		profiles: profiles,
		limit:    fanout,
	}
}

// CompletionRate returns round(mean completion %) over every (profile, course)
// pair whose course has at least one lesson, or 0 when there are no such pairs.
// Any read failure fails the whole computation.
func (a *CompletionRateAggregator) CompletionRate(ctx context.Context) (int, error) {
	var (
		courses      []*learning.Course
		profiles     []*user.Profile
		lessonCounts map[string]int
	)

	// Шаг 1-2: курсы с количеством уроков и профили, параллельно.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = a.courses.FindAll(gctx, true)
		if err != nil {
			return fmt.Errorf("load active courses: %w", err)
		}
		lessonCounts, err = a.lessonCounts(gctx, courses)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = a.profiles.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Шаг 3: завершённые уроки по каждой паре.
	completed, err := a.completedCounts(ctx, profiles, courses, lessonCounts)
	if err != nil {
		return 0, err
	}

	// Шаг 4-5.
	courseIDs := make([]string, len(courses))
	for i, c := range courses {
		courseIDs[i] = c.ID
	}
	return CompletionRate(courseIDs, lessonCounts, completed), nil
}

// lessonCounts builds courseID → lesson count with one read per course.
func (a *CompletionRateAggregator) lessonCounts(ctx context.Context, courses []*learning.Course) (map[string]int, error) {
	counts := make([]int, len(courses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, c := range courses {
		g.Go(func() error {
			lessons, err := a.lessons.FindByCourseID(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("load lessons of course %s: %w", c.ID, err)
			}
			counts[i] = len(lessons)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]int, len(courses))
	for i, c := range courses {
		out[c.ID] = counts[i]
	}
	return out, nil
}

// completedCounts builds userID → courseID → completed lessons. Courses
// without lessons are never queried since they cannot contribute.
func (a *CompletionRateAggregator) completedCounts(
	ctx context.Context,
	profiles []*user.Profile,
	courses []*learning.Course,
	lessonCounts map[string]int,
) (map[string]map[string]int, error) {
	counts := make([][]int, len(profiles))
	for i := range counts {
		counts[i] = make([]int, len(courses))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for pi, p := range profiles {
		for ci, c := range courses {
			if lessonCounts[c.ID] == 0 {
				continue
			}
			g.Go(func() error {
				n, err := a.progress.GetCompletedLessonCount(gctx, p.UserID, c.ID)
				if err != nil {
					return fmt.Errorf("count completed lessons (%s, %s): %w", p.UserID, c.ID, err)
				}
				counts[pi][ci] = n
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]int, len(profiles))
	for pi, p := range profiles {
		byCourse := make(map[string]int, len(courses))
		for ci, c := range courses {
			byCourse[c.ID] = counts[pi][ci]
		}
		out[p.UserID] = byCourse
	}
	return out, nil
}

// CompletionRate averages completed/lessons*100 over every (user, course)
// pair in completed whose course has a positive lesson count, rounded to
// the nearest integer. Returns 0 when no pair qualifies.
func CompletionRate(courseIDs []string, lessonCounts map[string]int, completed map[string]map[string]int) int {
	var (
		sum   float64
		pairs int
	)
	userIDs := make([]string, 0, len(completed))
	for id := range completed {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		byCourse := completed[userID]
		for _, courseID := range courseIDs {
			total := lessonCounts[courseID]
			if total <= 0 {
				continue
			}
			sum += float64(byCourse[courseID]) / float64(total) * 100
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return int(math.Round(sum / float64(pairs)))
}
