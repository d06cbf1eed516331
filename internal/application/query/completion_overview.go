package query

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learnhub/activity-hub/internal/domain/learning"
	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/internal/observability"
	"github.com/learnhub/activity-hub/pkg/logger"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COMPLETION OVERVIEW QUERY
// Сводка для админки: пользователи, рост, процент завершения курсов.
// ══════════════════════════════════════════════════════════════════════════════

// GrowthWindow is the length of the current and previous growth periods.
const GrowthWindow = 30 * timeutil.Day

// WarningCompletionRateUnavailable is reported when the aggregator fails.
const WarningCompletionRateUnavailable = "completion rate unavailable"

// CompletionOverview is computed fresh on every request.
type CompletionOverview struct {
	TotalUsers            int       `json:"totalUsers"`
	ActiveUsers           int       `json:"activeUsers"`
	UserGrowthPercent     int       `json:"userGrowthPercent"`
	CompletionRatePercent int       `json:"completionRatePercent"`
	RecentUsers           int       `json:"recentUsers"`
	PreviousPeriodUsers   int       `json:"previousPeriodUsers"`
	TotalCourses          int       `json:"totalCourses"`
	TotalLessons          int       `json:"totalLessons"`
	GeneratedAt           time.Time `json:"generatedAt"`
	Warnings              []string  `json:"warnings"`
}

// Growth is the user growth between two consecutive windows.
type Growth struct {
	Recent   int
	Previous int
	Percent  int
}

// UserGrowth counts users created in the window ending at now and in the
// window before it. Percent is 0 whenever the previous window is empty.
func UserGrowth(users []*user.User, now time.Time, window time.Duration) Growth {
	current, previous := timeutil.RollingWindows(now, window)

	var g Growth
	for _, u := range users {
		switch {
		case current.Contains(u.CreatedAt):
			g.Recent++
		case previous.Contains(u.CreatedAt):
			g.Previous++
		}
	}
	if g.Previous > 0 {
		g.Percent = int(math.Round(float64(g.Recent-g.Previous) / float64(g.Previous) * 100))
	}
	return g
}

// GetCompletionOverviewHandler обрабатывает запрос сводки.
type GetCompletionOverviewHandler struct {
	users   user.Repository
	courses learning.CourseRepository
	rater   CompletionRater
	clock   timeutil.Clock
	log     *logger.Logger
}

// NewGetCompletionOverviewHandler создаёт новый обработчик.
func NewGetCompletionOverviewHandler(
	users user.Repository,
	courses learning.CourseRepository,
	rater CompletionRater,
	clock timeutil.Clock,
	log *logger.Logger,
) *GetCompletionOverviewHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GetCompletionOverviewHandler{
		users:   users,
		courses: courses,
		rater:   rater,
		clock:   clock,
		log:     log.With(logger.Component("completion_overview")),
	}
}

// Handle builds the overview. A completion-rate failure is degraded to 0
// with a warning; every other failure fails the request.
func (h *GetCompletionOverviewHandler) Handle(ctx context.Context) (*CompletionOverview, error) {
	now := h.clock.Now()

	var (
		users   []*user.User
		courses []*learning.CourseWithLessonCount
		rate    int
		rateErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = h.users.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("completion_overview: load users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		courses, err = h.courses.FindAllWithLessonCounts(gctx, false)
		if err != nil {
			return fmt.Errorf("completion_overview: load courses: %w", err)
		}
		return nil
	})
	// The rater runs on the parent context so that its failure never
	// cancels the sibling reads.
	rateDone := make(chan struct{})
	go func() {
		defer close(rateDone)
		rate, rateErr = h.rater.CompletionRate(ctx)
	}()

	if err := g.Wait(); err != nil {
		<-rateDone
		return nil, err
	}
	<-rateDone

	overview := &CompletionOverview{
		TotalUsers:   len(users),
		TotalCourses: len(courses),
		GeneratedAt:  now,
		Warnings:     []string{},
	}
	for _, u := range users {
		if u.IsActive {
			overview.ActiveUsers++
		}
	}
	for _, c := range courses {
		overview.TotalLessons += c.LessonCount
	}

	growth := UserGrowth(users, now, GrowthWindow)
	overview.RecentUsers = growth.Recent
	overview.PreviousPeriodUsers = growth.Previous
	overview.UserGrowthPercent = growth.Percent

	if rateErr != nil {
		h.log.Warn("completion rate computation failed, defaulting to 0", logger.Err(rateErr))
		observability.RecordOverviewDegraded()
		overview.Warnings = append(overview.Warnings, WarningCompletionRateUnavailable)
	} else {
		overview.CompletionRatePercent = rate
	}

	return overview, nil
}
