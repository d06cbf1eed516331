package query

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/memory"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

// newRateFixture: three active courses with 5, 0 and 10 lessons, one
// inactive course, two profiles.
func newRateFixture() *memory.Store {
	s := memory.NewStore()
	addCourse(s, "c5", true, 5)
	addCourse(s, "c0", true, 0)
	addCourse(s, "c10", true, 10)
	addCourse(s, "retired", false, 4)

	addLearner(s, "u1", 10*day, 1, 0)
	addLearner(s, "u2", 20*day, 1, 0)

	complete(s, "u1", "c5", 5, testNow.Add(-5*day))
	complete(s, "u1", "c10", 4, testNow.Add(-5*day))
	complete(s, "u2", "c5", 2, testNow.Add(-5*day))
	complete(s, "u2", "c10", 10, testNow.Add(-5*day))
	complete(s, "u2", "retired", 4, testNow.Add(-50*day))
	return s
}

// bruteForceRate recomputes the rate with one lesson read and one progress
// read per (profile, course) pair.
func bruteForceRate(t *testing.T, s *memory.Store) int {
	t.Helper()
	ctx := context.Background()

	courses, err := s.Courses().FindAll(ctx, true)
	require.NoError(t, err)
	profiles, err := s.Profiles().FindAll(ctx)
	require.NoError(t, err)

	var sum float64
	pairs := 0
	for _, p := range profiles {
		for _, c := range courses {
			lessons, err := s.Lessons().FindByCourseID(ctx, c.ID)
			require.NoError(t, err)
			if len(lessons) == 0 {
				continue
			}
			done, err := s.Progress().GetCompletedLessonCount(ctx, p.UserID, c.ID)
			require.NoError(t, err)
			sum += float64(done) / float64(len(lessons)) * 100
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return int(math.Round(sum / float64(pairs)))
}

func TestCompletionRateAggregator_MatchesBruteForce(t *testing.T) {
	s := newRateFixture()
	lessons := &countingLessons{LessonRepository: s.Lessons()}
	agg := NewCompletionRateAggregator(s.Courses(), lessons, s.Progress(), s.Profiles(), 4)

	got, err := agg.CompletionRate(context.Background())
	require.NoError(t, err)

	// (100 + 40 + 40 + 100) / 4
	assert.Equal(t, 70, got)
	assert.Equal(t, bruteForceRate(t, s), got)
	// One lesson read per active course, independent of the profile count.
	assert.Equal(t, int32(3), lessons.calls.Load())
}

func TestCompletionRateAggregator_NoPairs(t *testing.T) {
	s := memory.NewStore()
	addCourse(s, "empty", true, 0)
	addLearner(s, "u1", day, 1, 0)

	got, err := NewCompletionRateAggregator(s.Courses(), s.Lessons(), s.Progress(), s.Profiles(), 0).
		CompletionRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestCompletionRateAggregator_PropagatesFailure(t *testing.T) {
	s := newRateFixture()
	agg := NewCompletionRateAggregator(s.Courses(), s.Lessons(), failingProgress{s.Progress()}, s.Profiles(), 2)

	_, err := agg.CompletionRate(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestCompletionRate_Pure(t *testing.T) {
	courseIDs := []string{"a", "b", "z"}
	lessons := map[string]int{"a": 4, "b": 0, "z": 2}
	completed := map[string]map[string]int{
		"u1": {"a": 4, "b": 0, "z": 1},
		"u2": {"a": 0},
	}
	// (100 + 50 + 0 + 0) / 4 = 37.5
	assert.Equal(t, 38, CompletionRate(courseIDs, lessons, completed))
	assert.Equal(t, 0, CompletionRate(courseIDs, lessons, nil))
}

// ─────────────────────────────────────────────────────────────────────────────
// Growth and overview
// ─────────────────────────────────────────────────────────────────────────────

func usersCreated(ages ...time.Duration) []*user.User {
	out := make([]*user.User, len(ages))
	for i, a := range ages {
		out[i] = &user.User{ID: string(rune('a' + i)), IsActive: true, CreatedAt: testNow.Add(-a)}
	}
	return out
}

func TestUserGrowth(t *testing.T) {
	t.Run("zero previous is zero growth", func(t *testing.T) {
		g := UserGrowth(usersCreated(day, 2*day, 3*day), testNow, GrowthWindow)
		assert.Equal(t, 3, g.Recent)
		assert.Equal(t, 0, g.Previous)
		assert.Equal(t, 0, g.Percent)
	})

	t.Run("windows split at 30 days", func(t *testing.T) {
		g := UserGrowth(usersCreated(day, 10*day, 29*day, 35*day, 50*day, 90*day), testNow, GrowthWindow)
		assert.Equal(t, 3, g.Recent)
		assert.Equal(t, 2, g.Previous)
		assert.Equal(t, 50, g.Percent)
	})

	t.Run("shrinking", func(t *testing.T) {
		g := UserGrowth(usersCreated(day, 31*day, 40*day, 45*day), testNow, GrowthWindow)
		assert.Equal(t, -67, g.Percent)
	})
}

func TestCompletionOverview(t *testing.T) {
	s := newRateFixture()
	s.AddUser(&user.User{ID: "gone", Email: "gone@example.com", IsActive: false, CreatedAt: testNow.Add(-40 * day)})

	h := NewGetCompletionOverviewHandler(s.Users(), s.Courses(), fixedRater(70), timeutil.FixedClock{T: testNow}, nil)
	got, err := h.Handle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, got.TotalUsers)
	assert.Equal(t, 2, got.ActiveUsers)
	assert.Equal(t, 2, got.RecentUsers)
	assert.Equal(t, 1, got.PreviousPeriodUsers)
	assert.Equal(t, 100, got.UserGrowthPercent)
	assert.Equal(t, 70, got.CompletionRatePercent)
	assert.Equal(t, 4, got.TotalCourses)
	assert.Equal(t, 19, got.TotalLessons)
	assert.Equal(t, testNow, got.GeneratedAt)
	assert.Empty(t, got.Warnings)
}

func TestCompletionOverview_DegradesCompletionRate(t *testing.T) {
	s := newRateFixture()

	h := NewGetCompletionOverviewHandler(s.Users(), s.Courses(), failingRater{}, timeutil.FixedClock{T: testNow}, nil)
	got, err := h.Handle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, got.CompletionRatePercent)
	assert.Equal(t, []string{WarningCompletionRateUnavailable}, got.Warnings)
	assert.Equal(t, 2, got.TotalUsers)
	assert.Equal(t, 2, got.ActiveUsers)
}

func TestCompletionOverview_DegradesWithRealAggregator(t *testing.T) {
	s := newRateFixture()
	agg := NewCompletionRateAggregator(s.Courses(), s.Lessons(), failingProgress{s.Progress()}, s.Profiles(), 2)

	h := NewGetCompletionOverviewHandler(s.Users(), s.Courses(), agg, timeutil.FixedClock{T: testNow}, nil)
	got, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got.CompletionRatePercent)
	assert.Len(t, got.Warnings, 1)
}

func TestCompletionOverview_UserFailurePropagates(t *testing.T) {
	s := newRateFixture()

	h := NewGetCompletionOverviewHandler(failingUsers{}, s.Courses(), fixedRater(1), timeutil.FixedClock{T: testNow}, nil)
	_, err := h.Handle(context.Background())
	assert.ErrorIs(t, err, errBoom)
}
