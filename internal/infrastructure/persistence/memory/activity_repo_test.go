package memory

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/internal/domain/activity"
)

func fill(t *testing.T, repo *ActivityRepository, n int, base time.Time) []*activity.Activity {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	types := activity.AllTypes()
	users := []string{"u1", "u2", "u3"}

	list := make([]*activity.Activity, n)
	for i := 0; i < n; i++ {
		list[i] = &activity.Activity{
			ID:           fmt.Sprintf("a%03d", i),
			UserID:       users[rng.Intn(len(users))],
			ActivityType: types[rng.Intn(len(types))],
			Title:        "t",
			// coarse timestamps so ties are common
			CreatedAt: base.Add(time.Duration(rng.Intn(20)) * time.Hour),
		}
	}
	require.NoError(t, repo.CreateMany(context.Background(), list))
	return list
}

func TestActivityRepository_FindWithFilters_PagesAreExact(t *testing.T) {
	repo := NewStore().Activities()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fill(t, repo, 137, base)
	ctx := context.Background()

	filters := []activity.Filter{
		{},
		{UserID: "u1"},
		{Types: []activity.Type{activity.TypeLessonCompleted, activity.TypePostCreated}},
		{UserID: "u2", StartDate: base.Add(5 * time.Hour), EndDate: base.Add(12 * time.Hour)},
		{UserID: "nobody"},
	}
	for i, f := range filters {
		for _, limit := range []int{1, 7, 20, 100} {
			t.Run(fmt.Sprintf("filter%d/limit%d", i, limit), func(t *testing.T) {
				_, total, err := repo.FindWithFilters(ctx, f, activity.PageRequest{Page: 1, Limit: limit})
				require.NoError(t, err)

				pages := activity.TotalPages(total, limit)
				seen := 0
				for p := 1; p <= pages+1; p++ {
					list, tot, err := repo.FindWithFilters(ctx, f, activity.PageRequest{Page: p, Limit: limit})
					require.NoError(t, err)
					assert.Equal(t, total, tot)
					assert.LessOrEqual(t, len(list), limit)
					for _, a := range list {
						assert.True(t, f.Matches(a))
					}
					seen += len(list)
				}
				assert.Equal(t, total, seen)
			})
		}
	}
}

func TestActivityRepository_FindGlobalRecent(t *testing.T) {
	repo := NewStore().Activities()
	fill(t, repo, 60, time.Now().UTC())
	ctx := context.Background()

	for _, n := range []int{0, 1, 10, 60, 500} {
		list, err := repo.FindGlobalRecent(ctx, n)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(list), n)
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
		}
	}

	first, _ := repo.FindGlobalRecent(ctx, 60)
	second, _ := repo.FindGlobalRecent(ctx, 60)
	assert.Equal(t, first, second, "ties must not reshuffle between calls")
}

func TestActivityRepository_TiesBreakByInsertionOrder(t *testing.T) {
	repo := NewStore().Activities()
	ctx := context.Background()
	at := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &activity.Activity{ID: id, UserID: "u", ActivityType: activity.TypeLevelUp, Title: id, CreatedAt: at}))
	}

	list, err := repo.FindByUserID(ctx, "u", 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].ID)
	assert.Equal(t, "first", list[2].ID)
}

func TestActivityRepository_DeleteOlderThanIsIdempotent(t *testing.T) {
	repo := NewStore().Activities()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	all := fill(t, repo, 50, base)
	ctx := context.Background()

	cutoff := base.Add(10 * time.Hour)
	want := 0
	for _, a := range all {
		if a.CreatedAt.Before(cutoff) {
			want++
		}
	}

	n, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(want), n)

	n, err = repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, total, _ := repo.FindWithFilters(ctx, activity.Filter{}, activity.PageRequest{Page: 1, Limit: 1})
	assert.Equal(t, 50-want, total)
}

func TestActivityRepository_CreateManySkipsKnownIDs(t *testing.T) {
	repo := NewStore().Activities()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &activity.Activity{ID: "x", UserID: "u", ActivityType: activity.TypeLevelUp, Title: "x", CreatedAt: now}))

	err := repo.CreateMany(ctx, []*activity.Activity{
		{ID: "y", UserID: "u", ActivityType: activity.TypeLevelUp, Title: "y", CreatedAt: now},
		{ID: "x", UserID: "u", ActivityType: activity.TypeLevelUp, Title: "dup", CreatedAt: now},
		{ID: "y", UserID: "u", ActivityType: activity.TypeLevelUp, Title: "y again", CreatedAt: now},
	})
	require.NoError(t, err)

	x, err := repo.FindByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", x.Title)

	y, err := repo.FindByID(ctx, "y")
	require.NoError(t, err)
	require.NotNil(t, y)
	assert.Equal(t, "y", y.Title)

	all, err := repo.FindByUserID(ctx, "u", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestActivityRepository_ReturnsCopies(t *testing.T) {
	repo := NewStore().Activities()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &activity.Activity{ID: "a", UserID: "u", ActivityType: activity.TypeLevelUp, Title: "orig", CreatedAt: time.Now()}))

	got, _ := repo.FindByID(ctx, "a")
	got.Title = "mutated"

	again, _ := repo.FindByID(ctx, "a")
	assert.Equal(t, "orig", again.Title)
}
