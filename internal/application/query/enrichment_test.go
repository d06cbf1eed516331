package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/memory"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/seed"
)

func demoStore() *memory.Store {
	s := memory.NewStore()
	s.Load(seed.Demo(testNow))
	return s
}

func feedOf(userIDs ...string) []*activity.Activity {
	out := make([]*activity.Activity, len(userIDs))
	for i, id := range userIDs {
		out[i] = &activity.Activity{ID: "a" + string(rune('0'+i)), UserID: id, ActivityType: activity.TypePostCreated, Title: "t", CreatedAt: testNow}
	}
	return out
}

func TestEnricher_Defaults(t *testing.T) {
	s := demoStore()
	e := NewActivityEnricher(s.Users(), s.Profiles())

	got := e.Enrich(context.Background(), feedOf("alice", "bob", "ghost", "alice"))
	require.Len(t, got, 4)

	assert.Equal(t, "Alice", got[0].User.Name)
	assert.Equal(t, 3, got[0].User.Level)
	assert.Equal(t, "alice@learnhub.dev", got[0].User.Email)

	// bob has no profile: email local part and level 1
	assert.Equal(t, "bob", got[1].User.Name)
	assert.Equal(t, user.DefaultLevel, got[1].User.Level)

	assert.Equal(t, user.UnknownUserName, got[2].User.Name)
	assert.Equal(t, "ghost", got[2].User.ID)
	assert.Empty(t, got[2].User.Email)

	assert.Equal(t, got[0].User, got[3].User)
	assert.Equal(t, "a3", got[3].ID)
}

func TestEnricher_LookupFailureDegradesEntry(t *testing.T) {
	s := demoStore()
	e := NewActivityEnricher(failingUsers{}, s.Profiles(), WithEnricherFanout(1))

	got := e.Enrich(context.Background(), feedOf("alice"))
	require.Len(t, got, 1)
	// Profile still resolves; the failing user read only loses the email.
	assert.Equal(t, "Alice", got[0].User.Name)
	assert.Empty(t, got[0].User.Email)
}

func TestEnricher_UsesCache(t *testing.T) {
	s := demoStore()
	cache := &stubIdentityCache{entries: map[string]user.Identity{
		"alice": {ID: "alice", Name: "Cached Alice", Level: 9},
	}}
	e := NewActivityEnricher(s.Users(), s.Profiles(), WithIdentityCache(cache))

	got := e.Enrich(context.Background(), feedOf("alice", "carol", "bob"))
	assert.Equal(t, "Cached Alice", got[0].User.Name)
	assert.Equal(t, "Carol", got[1].User.Name)

	// Only complete identities are written back: carol, not bob.
	require.Len(t, cache.sets, 1)
	require.Len(t, cache.sets[0], 1)
	assert.Equal(t, "carol", cache.sets[0][0].ID)
}

func TestEnricher_CacheFailureFallsBack(t *testing.T) {
	s := demoStore()
	cache := &stubIdentityCache{getErr: errBoom}
	e := NewActivityEnricher(s.Users(), s.Profiles(), WithIdentityCache(cache))

	got := e.Enrich(context.Background(), feedOf("carol"))
	assert.Equal(t, "Carol", got[0].User.Name)
}

func TestGlobalFeed(t *testing.T) {
	s := demoStore()
	h := NewGetGlobalFeedHandler(s.Activities(), NewActivityEnricher(s.Users(), s.Profiles()))

	got, err := h.Handle(context.Background(), GetGlobalFeedQuery{Limit: 5})
	require.NoError(t, err)
	require.Len(t, got.Activities, 5)
	for i := 1; i < len(got.Activities); i++ {
		assert.False(t, got.Activities[i].CreatedAt.After(got.Activities[i-1].CreatedAt))
	}
	for _, a := range got.Activities {
		assert.Equal(t, a.UserID, a.User.ID)
	}

	got, err = h.Handle(context.Background(), GetGlobalFeedQuery{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Activities), activity.DefaultFeedLimit)
}
