package achievement

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(list []Achievement) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, a := range list {
		out[a.Key] = true
	}
	return out
}

func TestDerive_WelcomeIsUnconditional(t *testing.T) {
	join := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Derive(Metrics{}, join)
	require.Len(t, got, 1)
	assert.Equal(t, "welcome", got[0].Key)
	assert.Equal(t, join, got[0].UnlockedAt)
}

func TestDerive_UnlockTimeIsJoinPlusOffset(t *testing.T) {
	// a two-day-old account that already has 50 lessons: offsets run past today
	join := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Derive(Metrics{LessonsCompleted: 50, DaysSinceJoin: 2}, join)

	byKey := make(map[string]time.Time, len(got))
	for _, a := range got {
		byKey[a.Key] = a.UnlockedAt
	}
	assert.Equal(t, join.Add(24*time.Hour), byKey["first_steps"])
	assert.Equal(t, join.Add(45*24*time.Hour), byKey["lesson_master"])
	assert.Equal(t, "lesson_master", got[0].Key)
}

func TestRuleTable_ThresholdsIncreaseWithinFamily(t *testing.T) {
	last := map[Family]int{}
	for _, r := range Rules() {
		if r.Family == FamilyAlways {
			continue
		}
		prev, seen := last[r.Family]
		if seen {
			assert.Greater(t, r.Threshold, prev, r.Key)
		}
		last[r.Family] = r.Threshold
	}
}

func TestDerive_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	join := time.Now().Add(-500 * 24 * time.Hour)

	for i := 0; i < 500; i++ {
		m := Metrics{
			LessonsCompleted: rng.Intn(80),
			CommunityPosts:   rng.Intn(20),
			Points:           rng.Intn(1500),
			DaysSinceJoin:    rng.Intn(500),
			CompletedCourses: rng.Intn(8),
			SessionsAttended: rng.Intn(15),
		}
		got := keys(Derive(m, join))

		if got["dedicated_learner"] {
			assert.True(t, got["lesson_explorer"], m)
			assert.True(t, got["first_steps"], m)
		}
		// every satisfied rule implies all lower rules of its family are satisfied
		for _, hi := range Rules() {
			if !got[hi.Key] {
				continue
			}
			for _, lo := range Rules() {
				if lo.Family == hi.Family && lo.Threshold < hi.Threshold {
					assert.True(t, got[lo.Key], "%s without %s for %+v", hi.Key, lo.Key, m)
				}
			}
		}
	}
}

func TestDerive_SortedByUnlockDescending(t *testing.T) {
	join := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{LessonsCompleted: 60, CommunityPosts: 12, Points: 2000, DaysSinceJoin: 400, CompletedCourses: 6, SessionsAttended: 11}
	got := Derive(m, join)
	require.Len(t, got, len(Rules()))

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].UnlockedAt.After(got[i-1].UnlockedAt))
	}
	assert.Equal(t, "veteran", got[0].Key)

	// equal offsets (one_month_strong, conversation_pro) keep table order
	again := Derive(m, join)
	assert.Equal(t, got, again)
}

func TestSkills_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		avail := rng.Intn(200)
		m := Metrics{
			LessonsAvailable: avail,
			LessonsCompleted: rng.Intn(avail + 1),
			Level:            rng.Intn(50),
			CompletedCourses: rng.Intn(30),
			SessionsAttended: rng.Intn(30),
			CommunityPosts:   rng.Intn(60),
		}
		skills := Skills(m)
		require.Len(t, skills, 5)
		for _, s := range skills {
			assert.GreaterOrEqual(t, s.Score, 0)
			assert.LessOrEqual(t, s.Score, MaxSkillScore)
		}
	}
}

func TestSkills_Weights(t *testing.T) {
	m := Metrics{LessonsCompleted: 12, LessonsAvailable: 20, Level: 2, CompletedCourses: 1, SessionsAttended: 2, CommunityPosts: 3}
	got := Skills(m)

	assert.Equal(t, []Skill{
		{Name: SkillVocabulary, Score: 71}, // 60 + 6 + 5
		{Name: SkillGrammar, Score: 71},
		{Name: SkillListening, Score: 60}, // 48 + 6 + 6
		{Name: SkillSpeaking, Score: 52},  // 36 + 6 + 10
		{Name: SkillReading, Score: 72},   // 60 + 6 + 6
	}, got)
}

func TestSkills_NoLessonsAvailable(t *testing.T) {
	got := Skills(Metrics{LessonsCompleted: 5, Level: 1})
	assert.Equal(t, 3, got[0].Score)
	assert.Equal(t, float64(0), LessonProgress(Metrics{LessonsCompleted: 5}))
}

func TestScenario_FortyDayLearner(t *testing.T) {
	join := time.Now().Add(-40 * 24 * time.Hour)
	level := 3
	m := Metrics{
		LessonsCompleted: 12,
		LessonsAvailable: 20,
		Level:            level,
		DaysSinceJoin:    40,
	}

	got := keys(Derive(m, join))
	assert.True(t, got["welcome"])
	assert.True(t, got["first_steps"])
	assert.True(t, got["lesson_explorer"])
	assert.False(t, got["dedicated_learner"])
	assert.True(t, got["one_month_strong"])

	want := int(math.Round(math.Min(60+float64(level*3), 95)))
	assert.Equal(t, want, Skills(m)[0].Score)
}
