// Package achievement derives badges and skill scores from a user's
// aggregate learning metrics. Nothing here is persisted: every call
// recomputes the result from the metrics it is given.
package achievement

import (
	"math"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics is the aggregate input to achievement and skill derivation.
type Metrics struct {
	// LessonsCompleted - завершённые уроки в записанных активных курсах.
	LessonsCompleted int

	// LessonsAvailable - всего уроков в записанных активных курсах.
	LessonsAvailable int

	// CompletedCourses - курсы с прогрессом 100%.
	CompletedCourses int

	// CommunityPosts - количество постов.
	CommunityPosts int

	// SessionsAttended - бронирования со статусом COMPLETED.
	SessionsAttended int

	// Points - очки профиля.
	Points int

	// Level - уровень профиля.
	Level int

	// DaysSinceJoin - полных дней с момента регистрации.
	DaysSinceJoin int
}

// ══════════════════════════════════════════════════════════════════════════════
// RULE TABLE
// ══════════════════════════════════════════════════════════════════════════════

// Rarity tags an achievement's difficulty.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Family groups rules that read the same metric.
type Family string

const (
	FamilyAlways   Family = "always"
	FamilyLessons  Family = "lessons"
	FamilyPosts    Family = "posts"
	FamilyPoints   Family = "points"
	FamilyTenure   Family = "tenure"
	FamilyCourses  Family = "courses"
	FamilySessions Family = "sessions"
)

// Value extracts the family's metric from m.
func (f Family) Value(m Metrics) int {
	switch f {
	case FamilyLessons:
		return m.LessonsCompleted
	case FamilyPosts:
		return m.CommunityPosts
	case FamilyPoints:
		return m.Points
	case FamilyTenure:
		return m.DaysSinceJoin
	case FamilyCourses:
		return m.CompletedCourses
	case FamilySessions:
		return m.SessionsAttended
	default:
		return 0
	}
}

// Rule is one row of the achievement table.
type Rule struct {
	Key         string
	Title       string
	Description string
	Icon        string
	Family      Family
	Threshold   int
	Rarity      Rarity
	// UnlockOffset is added to the join date to produce the displayed unlock time.
	UnlockOffset time.Duration
}

// Satisfied reports whether m meets the rule's threshold.
func (r Rule) Satisfied(m Metrics) bool {
	if r.Family == FamilyAlways {
		return true
	}
	return r.Family.Value(m) >= r.Threshold
}

const day = 24 * time.Hour

// rules is ordered; within a family thresholds strictly increase.
var rules = []Rule{
	{Key: "welcome", Title: "Welcome", Description: "Joined the community", Icon: "👋", Family: FamilyAlways, Rarity: RarityCommon, UnlockOffset: 0},

	{Key: "first_steps", Title: "First Steps", Description: "Completed your first lesson", Icon: "🎯", Family: FamilyLessons, Threshold: 1, Rarity: RarityCommon, UnlockOffset: 1 * day},
	{Key: "lesson_explorer", Title: "Lesson Explorer", Description: "Completed 10 lessons", Icon: "🧭", Family: FamilyLessons, Threshold: 10, Rarity: RarityRare, UnlockOffset: 7 * day},
	{Key: "dedicated_learner", Title: "Dedicated Learner", Description: "Completed 25 lessons", Icon: "📚", Family: FamilyLessons, Threshold: 25, Rarity: RarityEpic, UnlockOffset: 21 * day},
	{Key: "lesson_master", Title: "Lesson Master", Description: "Completed 50 lessons", Icon: "🏆", Family: FamilyLessons, Threshold: 50, Rarity: RarityLegendary, UnlockOffset: 45 * day},

	{Key: "community_voice", Title: "Community Voice", Description: "Published your first post", Icon: "💬", Family: FamilyPosts, Threshold: 1, Rarity: RarityCommon, UnlockOffset: 2 * day},
	{Key: "active_contributor", Title: "Active Contributor", Description: "Published 10 posts", Icon: "📣", Family: FamilyPosts, Threshold: 10, Rarity: RarityRare, UnlockOffset: 14 * day},

	{Key: "point_collector", Title: "Point Collector", Description: "Earned 100 points", Icon: "⭐", Family: FamilyPoints, Threshold: 100, Rarity: RarityCommon, UnlockOffset: 5 * day},
	{Key: "point_hoarder", Title: "Point Hoarder", Description: "Earned 500 points", Icon: "🌟", Family: FamilyPoints, Threshold: 500, Rarity: RarityRare, UnlockOffset: 20 * day},
	{Key: "point_legend", Title: "Point Legend", Description: "Earned 1000 points", Icon: "💫", Family: FamilyPoints, Threshold: 1000, Rarity: RarityEpic, UnlockOffset: 40 * day},

	{Key: "one_month_strong", Title: "One Month Strong", Description: "Member for 30 days", Icon: "📅", Family: FamilyTenure, Threshold: 30, Rarity: RarityRare, UnlockOffset: 30 * day},
	{Key: "loyal_learner", Title: "Loyal Learner", Description: "Member for 100 days", Icon: "🤝", Family: FamilyTenure, Threshold: 100, Rarity: RarityEpic, UnlockOffset: 100 * day},
	{Key: "veteran", Title: "Veteran", Description: "Member for a year", Icon: "🎖", Family: FamilyTenure, Threshold: 365, Rarity: RarityLegendary, UnlockOffset: 365 * day},

	{Key: "course_finisher", Title: "Course Finisher", Description: "Completed a course", Icon: "🎓", Family: FamilyCourses, Threshold: 1, Rarity: RarityRare, UnlockOffset: 10 * day},
	{Key: "scholar", Title: "Scholar", Description: "Completed 5 courses", Icon: "🧠", Family: FamilyCourses, Threshold: 5, Rarity: RarityLegendary, UnlockOffset: 60 * day},

	{Key: "first_session", Title: "First Session", Description: "Attended your first session", Icon: "🗣", Family: FamilySessions, Threshold: 1, Rarity: RarityCommon, UnlockOffset: 3 * day},
	{Key: "conversation_pro", Title: "Conversation Pro", Description: "Attended 10 sessions", Icon: "🎙", Family: FamilySessions, Threshold: 10, Rarity: RarityEpic, UnlockOffset: 30 * day},
}

// Rules returns a copy of the rule table in declaration order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// DERIVATION
// ══════════════════════════════════════════════════════════════════════════════

// Achievement is a satisfied rule as shown on a public profile.
// UnlockedAt is synthetic (join date plus the rule's offset) and is not a
// record of when the threshold was actually crossed.
type Achievement struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Rarity      Rarity    `json:"rarity"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// Derive evaluates every rule against m and returns the satisfied ones,
// most recent unlock first. Ties keep table order.
func Derive(m Metrics, joinDate time.Time) []Achievement {
	out := make([]Achievement, 0, len(rules))
	for _, r := range rules {
		if !r.Satisfied(m) {
			continue
		}
		out = append(out, Achievement{
			Key:         r.Key,
			Title:       r.Title,
			Description: r.Description,
			Icon:        r.Icon,
			Rarity:      r.Rarity,
			UnlockedAt:  joinDate.Add(r.UnlockOffset),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnlockedAt.After(out[j].UnlockedAt)
	})
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILLS
// ══════════════════════════════════════════════════════════════════════════════

// MaxSkillScore caps every skill channel.
const MaxSkillScore = 95

// Skill is one channel of the learning stats vector.
type Skill struct {
	Name  string `json:"skill"`
	Score int    `json:"level"`
}

// Skill channel names in display order.
const (
	SkillVocabulary = "Vocabulary"
	SkillGrammar    = "Grammar"
	SkillListening  = "Listening"
	SkillSpeaking   = "Speaking"
	SkillReading    = "Reading"
)

// LessonProgress returns completed/available*100, or 0 when nothing is available.
func LessonProgress(m Metrics) float64 {
	if m.LessonsAvailable <= 0 {
		return 0
	}
	return float64(m.LessonsCompleted) / float64(m.LessonsAvailable) * 100
}

// Skills derives the five fixed skill channels from m.
func Skills(m Metrics) []Skill {
	lp := LessonProgress(m)
	levelBonus := float64(m.Level * 3)

	return []Skill{
		{Name: SkillVocabulary, Score: clampScore(lp + levelBonus + float64(m.CompletedCourses*5))},
		{Name: SkillGrammar, Score: clampScore(lp + levelBonus + float64(m.CompletedCourses*5))},
		{Name: SkillListening, Score: clampScore(lp*0.8 + levelBonus + float64(m.SessionsAttended*3))},
		{Name: SkillSpeaking, Score: clampScore(lp*0.6 + levelBonus + float64(m.SessionsAttended*5))},
		{Name: SkillReading, Score: clampScore(lp + levelBonus + float64(m.CommunityPosts*2))},
	}
}

// clampScore rounds min(x, 95) to the nearest integer, floored at 0.
func clampScore(x float64) int {
	x = math.Min(x, MaxSkillScore)
	if x < 0 {
		x = 0
	}
	return int(math.Round(x))
}
