package activity

import "strings"

// Type is the closed set of activity tags. The zero value is not a valid type.
type Type string

const (
	TypeUserRegistered    Type = "USER_REGISTERED"
	TypeLessonCompleted   Type = "LESSON_COMPLETED"
	TypePostCreated       Type = "POST_CREATED"
	TypeSessionBooked     Type = "SESSION_BOOKED"
	TypeSessionAttended   Type = "SESSION_ATTENDED"
	TypeCourseCompleted   Type = "COURSE_COMPLETED"
	TypeAchievementEarned Type = "ACHIEVEMENT_EARNED"
	TypePointsEarned      Type = "POINTS_EARNED"
	TypeLevelUp           Type = "LEVEL_UP"
	TypeProfileUpdated    Type = "PROFILE_UPDATED"
)

// AllTypes returns every known activity type in declaration order.
func AllTypes() []Type {
	return []Type{
		TypeUserRegistered,
		TypeLessonCompleted,
		TypePostCreated,
		TypeSessionBooked,
		TypeSessionAttended,
		TypeCourseCompleted,
		TypeAchievementEarned,
		TypePointsEarned,
		TypeLevelUp,
		TypeProfileUpdated,
	}
}

// IsValid reports whether t is one of the known tags.
func (t Type) IsValid() bool {
	switch t {
	case TypeUserRegistered,
		TypeLessonCompleted,
		TypePostCreated,
		TypeSessionBooked,
		TypeSessionAttended,
		TypeCourseCompleted,
		TypeAchievementEarned,
		TypePointsEarned,
		TypeLevelUp,
		TypeProfileUpdated:
		return true
	default:
		return false
	}
}

// String returns the wire tag.
func (t Type) String() string {
	return string(t)
}

// ParseType converts a tag into a Type. The second result is false for unknown tags.
func ParseType(s string) (Type, bool) {
	t := Type(strings.TrimSpace(s))
	return t, t.IsValid()
}

// ParseTypes parses a comma-separated list of tags.
// Unknown tokens are silently dropped, duplicates collapse to one entry
// and the order of first appearance is kept.
func ParseTypes(csv string) []Type {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	seen := make(map[Type]struct{}, len(parts))
	result := make([]Type, 0, len(parts))
	for _, p := range parts {
		t, ok := ParseType(p)
		if !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}
	return result
}
