// Package user contains the identity side of the platform: accounts and
// their public profiles. Both are owned by external CRUD use cases; the
// analytics engine only reads them.
package user

import (
	"strings"
	"time"
)

// Role names carried in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account record.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// EmailLocalPart returns the text before '@', or the whole address if there is none.
func (u *User) EmailLocalPart() string {
	if u == nil {
		return ""
	}
	if i := strings.IndexByte(u.Email, '@'); i >= 0 {
		return u.Email[:i]
	}
	return u.Email
}

// Profile is the public face of a user.
type Profile struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Level        int       `json:"level"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DefaultLevel is assumed when a user has no profile.
const DefaultLevel = 1

// UnknownUserName is displayed when no user record exists.
const UnknownUserName = "Unknown User"

// Identity is the display identity attached to feed entries.
type Identity struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
	Level        int    `json:"level"`
}

// ResolveIdentity builds a display identity for userID from whatever
// records exist. Either u or p may be nil.
//
// Name falls back to the email local part, then to UnknownUserName.
// Level falls back to DefaultLevel when there is no profile.
func ResolveIdentity(userID string, u *User, p *Profile) Identity {
	id := Identity{
		ID:    userID,
		Name:  UnknownUserName,
		Level: DefaultLevel,
	}
	if u != nil {
		id.Email = u.Email
		if local := u.EmailLocalPart(); local != "" {
			id.Name = local
		}
	}
	if p != nil {
		if strings.TrimSpace(p.Name) != "" {
			id.Name = p.Name
		}
		id.ProfilePhoto = p.ProfilePhoto
		id.Level = p.Level
	}
	return id
}
