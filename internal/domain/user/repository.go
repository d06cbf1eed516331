package user

import "context"

// Repository reads user accounts.
// Lookups return (nil, nil) when the record does not exist.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
}

// ProfileRepository reads public profiles.
// Lookups return (nil, nil) when the record does not exist.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*Profile, error)
	FindAll(ctx context.Context) ([]*Profile, error)
}
