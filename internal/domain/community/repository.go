package community

import "context"

// PostRepository reads posts.
type PostRepository interface {
	FindByUserID(ctx context.Context, userID string) ([]*Post, error)
}

// BookingRepository reads bookings.
type BookingRepository interface {
	FindByUserID(ctx context.Context, userID string) ([]*Booking, error)
}
