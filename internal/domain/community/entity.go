// Package community holds user-generated posts and tutoring session bookings.
package community

import "time"

// Post is a community forum post.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a reserved session.
type Booking struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	Status      BookingStatus `json:"status"`
	ScheduledAt time.Time     `json:"scheduledAt"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Attended reports whether the booking counts as an attended session.
// Only the exact COMPLETED status qualifies.
func (b *Booking) Attended() bool {
	return b != nil && b.Status == BookingCompleted
}

// CountAttended counts bookings with status COMPLETED.
func CountAttended(bookings []*Booking) int {
	n := 0
	for _, b := range bookings {
		if b.Attended() {
			n++
		}
	}
	return n
}
