package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusConverted ReservationStatus = "CONVERTED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transition.
// Everything except ACTIVE is terminal.
func (s ReservationStatus) Terminal() bool {
	return s != ReservationStatusActive
}

// Reservation is a time-bounded hold on variant stock. Invariant: the sum of
// quantities over ACTIVE, unexpired reservations for a variant never exceeds
// that variant's physical stock.
type Reservation struct {
	ID        string
	VariantID string
	Quantity  int
	SessionID string
	UserID    string // empty for anonymous sessions
	Status    ReservationStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r Reservation) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
