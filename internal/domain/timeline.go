package domain

import "time"

// TimelineEntry is one row of the append-only order audit trail, one entry
// per accepted status transition.
type TimelineEntry struct {
	ID          string
	OrderID     string
	Status      OrderStatus
	Description string
	Date        time.Time
}
