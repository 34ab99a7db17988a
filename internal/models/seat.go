package models

import "time"

// SeatStatus represents the state of a seat in the inventory
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusBooked    SeatStatus = "BOOKED"
)

// SeatCategory represents the comfort class of a seat
type SeatCategory string

const (
	SeatCategoryStandard     SeatCategory = "STANDARD"
	SeatCategoryExtraLegroom SeatCategory = "EXTRA_LEGROOM"
)

// Seat is one seat of an airplane's seat map.
// Invariant: HeldUntil is non-nil exactly when Status is HELD.
type Seat struct {
	ID         int64        `json:"id" db:"id"`
	AirplaneID int64        `json:"airplane_id" db:"airplane_id"`
	SeatNumber string       `json:"seat_number" db:"seat_number"`
	Status     SeatStatus   `json:"status" db:"status"`
	Category   SeatCategory `json:"category" db:"category"`
	HeldUntil  *time.Time   `json:"held_until,omitempty" db:"held_until"`
}

// HoldExpired reports whether a HELD seat's hold has lapsed at now.
func (s *Seat) HoldExpired(now time.Time) bool {
	return s.Status == SeatStatusHeld && s.HeldUntil != nil && s.HeldUntil.Before(now)
}

// SeatMapResponse is the per-flight seat map view
type SeatMapResponse struct {
	FlightID int64  `json:"flight_id"`
	Seats    []Seat `json:"seats"`
}
