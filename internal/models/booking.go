package models

import "time"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusCreated        BookingStatus = "CREATED"
	BookingStatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"
)

// bookingTransitions is the single source of truth for allowed booking
// status changes. Handlers never assign statuses directly.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusCreated:        {BookingStatusPendingPayment, BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusPendingPayment: {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:      {BookingStatusCancelled},
	BookingStatusCancelled:      {},
}

// CanTransition reports whether a booking may move from s to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActiveBookingStatuses are the statuses whose passengers should be
// notified of flight changes.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusCreated,
	BookingStatusPendingPayment,
	BookingStatusConfirmed,
}

// Booking ties a passenger to a flight through one or more tickets
type Booking struct {
	ID        int64         `json:"id" db:"id"`
	UserID    int64         `json:"user_id" db:"user_id"`
	FlightID  int64         `json:"flight_id" db:"flight_id"`
	Status    BookingStatus `json:"status" db:"status"`
	PNR       string        `json:"pnr" db:"pnr"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// IsExpired reports whether an unpaid booking has outlived its
// payment window at now. The window runs from creation, so the
// confirm step does not extend it.
func (b *Booking) IsExpired(now time.Time, window time.Duration) bool {
	if b.Status != BookingStatusCreated && b.Status != BookingStatusPendingPayment {
		return false
	}
	return now.Sub(b.CreatedAt) > window
}

// Ticket is one seat of a booking with the passenger name snapshotted
// at creation time.
type Ticket struct {
	ID                 int64  `json:"id" db:"id"`
	BookingID          int64  `json:"booking_id" db:"booking_id"`
	SeatID             int64  `json:"seat_id" db:"seat_id"`
	PassengerFirstName string `json:"passenger_first_name" db:"passenger_first_name"`
	PassengerLastName  string `json:"passenger_last_name" db:"passenger_last_name"`
	TicketNumber       string `json:"ticket_number" db:"ticket_number"`
}

// TicketWithSeat joins the seat row for detail views
type TicketWithSeat struct {
	Ticket
	Seat Seat `json:"seat"`
}

// CreateBookingRequest is the passenger request body for booking seats
type CreateBookingRequest struct {
	FlightID int64   `json:"flight_id" binding:"required"`
	SeatIDs  []int64 `json:"seat_ids" binding:"required,min=1"`
}

// BookingDetail is the full booking view used by "my bookings" and the
// staff PNR search.
type BookingDetail struct {
	Booking
	Flight   FlightWithAirports `json:"flight"`
	Tickets  []TicketWithSeat   `json:"tickets"`
	Payments []Payment          `json:"payments"`
}
