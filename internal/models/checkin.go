package models

import "time"

// CheckIn records a completed check-in for a ticket, 1:1
type CheckIn struct {
	ID                 int64     `json:"id" db:"id"`
	TicketID           int64     `json:"ticket_id" db:"ticket_id"`
	BoardingPassNumber string    `json:"boarding_pass_number" db:"boarding_pass_number"`
	CheckedInAt        time.Time `json:"checked_in_at" db:"checked_in_at"`
}

// BoardingPass is the view returned to a checked-in passenger
type BoardingPass struct {
	Ticket             TicketWithSeat     `json:"ticket"`
	Flight             FlightWithAirports `json:"flight"`
	BoardingPassNumber string             `json:"boarding_pass_number"`
	PassengerName      string             `json:"passenger_name"`
	SeatNumber         string             `json:"seat_number"`
	Gate               string             `json:"gate"`
	BoardingTime       time.Time          `json:"boarding_time"`
	QRPayload          string             `json:"qr_payload"`
	QRCodePNG          string             `json:"qr_code_png"`
	DepartureTime      time.Time          `json:"departure_time"`
	ArrivalTime        time.Time          `json:"arrival_time"`
}
