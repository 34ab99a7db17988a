package models

import "time"

// FlightStatus represents the lifecycle state of a flight
type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusBoarding  FlightStatus = "BOARDING"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
	FlightStatusArrived   FlightStatus = "ARRIVED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
	FlightStatusCompleted FlightStatus = "COMPLETED"
)

// NonTerminalFlightStatuses are the statuses a flight can still leave.
var NonTerminalFlightStatuses = []FlightStatus{
	FlightStatusScheduled,
	FlightStatusDelayed,
	FlightStatusBoarding,
	FlightStatusDeparted,
	FlightStatusArrived,
}

// IsTerminal reports whether no further transition may leave the status.
func (s FlightStatus) IsTerminal() bool {
	return s == FlightStatusCancelled || s == FlightStatusCompleted
}

// Flight represents one scheduled flight
type Flight struct {
	ID                 int64        `json:"id" db:"id"`
	FlightNumber       string       `json:"flight_number" db:"flight_number"`
	DepartureAirportID int64        `json:"departure_airport_id" db:"departure_airport_id"`
	ArrivalAirportID   int64        `json:"arrival_airport_id" db:"arrival_airport_id"`
	DepartureTime      time.Time    `json:"departure_time" db:"departure_time"`
	ArrivalTime        time.Time    `json:"arrival_time" db:"arrival_time"`
	AirplaneID         int64        `json:"airplane_id" db:"airplane_id"`
	Status             FlightStatus `json:"status" db:"status"`
	BasePrice          float64      `json:"base_price" db:"base_price"`
	Gate               string       `json:"gate" db:"gate"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
}

// FlightWithAirports joins the airport rows used by list/search views
type FlightWithAirports struct {
	Flight
	DepartureAirport Airport `json:"departure_airport"`
	ArrivalAirport   Airport `json:"arrival_airport"`
}

// CreateFlightRequest is the staff request body for scheduling a flight
type CreateFlightRequest struct {
	FlightNumber       string    `json:"flight_number" binding:"required"`
	DepartureAirportID int64     `json:"departure_airport_id" binding:"required"`
	ArrivalAirportID   int64     `json:"arrival_airport_id" binding:"required"`
	DepartureTime      time.Time `json:"departure_time" binding:"required"`
	ArrivalTime        time.Time `json:"arrival_time" binding:"required"`
	AirplaneID         int64     `json:"airplane_id" binding:"required"`
	BasePrice          float64   `json:"base_price" binding:"required,gt=0"`
	Gate               string    `json:"gate"`
}

// UpdateFlightRequest is the staff PATCH body. Times are optional and
// normally accompany a DELAYED status; Gate may change on its own.
type UpdateFlightRequest struct {
	Status        FlightStatus `json:"status" binding:"required"`
	DepartureTime *time.Time   `json:"departure_time"`
	ArrivalTime   *time.Time   `json:"arrival_time"`
	Gate          *string      `json:"gate"`
}

// FlightTransition records one applied automatic status change
type FlightTransition struct {
	Flight    *Flight
	OldStatus FlightStatus
	NewStatus FlightStatus
}
