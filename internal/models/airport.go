package models

// Airport represents an airport reachable by the airline
type Airport struct {
	ID      int64  `json:"id" db:"id"`
	Code    string `json:"code" db:"code"`
	Name    string `json:"name" db:"name"`
	City    string `json:"city" db:"city"`
	Country string `json:"country" db:"country"`
}

// CreateAirportRequest is the staff request body for adding an airport
type CreateAirportRequest struct {
	Code    string `json:"code" binding:"required,len=3"`
	Name    string `json:"name" binding:"required"`
	City    string `json:"city" binding:"required"`
	Country string `json:"country" binding:"required"`
}
