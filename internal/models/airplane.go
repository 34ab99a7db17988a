package models

// Airplane represents an aircraft and its seat-map template
type Airplane struct {
	ID         int64  `json:"id" db:"id"`
	Model      string `json:"model" db:"model"`
	TotalSeats int    `json:"total_seats" db:"total_seats"`
	IsActive   bool   `json:"is_active" db:"is_active"`
}

// SeatTemplate describes one seat when creating an airplane manually
type SeatTemplate struct {
	SeatNumber string       `json:"seat_number" binding:"required"`
	Category   SeatCategory `json:"category"`
}

// CreateAirplaneRequest creates an airplane together with its seats.
// Either Seats is given explicitly, or Rows/SeatsPerRow generate the
// map from SeatLetters with ExtraLegroomRows upgraded.
type CreateAirplaneRequest struct {
	Model            string         `json:"model" binding:"required"`
	Seats            []SeatTemplate `json:"seats"`
	Rows             *int           `json:"rows"`
	SeatsPerRow      *int           `json:"seats_per_row"`
	SeatLetters      string         `json:"seat_letters"`
	ExtraLegroomRows []int          `json:"extra_legroom_rows"`
}
