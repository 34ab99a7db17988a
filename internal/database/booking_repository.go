package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/airhive/airline-backend/internal/models"
)

// BookingRepository handles booking and ticket database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{
		db: db,
	}
}

// CreateBooking creates a booking in CREATED status inside tx
func (r *BookingRepository) CreateBooking(tx *sqlx.Tx, userID, flightID int64, pnr string) (*models.Booking, error) {
	booking := &models.Booking{
		UserID:   userID,
		FlightID: flightID,
		Status:   models.BookingStatusCreated,
		PNR:      pnr,
	}

	query := `
		INSERT INTO bookings (user_id, flight_id, status, pnr, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := tx.QueryRow(query, userID, flightID, booking.Status, pnr, time.Now()).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, nil
}

// CreateTicket creates a ticket inside tx
func (r *BookingRepository) CreateTicket(tx *sqlx.Tx, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (
			booking_id, seat_id, passenger_first_name,
			passenger_last_name, ticket_number
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := tx.QueryRow(
		query,
		ticket.BookingID,
		ticket.SeatID,
		ticket.PassengerFirstName,
		ticket.PassengerLastName,
		ticket.TicketNumber,
	).Scan(&ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// PNRExists reports whether a booking already carries the given PNR
func (r *BookingRepository) PNRExists(pnr string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE pnr = $1)`

	err := r.db.QueryRow(query, pnr).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check PNR: %w", err)
	}

	return exists, nil
}

// GetBookingByID retrieves a booking by ID
func (r *BookingRepository) GetBookingByID(id int64) (*models.Booking, error) {
	var booking models.Booking

	query := `
		SELECT id, user_id, flight_id, status, pnr, created_at
		FROM bookings
		WHERE id = $1
	`

	err := r.db.Get(&booking, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking by ID: %w", err)
	}

	return &booking, nil
}

// GetBookingByPNR retrieves a booking by its record locator
func (r *BookingRepository) GetBookingByPNR(pnr string) (*models.Booking, error) {
	var booking models.Booking

	query := `
		SELECT id, user_id, flight_id, status, pnr, created_at
		FROM bookings
		WHERE pnr = $1
	`

	err := r.db.Get(&booking, query, pnr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking by PNR: %w", err)
	}

	return &booking, nil
}

// ListBookingsByUser retrieves a user's bookings, newest first
func (r *BookingRepository) ListBookingsByUser(userID int64) ([]models.Booking, error) {
	var bookings []models.Booking

	query := `
		SELECT id, user_id, flight_id, status, pnr, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&bookings, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by user: %w", err)
	}

	return bookings, nil
}

// ListBookingsByFlightAndStatus retrieves the flight's bookings whose
// status is in the given set
func (r *BookingRepository) ListBookingsByFlightAndStatus(flightID int64, statuses []models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	query := `
		SELECT id, user_id, flight_id, status, pnr, created_at
		FROM bookings
		WHERE flight_id = $1
		  AND status = ANY($2)
		ORDER BY id
	`

	err := r.db.Select(&bookings, query, flightID, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by flight: %w", err)
	}

	return bookings, nil
}

// ListExpiredBookings retrieves unpaid bookings older than cutoff.
// Both CREATED and PENDING_PAYMENT count: the confirm step does not
// extend the payment window.
func (r *BookingRepository) ListExpiredBookings(cutoff time.Time) ([]models.Booking, error) {
	var bookings []models.Booking

	statuses := []string{
		string(models.BookingStatusCreated),
		string(models.BookingStatusPendingPayment),
	}

	query := `
		SELECT id, user_id, flight_id, status, pnr, created_at
		FROM bookings
		WHERE status = ANY($1)
		  AND created_at < $2
		ORDER BY created_at
	`

	err := r.db.Select(&bookings, query, pq.Array(statuses), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired bookings: %w", err)
	}

	return bookings, nil
}

// UpdateBookingStatus sets the booking status
func (r *BookingRepository) UpdateBookingStatus(id int64, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// UpdateBookingStatusTx sets the booking status inside tx
func (r *BookingRepository) UpdateBookingStatusTx(tx *sqlx.Tx, id int64, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1
		WHERE id = $2
	`

	_, err := tx.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	return nil
}

// GetTicketsByBookingID retrieves the booking's tickets with their
// seat rows joined
func (r *BookingRepository) GetTicketsByBookingID(bookingID int64) ([]models.TicketWithSeat, error) {
	query := `
		SELECT t.id, t.booking_id, t.seat_id,
		       t.passenger_first_name, t.passenger_last_name, t.ticket_number,
		       s.id, s.airplane_id, s.seat_number, s.status, s.category, s.held_until
		FROM tickets t
		JOIN seats s ON s.id = t.seat_id
		WHERE t.booking_id = $1
		ORDER BY t.id
	`

	rows, err := r.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets by booking: %w", err)
	}
	defer rows.Close()

	var tickets []models.TicketWithSeat
	for rows.Next() {
		var t models.TicketWithSeat
		err := rows.Scan(
			&t.ID, &t.BookingID, &t.SeatID,
			&t.PassengerFirstName, &t.PassengerLastName, &t.TicketNumber,
			&t.Seat.ID, &t.Seat.AirplaneID, &t.Seat.SeatNumber,
			&t.Seat.Status, &t.Seat.Category, &t.Seat.HeldUntil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket rows: %w", err)
	}

	return tickets, nil
}

// GetTicketByID retrieves a ticket with its seat row joined
func (r *BookingRepository) GetTicketByID(id int64) (*models.TicketWithSeat, error) {
	query := `
		SELECT t.id, t.booking_id, t.seat_id,
		       t.passenger_first_name, t.passenger_last_name, t.ticket_number,
		       s.id, s.airplane_id, s.seat_number, s.status, s.category, s.held_until
		FROM tickets t
		JOIN seats s ON s.id = t.seat_id
		WHERE t.id = $1
	`

	var t models.TicketWithSeat
	err := r.db.QueryRow(query, id).Scan(
		&t.ID, &t.BookingID, &t.SeatID,
		&t.PassengerFirstName, &t.PassengerLastName, &t.TicketNumber,
		&t.Seat.ID, &t.Seat.AirplaneID, &t.Seat.SeatNumber,
		&t.Seat.Status, &t.Seat.Category, &t.Seat.HeldUntil,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket by ID: %w", err)
	}

	return &t, nil
}

// GetSeatIDsByBookingID retrieves the seat IDs of the booking's tickets
func (r *BookingRepository) GetSeatIDsByBookingID(bookingID int64) ([]int64, error) {
	var seatIDs []int64

	query := `
		SELECT seat_id
		FROM tickets
		WHERE booking_id = $1
		ORDER BY seat_id
	`

	err := r.db.Select(&seatIDs, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seat IDs by booking: %w", err)
	}

	return seatIDs, nil
}

// CountTicketsByBookingID returns how many tickets a booking holds
func (r *BookingRepository) CountTicketsByBookingID(bookingID int64) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM tickets WHERE booking_id = $1`

	err := r.db.QueryRow(query, bookingID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	return count, nil
}

// DeleteTicket removes a ticket inside tx
func (r *BookingRepository) DeleteTicket(tx *sqlx.Tx, id int64) error {
	query := `DELETE FROM tickets WHERE id = $1`

	result, err := tx.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("ticket not found")
	}

	return nil
}

// UpdateTicketSeat moves a ticket to a different seat inside tx
func (r *BookingRepository) UpdateTicketSeat(tx *sqlx.Tx, ticketID, seatID int64) error {
	query := `
		UPDATE tickets
		SET seat_id = $1
		WHERE id = $2
	`

	result, err := tx.Exec(query, seatID, ticketID)
	if err != nil {
		return fmt.Errorf("failed to update ticket seat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("ticket not found")
	}

	return nil
}

// IsSeatBookedOnFlight reports whether an active booking of the flight
// already holds a ticket on the given seat
func (r *BookingRepository) IsSeatBookedOnFlight(flightID, seatID int64) (bool, error) {
	var exists bool

	statuses := []string{
		string(models.BookingStatusCreated),
		string(models.BookingStatusPendingPayment),
		string(models.BookingStatusConfirmed),
	}

	query := `
		SELECT EXISTS(
			SELECT 1
			FROM tickets t
			JOIN bookings b ON b.id = t.booking_id
			WHERE b.flight_id = $1
			  AND t.seat_id = $2
			  AND b.status = ANY($3)
		)
	`

	err := r.db.QueryRow(query, flightID, seatID, pq.Array(statuses)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check seat occupancy: %w", err)
	}

	return exists, nil
}
