package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/airhive/airline-backend/internal/models"
)

// SeatRepository handles seat inventory database operations. Methods
// taking a *sqlx.Tx run inside a caller-owned transaction so that seat
// rows stay locked until the hold or booking commits.
type SeatRepository struct {
	db DB
}

// NewSeatRepository creates a new seat repository
func NewSeatRepository(db DB) *SeatRepository {
	return &SeatRepository{
		db: db,
	}
}

// GetSeatByID retrieves a seat by ID
func (r *SeatRepository) GetSeatByID(id int64) (*models.Seat, error) {
	var seat models.Seat

	query := `
		SELECT id, airplane_id, seat_number, status, category, held_until
		FROM seats
		WHERE id = $1
	`

	err := r.db.Get(&seat, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get seat by ID: %w", err)
	}

	return &seat, nil
}

// GetSeatsByAirplaneID retrieves all seats of an airplane ordered by
// seat number
func (r *SeatRepository) GetSeatsByAirplaneID(airplaneID int64) ([]models.Seat, error) {
	var seats []models.Seat

	query := `
		SELECT id, airplane_id, seat_number, status, category, held_until
		FROM seats
		WHERE airplane_id = $1
		ORDER BY seat_number
	`

	err := r.db.Select(&seats, query, airplaneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seats by airplane: %w", err)
	}

	return seats, nil
}

// GetSeatsForUpdate locks and retrieves the given seats inside tx.
// Rows are locked in ascending ID order to avoid deadlocks between
// concurrent bookings.
func (r *SeatRepository) GetSeatsForUpdate(tx *sqlx.Tx, seatIDs []int64) ([]models.Seat, error) {
	var seats []models.Seat

	query := `
		SELECT id, airplane_id, seat_number, status, category, held_until
		FROM seats
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	err := tx.Select(&seats, query, pq.Array(seatIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to lock seats: %w", err)
	}

	return seats, nil
}

// HoldSeats marks the given seats HELD until heldUntil inside tx
func (r *SeatRepository) HoldSeats(tx *sqlx.Tx, seatIDs []int64, heldUntil time.Time) error {
	query := `
		UPDATE seats
		SET status = $1, held_until = $2
		WHERE id = ANY($3)
	`

	_, err := tx.Exec(query, models.SeatStatusHeld, heldUntil, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("failed to hold seats: %w", err)
	}

	return nil
}

// BookSeats marks the given seats BOOKED and clears their holds
// inside tx
func (r *SeatRepository) BookSeats(tx *sqlx.Tx, seatIDs []int64) error {
	query := `
		UPDATE seats
		SET status = $1, held_until = NULL
		WHERE id = ANY($2)
	`

	_, err := tx.Exec(query, models.SeatStatusBooked, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("failed to book seats: %w", err)
	}

	return nil
}

// UpdateSeatStatus sets one seat's status and hold expiry inside tx
func (r *SeatRepository) UpdateSeatStatus(tx *sqlx.Tx, id int64, status models.SeatStatus, heldUntil *time.Time) error {
	query := `
		UPDATE seats
		SET status = $1, held_until = $2
		WHERE id = $3
	`

	result, err := tx.Exec(query, status, heldUntil, id)
	if err != nil {
		return fmt.Errorf("failed to update seat status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("seat not found")
	}

	return nil
}

// ReleaseSeatsTx returns the given seats to AVAILABLE and clears
// their holds inside tx
func (r *SeatRepository) ReleaseSeatsTx(tx *sqlx.Tx, seatIDs []int64) error {
	if len(seatIDs) == 0 {
		return nil
	}

	query := `
		UPDATE seats
		SET status = $1, held_until = NULL
		WHERE id = ANY($2)
	`

	_, err := tx.Exec(query, models.SeatStatusAvailable, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	return nil
}

// ReleaseExpiredHolds returns every seat on the airplane whose hold has
// lapsed to AVAILABLE and reports how many were released
func (r *SeatRepository) ReleaseExpiredHolds(airplaneID int64, now time.Time) (int64, error) {
	query := `
		UPDATE seats
		SET status = $1, held_until = NULL
		WHERE airplane_id = $2
		  AND status = $3
		  AND held_until < $4
	`

	result, err := r.db.Exec(query, models.SeatStatusAvailable, airplaneID, models.SeatStatusHeld, now)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired holds: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
