package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/airhive/airline-backend/internal/models"
)

// CheckInRepository handles check-in database operations
type CheckInRepository struct {
	db DB
}

// NewCheckInRepository creates a new check-in repository
func NewCheckInRepository(db DB) *CheckInRepository {
	return &CheckInRepository{
		db: db,
	}
}

// CreateCheckIn records a check-in for a ticket
func (r *CheckInRepository) CreateCheckIn(ticketID int64, boardingPassNumber string) (*models.CheckIn, error) {
	checkIn := &models.CheckIn{
		TicketID:           ticketID,
		BoardingPassNumber: boardingPassNumber,
		CheckedInAt:        time.Now(),
	}

	query := `
		INSERT INTO check_ins (ticket_id, boarding_pass_number, checked_in_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(query, ticketID, boardingPassNumber, checkIn.CheckedInAt).Scan(&checkIn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	return checkIn, nil
}

// DeleteCheckInByTicketID removes the check-in for a ticket, if any,
// inside tx
func (r *CheckInRepository) DeleteCheckInByTicketID(tx *sqlx.Tx, ticketID int64) error {
	query := `DELETE FROM check_ins WHERE ticket_id = $1`

	_, err := tx.Exec(query, ticketID)
	if err != nil {
		return fmt.Errorf("failed to delete check-in: %w", err)
	}

	return nil
}

// DeleteCheckInsByBookingID removes every check-in belonging to a
// booking's tickets inside tx
func (r *CheckInRepository) DeleteCheckInsByBookingID(tx *sqlx.Tx, bookingID int64) error {
	query := `
		DELETE FROM check_ins
		WHERE ticket_id IN (SELECT id FROM tickets WHERE booking_id = $1)
	`

	_, err := tx.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking check-ins: %w", err)
	}

	return nil
}

// GetCheckInByTicketID retrieves the check-in for a ticket, if any
func (r *CheckInRepository) GetCheckInByTicketID(ticketID int64) (*models.CheckIn, error) {
	var checkIn models.CheckIn

	query := `
		SELECT id, ticket_id, boarding_pass_number, checked_in_at
		FROM check_ins
		WHERE ticket_id = $1
	`

	err := r.db.Get(&checkIn, query, ticketID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get check-in by ticket: %w", err)
	}

	return &checkIn, nil
}
