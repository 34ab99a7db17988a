package database

import (
	"database/sql"
	"fmt"

	"github.com/airhive/airline-backend/internal/models"
)

// AirplaneRepository handles airplane database operations
type AirplaneRepository struct {
	db DB
}

// NewAirplaneRepository creates a new airplane repository
func NewAirplaneRepository(db DB) *AirplaneRepository {
	return &AirplaneRepository{
		db: db,
	}
}

// CreateAirplane creates an airplane together with its seat map in one
// transaction
func (r *AirplaneRepository) CreateAirplane(model string, seats []models.SeatTemplate) (*models.Airplane, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	airplane := &models.Airplane{
		Model:      model,
		TotalSeats: len(seats),
		IsActive:   true,
	}

	query := `
		INSERT INTO airplanes (model, total_seats, is_active)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err = tx.QueryRow(query, airplane.Model, airplane.TotalSeats, airplane.IsActive).Scan(&airplane.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create airplane: %w", err)
	}

	seatQuery := `
		INSERT INTO seats (airplane_id, seat_number, status, category)
		VALUES ($1, $2, $3, $4)
	`

	for _, seat := range seats {
		category := seat.Category
		if category == "" {
			category = models.SeatCategoryStandard
		}
		_, err = tx.Exec(seatQuery, airplane.ID, seat.SeatNumber, models.SeatStatusAvailable, category)
		if err != nil {
			return nil, fmt.Errorf("failed to create seat %s: %w", seat.SeatNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return airplane, nil
}

// GetAirplaneByID retrieves an airplane by ID
func (r *AirplaneRepository) GetAirplaneByID(id int64) (*models.Airplane, error) {
	var airplane models.Airplane

	query := `
		SELECT id, model, total_seats, is_active
		FROM airplanes
		WHERE id = $1
	`

	err := r.db.Get(&airplane, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get airplane by ID: %w", err)
	}

	return &airplane, nil
}

// ListAirplanes retrieves all airplanes, optionally only active ones
func (r *AirplaneRepository) ListAirplanes(activeOnly bool) ([]models.Airplane, error) {
	var airplanes []models.Airplane

	query := `
		SELECT id, model, total_seats, is_active
		FROM airplanes
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY id`

	err := r.db.Select(&airplanes, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list airplanes: %w", err)
	}

	return airplanes, nil
}

// DeactivateAirplane soft-deletes an airplane
func (r *AirplaneRepository) DeactivateAirplane(id int64) error {
	query := `
		UPDATE airplanes
		SET is_active = false
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate airplane: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("airplane not found")
	}

	return nil
}
