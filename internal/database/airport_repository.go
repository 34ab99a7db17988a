package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/airhive/airline-backend/internal/models"
)

// AirportRepository handles airport database operations
type AirportRepository struct {
	db DB
}

// NewAirportRepository creates a new airport repository
func NewAirportRepository(db DB) *AirportRepository {
	return &AirportRepository{
		db: db,
	}
}

// CreateAirport creates a new airport
func (r *AirportRepository) CreateAirport(req *models.CreateAirportRequest) (*models.Airport, error) {
	airport := &models.Airport{
		Code:    strings.ToUpper(req.Code),
		Name:    req.Name,
		City:    req.City,
		Country: req.Country,
	}

	query := `
		INSERT INTO airports (code, name, city, country)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(query, airport.Code, airport.Name, airport.City, airport.Country).Scan(&airport.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create airport: %w", err)
	}

	return airport, nil
}

// GetAirportByID retrieves an airport by ID
func (r *AirportRepository) GetAirportByID(id int64) (*models.Airport, error) {
	var airport models.Airport

	query := `
		SELECT id, code, name, city, country
		FROM airports
		WHERE id = $1
	`

	err := r.db.Get(&airport, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get airport by ID: %w", err)
	}

	return &airport, nil
}

// GetAirportByCode retrieves an airport by its IATA code
func (r *AirportRepository) GetAirportByCode(code string) (*models.Airport, error) {
	var airport models.Airport

	query := `
		SELECT id, code, name, city, country
		FROM airports
		WHERE code = $1
	`

	err := r.db.Get(&airport, query, strings.ToUpper(code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get airport by code: %w", err)
	}

	return &airport, nil
}

// ListAirports retrieves all airports ordered by code
func (r *AirportRepository) ListAirports() ([]models.Airport, error) {
	var airports []models.Airport

	query := `
		SELECT id, code, name, city, country
		FROM airports
		ORDER BY code
	`

	err := r.db.Select(&airports, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list airports: %w", err)
	}

	return airports, nil
}
