package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/airhive/airline-backend/internal/models"
)

// FlightRepository handles flight database operations
type FlightRepository struct {
	db DB
}

// NewFlightRepository creates a new flight repository
func NewFlightRepository(db DB) *FlightRepository {
	return &FlightRepository{
		db: db,
	}
}

// CreateFlight creates a new flight in SCHEDULED status
func (r *FlightRepository) CreateFlight(req *models.CreateFlightRequest) (*models.Flight, error) {
	flight := &models.Flight{
		FlightNumber:       req.FlightNumber,
		DepartureAirportID: req.DepartureAirportID,
		ArrivalAirportID:   req.ArrivalAirportID,
		DepartureTime:      req.DepartureTime,
		ArrivalTime:        req.ArrivalTime,
		AirplaneID:         req.AirplaneID,
		Status:             models.FlightStatusScheduled,
		BasePrice:          req.BasePrice,
		Gate:               req.Gate,
	}

	query := `
		INSERT INTO flights (
			flight_number, departure_airport_id, arrival_airport_id,
			departure_time, arrival_time, airplane_id, status,
			base_price, gate, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		flight.FlightNumber,
		flight.DepartureAirportID,
		flight.ArrivalAirportID,
		flight.DepartureTime,
		flight.ArrivalTime,
		flight.AirplaneID,
		flight.Status,
		flight.BasePrice,
		flight.Gate,
		time.Now(),
	).Scan(&flight.ID, &flight.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}

	return flight, nil
}

// GetFlightByID retrieves a flight by ID
func (r *FlightRepository) GetFlightByID(id int64) (*models.Flight, error) {
	var flight models.Flight

	query := `
		SELECT id, flight_number, departure_airport_id, arrival_airport_id,
		       departure_time, arrival_time, airplane_id, status,
		       base_price, gate, created_at
		FROM flights
		WHERE id = $1
	`

	err := r.db.Get(&flight, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get flight by ID: %w", err)
	}

	return &flight, nil
}

// SearchFlights retrieves flights matching the optional filters.
// Airport filters are IATA codes and date matches the departure day.
func (r *FlightRepository) SearchFlights(departureCode, arrivalCode string, date *time.Time, showAll bool) ([]models.Flight, error) {
	var flights []models.Flight

	query := `
		SELECT f.id, f.flight_number, f.departure_airport_id, f.arrival_airport_id,
		       f.departure_time, f.arrival_time, f.airplane_id, f.status,
		       f.base_price, f.gate, f.created_at
		FROM flights f
		JOIN airports da ON da.id = f.departure_airport_id
		JOIN airports aa ON aa.id = f.arrival_airport_id
		WHERE 1=1
	`

	args := []interface{}{}
	argPos := 1

	if showAll {
		query += fmt.Sprintf(" AND f.status != $%d", argPos)
		args = append(args, string(models.FlightStatusCancelled))
		argPos++
	} else {
		query += fmt.Sprintf(" AND f.status = ANY($%d)", argPos)
		args = append(args, pq.Array([]string{
			string(models.FlightStatusScheduled),
			string(models.FlightStatusDelayed),
		}))
		argPos++
	}

	if departureCode != "" {
		query += fmt.Sprintf(" AND da.code = $%d", argPos)
		args = append(args, departureCode)
		argPos++
	}

	if arrivalCode != "" {
		query += fmt.Sprintf(" AND aa.code = $%d", argPos)
		args = append(args, arrivalCode)
		argPos++
	}

	if date != nil {
		query += fmt.Sprintf(" AND f.departure_time >= $%d AND f.departure_time < $%d", argPos, argPos+1)
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
		argPos += 2
	}

	query += " ORDER BY f.departure_time"

	err := r.db.Select(&flights, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search flights: %w", err)
	}

	return flights, nil
}

// ListFlightsByStatuses retrieves flights whose status is in the
// given set, ordered by departure time
func (r *FlightRepository) ListFlightsByStatuses(statuses []models.FlightStatus) ([]models.Flight, error) {
	var flights []models.Flight

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	query := `
		SELECT id, flight_number, departure_airport_id, arrival_airport_id,
		       departure_time, arrival_time, airplane_id, status,
		       base_price, gate, created_at
		FROM flights
		WHERE status = ANY($1)
		ORDER BY departure_time
	`

	err := r.db.Select(&flights, query, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("failed to list flights by status: %w", err)
	}

	return flights, nil
}

// ListActiveFlightsByAirplane retrieves the airplane's flights that
// have not yet departed or ended
func (r *FlightRepository) ListActiveFlightsByAirplane(airplaneID int64) ([]models.Flight, error) {
	var flights []models.Flight

	statuses := []string{
		string(models.FlightStatusScheduled),
		string(models.FlightStatusDelayed),
		string(models.FlightStatusBoarding),
	}

	query := `
		SELECT id, flight_number, departure_airport_id, arrival_airport_id,
		       departure_time, arrival_time, airplane_id, status,
		       base_price, gate, created_at
		FROM flights
		WHERE airplane_id = $1
		  AND status = ANY($2)
		ORDER BY departure_time
	`

	err := r.db.Select(&flights, query, airplaneID, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("failed to list flights by airplane: %w", err)
	}

	return flights, nil
}

// FindConflictingFlight returns a non-terminal flight of the same
// airplane whose time window overlaps [departure, arrival), excluding
// excludeID. Returns nil when the airplane is free.
func (r *FlightRepository) FindConflictingFlight(airplaneID int64, departure, arrival time.Time, excludeID int64) (*models.Flight, error) {
	var flight models.Flight

	statuses := make([]string, len(models.NonTerminalFlightStatuses))
	for i, status := range models.NonTerminalFlightStatuses {
		statuses[i] = string(status)
	}

	query := `
		SELECT id, flight_number, departure_airport_id, arrival_airport_id,
		       departure_time, arrival_time, airplane_id, status,
		       base_price, gate, created_at
		FROM flights
		WHERE airplane_id = $1
		  AND id != $2
		  AND status = ANY($3)
		  AND departure_time < $4
		  AND arrival_time > $5
		LIMIT 1
	`

	err := r.db.Get(&flight, query, airplaneID, excludeID, pq.Array(statuses), arrival, departure)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check flight overlap: %w", err)
	}

	return &flight, nil
}

// UpdateFlightStatus sets the flight status
func (r *FlightRepository) UpdateFlightStatus(id int64, status models.FlightStatus) error {
	query := `
		UPDATE flights
		SET status = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update flight status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("flight not found")
	}

	return nil
}

// UpdateFlightStatusTx sets the flight status inside tx
func (r *FlightRepository) UpdateFlightStatusTx(tx *sqlx.Tx, id int64, status models.FlightStatus) error {
	query := `
		UPDATE flights
		SET status = $1
		WHERE id = $2
	`

	_, err := tx.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update flight status: %w", err)
	}

	return nil
}

// UpdateFlight sets status, times and gate in one statement
func (r *FlightRepository) UpdateFlight(flight *models.Flight) error {
	query := `
		UPDATE flights
		SET status = $1,
		    departure_time = $2,
		    arrival_time = $3,
		    gate = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query, flight.Status, flight.DepartureTime, flight.ArrivalTime, flight.Gate, flight.ID)
	if err != nil {
		return fmt.Errorf("failed to update flight: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("flight not found")
	}

	return nil
}
