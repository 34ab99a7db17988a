package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
)

// AirplaneService handles fleet management
type AirplaneService struct {
	airplaneRepo  *database.AirplaneRepository
	seatRepo      *database.SeatRepository
	flightRepo    *database.FlightRepository
	flightService *FlightService
	logger        *logrus.Logger
}

// NewAirplaneService creates a new airplane service
func NewAirplaneService(
	airplaneRepo *database.AirplaneRepository,
	seatRepo *database.SeatRepository,
	flightRepo *database.FlightRepository,
	flightService *FlightService,
	logger *logrus.Logger,
) *AirplaneService {
	return &AirplaneService{
		airplaneRepo:  airplaneRepo,
		seatRepo:      seatRepo,
		flightRepo:    flightRepo,
		flightService: flightService,
		logger:        logger,
	}
}

// CreateAirplane adds an airplane with its seat map. Seats come either
// from an explicit list or are generated from rows and letters, with
// the listed rows upgraded to extra legroom.
func (s *AirplaneService) CreateAirplane(req *models.CreateAirplaneRequest) (*models.Airplane, error) {
	seats := req.Seats
	if len(seats) == 0 {
		generated, err := generateSeatMap(req)
		if err != nil {
			return nil, err
		}
		seats = generated
	}

	numbers := make(map[string]bool, len(seats))
	for _, seat := range seats {
		if numbers[seat.SeatNumber] {
			return nil, apperrors.PreconditionFailed("duplicate seat number %s", seat.SeatNumber)
		}
		numbers[seat.SeatNumber] = true
	}

	airplane, err := s.airplaneRepo.CreateAirplane(req.Model, seats)
	if err != nil {
		return nil, apperrors.Internal("failed to create airplane", err)
	}

	s.logger.WithFields(logrus.Fields{
		"airplane_id": airplane.ID,
		"model":       airplane.Model,
		"seats":       airplane.TotalSeats,
	}).Info("Airplane added")

	return airplane, nil
}

// generateSeatMap builds a seat list from rows and seat letters
func generateSeatMap(req *models.CreateAirplaneRequest) ([]models.SeatTemplate, error) {
	if req.Rows == nil || req.SeatsPerRow == nil {
		return nil, apperrors.PreconditionFailed("either seats or rows and seats_per_row are required")
	}
	rows := *req.Rows
	perRow := *req.SeatsPerRow
	if rows <= 0 || perRow <= 0 {
		return nil, apperrors.PreconditionFailed("rows and seats_per_row must be positive")
	}

	letters := req.SeatLetters
	if letters == "" {
		letters = "ABCDEFGHJK"
	}
	if perRow > len(letters) {
		return nil, apperrors.PreconditionFailed("seats_per_row exceeds available seat letters")
	}

	extraLegroom := make(map[int]bool, len(req.ExtraLegroomRows))
	for _, row := range req.ExtraLegroomRows {
		extraLegroom[row] = true
	}

	seats := make([]models.SeatTemplate, 0, rows*perRow)
	for row := 1; row <= rows; row++ {
		category := models.SeatCategoryStandard
		if extraLegroom[row] {
			category = models.SeatCategoryExtraLegroom
		}
		for i := 0; i < perRow; i++ {
			seats = append(seats, models.SeatTemplate{
				SeatNumber: fmt.Sprintf("%d%c", row, letters[i]),
				Category:   category,
			})
		}
	}
	return seats, nil
}

// GetAirplane returns one airplane
func (s *AirplaneService) GetAirplane(id int64) (*models.Airplane, error) {
	airplane, err := s.airplaneRepo.GetAirplaneByID(id)
	if err != nil {
		return nil, apperrors.Internal("failed to look up airplane", err)
	}
	if airplane == nil {
		return nil, apperrors.NotFound("airplane %d not found", id)
	}
	return airplane, nil
}

// ListAirplanes returns the fleet
func (s *AirplaneService) ListAirplanes(activeOnly bool) ([]models.Airplane, error) {
	airplanes, err := s.airplaneRepo.ListAirplanes(activeOnly)
	if err != nil {
		return nil, apperrors.Internal("failed to list airplanes", err)
	}
	if airplanes == nil {
		airplanes = []models.Airplane{}
	}
	return airplanes, nil
}

// DeactivateAirplane retires an airplane. Flights that have not yet
// departed are cancelled, which in turn cancels their bookings and
// releases their seats. Flights already in the air are untouched.
func (s *AirplaneService) DeactivateAirplane(id int64) error {
	airplane, err := s.airplaneRepo.GetAirplaneByID(id)
	if err != nil {
		return apperrors.Internal("failed to look up airplane", err)
	}
	if airplane == nil {
		return apperrors.NotFound("airplane %d not found", id)
	}
	if !airplane.IsActive {
		return apperrors.Conflict("airplane %d is already retired", id)
	}

	flights, err := s.flightRepo.ListActiveFlightsByAirplane(id)
	if err != nil {
		return apperrors.Internal("failed to list airplane flights", err)
	}

	for i := range flights {
		if err := s.flightService.CancelFlight(&flights[i]); err != nil {
			return err
		}
	}

	if err := s.airplaneRepo.DeactivateAirplane(id); err != nil {
		return apperrors.Internal("failed to deactivate airplane", err)
	}

	s.logger.WithFields(logrus.Fields{
		"airplane_id":       id,
		"flights_cancelled": len(flights),
	}).Info("Airplane retired")

	return nil
}
