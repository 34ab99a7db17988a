package services

import (
	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
)

// AirportService handles the airport directory
type AirportService struct {
	airportRepo *database.AirportRepository
	logger      *logrus.Logger
}

// NewAirportService creates a new airport service
func NewAirportService(airportRepo *database.AirportRepository, logger *logrus.Logger) *AirportService {
	return &AirportService{
		airportRepo: airportRepo,
		logger:      logger,
	}
}

// CreateAirport adds an airport. Staff only.
func (s *AirportService) CreateAirport(req *models.CreateAirportRequest) (*models.Airport, error) {
	existing, err := s.airportRepo.GetAirportByCode(req.Code)
	if err != nil {
		return nil, apperrors.Internal("failed to look up airport", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("airport code %s already exists", existing.Code)
	}

	airport, err := s.airportRepo.CreateAirport(req)
	if err != nil {
		return nil, apperrors.Internal("failed to create airport", err)
	}

	s.logger.WithField("code", airport.Code).Info("Airport added")

	return airport, nil
}

// GetAirport returns one airport
func (s *AirportService) GetAirport(id int64) (*models.Airport, error) {
	airport, err := s.airportRepo.GetAirportByID(id)
	if err != nil {
		return nil, apperrors.Internal("failed to look up airport", err)
	}
	if airport == nil {
		return nil, apperrors.NotFound("airport %d not found", id)
	}
	return airport, nil
}

// ListAirports returns every airport
func (s *AirportService) ListAirports() ([]models.Airport, error) {
	airports, err := s.airportRepo.ListAirports()
	if err != nil {
		return nil, apperrors.Internal("failed to list airports", err)
	}
	if airports == nil {
		airports = []models.Airport{}
	}
	return airports, nil
}
