package services

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
	"github.com/airhive/airline-backend/pkg/token"
)

// CheckInService handles online check-in and boarding passes
type CheckInService struct {
	checkInRepo   *database.CheckInRepository
	bookingRepo   *database.BookingRepository
	flightService *FlightService
	cfg           config.BookingConfig
	logger        *logrus.Logger
	now           func() time.Time
}

// NewCheckInService creates a new check-in service
func NewCheckInService(
	checkInRepo *database.CheckInRepository,
	bookingRepo *database.BookingRepository,
	flightService *FlightService,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *CheckInService {
	return &CheckInService{
		checkInRepo:   checkInRepo,
		bookingRepo:   bookingRepo,
		flightService: flightService,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// CheckIn checks a passenger in for their ticket and returns the
// boarding pass. Checking in twice returns the same boarding pass.
func (s *CheckInService) CheckIn(userID int64, ticketID int64) (*models.BoardingPass, error) {
	ticket, booking, err := s.ownedTicket(userID, ticketID)
	if err != nil {
		return nil, err
	}

	if booking.Status != models.BookingStatusConfirmed {
		return nil, apperrors.PreconditionFailed("booking %s must be paid before check-in", booking.PNR)
	}

	flight, err := s.flightService.GetFlight(booking.FlightID)
	if err != nil {
		return nil, err
	}

	switch flight.Status {
	case models.FlightStatusCancelled:
		return nil, apperrors.Conflict("flight %s has been cancelled", flight.FlightNumber)
	case models.FlightStatusDeparted, models.FlightStatusArrived, models.FlightStatusCompleted:
		return nil, apperrors.PreconditionFailed("flight %s has already departed", flight.FlightNumber)
	}

	existing, err := s.checkInRepo.GetCheckInByTicketID(ticket.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up check-in", err)
	}
	if existing != nil {
		return s.buildBoardingPass(ticket, flight, existing)
	}

	now := s.now()
	opensAt := flight.DepartureTime.Add(-s.cfg.CheckInOpenBefore)
	closesAt := flight.DepartureTime.Add(-s.cfg.CheckInCloseBefore)
	if now.Before(opensAt) {
		return nil, apperrors.PreconditionFailed("check-in for flight %s opens at %s",
			flight.FlightNumber, opensAt.UTC().Format(time.RFC3339))
	}
	if now.After(closesAt) {
		return nil, apperrors.PreconditionFailed("check-in for flight %s closed at %s",
			flight.FlightNumber, closesAt.UTC().Format(time.RFC3339))
	}

	boardingPassNumber, err := token.GenerateBoardingPassNumber()
	if err != nil {
		return nil, apperrors.Internal("failed to generate boarding pass number", err)
	}

	checkIn, err := s.checkInRepo.CreateCheckIn(ticket.ID, boardingPassNumber)
	if err != nil {
		return nil, apperrors.Internal("failed to record check-in", err)
	}

	checkInsTotal.Inc()

	s.logger.WithFields(logrus.Fields{
		"ticket_id":     ticket.ID,
		"boarding_pass": boardingPassNumber,
		"flight_id":     flight.ID,
	}).Info("Passenger checked in")

	return s.buildBoardingPass(ticket, flight, checkIn)
}

// GetBoardingPass returns the boarding pass for an already checked-in
// ticket
func (s *CheckInService) GetBoardingPass(userID int64, ticketID int64) (*models.BoardingPass, error) {
	ticket, booking, err := s.ownedTicket(userID, ticketID)
	if err != nil {
		return nil, err
	}

	checkIn, err := s.checkInRepo.GetCheckInByTicketID(ticket.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up check-in", err)
	}
	if checkIn == nil {
		return nil, apperrors.NotFound("ticket %d is not checked in", ticketID)
	}

	flight, err := s.flightService.GetFlight(booking.FlightID)
	if err != nil {
		return nil, err
	}

	return s.buildBoardingPass(ticket, flight, checkIn)
}

// ownedTicket loads a ticket and verifies the caller owns its booking
func (s *CheckInService) ownedTicket(userID, ticketID int64) (*models.TicketWithSeat, *models.Booking, error) {
	ticket, err := s.bookingRepo.GetTicketByID(ticketID)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to look up ticket", err)
	}
	if ticket == nil {
		return nil, nil, apperrors.NotFound("ticket %d not found", ticketID)
	}

	booking, err := s.bookingRepo.GetBookingByID(ticket.BookingID)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil {
		return nil, nil, apperrors.NotFound("booking %d not found", ticket.BookingID)
	}
	if booking.UserID != userID {
		return nil, nil, apperrors.Forbidden("ticket %d belongs to another passenger", ticketID)
	}

	return ticket, booking, nil
}

// buildBoardingPass assembles the boarding pass view with its QR code
func (s *CheckInService) buildBoardingPass(ticket *models.TicketWithSeat, flight *models.FlightWithAirports, checkIn *models.CheckIn) (*models.BoardingPass, error) {
	boardingTime := flight.DepartureTime.Add(-s.cfg.BoardingOffset)

	payload := fmt.Sprintf("BP:%s|FN:%s|SEAT:%s|GATE:%s|BT:%s",
		checkIn.BoardingPassNumber,
		flight.FlightNumber,
		ticket.Seat.SeatNumber,
		flight.Gate,
		boardingTime.UTC().Format(time.RFC3339))

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, apperrors.Internal("failed to render QR code", err)
	}

	return &models.BoardingPass{
		Ticket:             *ticket,
		Flight:             *flight,
		BoardingPassNumber: checkIn.BoardingPassNumber,
		PassengerName:      fmt.Sprintf("%s %s", ticket.PassengerFirstName, ticket.PassengerLastName),
		SeatNumber:         ticket.Seat.SeatNumber,
		Gate:               flight.Gate,
		BoardingTime:       boardingTime,
		QRPayload:          payload,
		QRCodePNG:          base64.StdEncoding.EncodeToString(png),
		DepartureTime:      flight.DepartureTime,
		ArrivalTime:        flight.ArrivalTime,
	}, nil
}
