package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/cache"
	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
)

// FlightService handles flight scheduling, search and the flight
// status state machine
type FlightService struct {
	db           database.DB
	flightRepo   *database.FlightRepository
	airportRepo  *database.AirportRepository
	airplaneRepo *database.AirplaneRepository
	bookingRepo  *database.BookingRepository
	seatRepo     *database.SeatRepository
	notifier     *NotificationService
	flightCache  *cache.FlightCache
	cfg          config.BookingConfig
	logger       *logrus.Logger
	now          func() time.Time
}

// NewFlightService creates a new flight service
func NewFlightService(
	db database.DB,
	flightRepo *database.FlightRepository,
	airportRepo *database.AirportRepository,
	airplaneRepo *database.AirplaneRepository,
	bookingRepo *database.BookingRepository,
	seatRepo *database.SeatRepository,
	notifier *NotificationService,
	flightCache *cache.FlightCache,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *FlightService {
	return &FlightService{
		db:           db,
		flightRepo:   flightRepo,
		airportRepo:  airportRepo,
		airplaneRepo: airplaneRepo,
		bookingRepo:  bookingRepo,
		seatRepo:     seatRepo,
		notifier:     notifier,
		flightCache:  flightCache,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateFlight schedules a new flight. Staff only.
func (s *FlightService) CreateFlight(req *models.CreateFlightRequest) (*models.Flight, error) {
	if !req.ArrivalTime.After(req.DepartureTime) {
		return nil, apperrors.PreconditionFailed("arrival time must be after departure time")
	}
	if req.DepartureTime.Before(s.now().Add(s.cfg.MinScheduleLead)) {
		return nil, apperrors.PreconditionFailed("flights must be scheduled at least %d hours before departure",
			int(s.cfg.MinScheduleLead.Hours()))
	}
	if req.DepartureAirportID == req.ArrivalAirportID {
		return nil, apperrors.PreconditionFailed("departure and arrival airports must differ")
	}

	for _, airportID := range []int64{req.DepartureAirportID, req.ArrivalAirportID} {
		airport, err := s.airportRepo.GetAirportByID(airportID)
		if err != nil {
			return nil, apperrors.Internal("failed to look up airport", err)
		}
		if airport == nil {
			return nil, apperrors.NotFound("airport %d not found", airportID)
		}
	}

	airplane, err := s.airplaneRepo.GetAirplaneByID(req.AirplaneID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up airplane", err)
	}
	if airplane == nil {
		return nil, apperrors.NotFound("airplane %d not found", req.AirplaneID)
	}
	if !airplane.IsActive {
		return nil, apperrors.Conflict("airplane %d is retired", req.AirplaneID)
	}

	conflict, err := s.flightRepo.FindConflictingFlight(req.AirplaneID, req.DepartureTime, req.ArrivalTime, 0)
	if err != nil {
		return nil, apperrors.Internal("failed to check airplane schedule", err)
	}
	if conflict != nil {
		return nil, apperrors.Conflict("airplane %d is already assigned to flight %s in that window",
			req.AirplaneID, conflict.FlightNumber)
	}

	flight, err := s.flightRepo.CreateFlight(req)
	if err != nil {
		return nil, apperrors.Internal("failed to create flight", err)
	}

	s.flightCache.Invalidate(context.Background())

	s.logger.WithFields(logrus.Fields{
		"flight_id":     flight.ID,
		"flight_number": flight.FlightNumber,
	}).Info("Flight scheduled")

	return flight, nil
}

// GetFlight returns one flight with its airports joined
func (s *FlightService) GetFlight(id int64) (*models.FlightWithAirports, error) {
	flight, err := s.flightRepo.GetFlightByID(id)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight == nil {
		return nil, apperrors.NotFound("flight %d not found", id)
	}

	withAirports, err := s.attachAirports([]models.Flight{*flight})
	if err != nil {
		return nil, err
	}
	return &withAirports[0], nil
}

// SearchFlights returns flights matching the filters, served from the
// cache when possible. Passengers see only bookable flights; showAll
// widens the view to every non-cancelled flight.
func (s *FlightService) SearchFlights(ctx context.Context, departureCode, arrivalCode string, date *time.Time, showAll bool) ([]models.FlightWithAirports, error) {
	dateKey := ""
	if date != nil {
		dateKey = date.UTC().Format("2006-01-02")
	}
	cacheKey := cache.SearchKey(departureCode, arrivalCode, dateKey, showAll)

	cached, err := s.flightCache.GetSearch(ctx, cacheKey)
	if err != nil {
		s.logger.WithError(err).Warn("Flight cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	flights, err := s.flightRepo.SearchFlights(departureCode, arrivalCode, date, showAll)
	if err != nil {
		return nil, apperrors.Internal("failed to search flights", err)
	}

	withAirports, err := s.attachAirports(flights)
	if err != nil {
		return nil, err
	}

	if err := s.flightCache.SetSearch(ctx, cacheKey, withAirports); err != nil {
		s.logger.WithError(err).Warn("Flight cache write failed")
	}

	return withAirports, nil
}

// attachAirports joins airport rows onto flights
func (s *FlightService) attachAirports(flights []models.Flight) ([]models.FlightWithAirports, error) {
	airports, err := s.airportRepo.ListAirports()
	if err != nil {
		return nil, apperrors.Internal("failed to list airports", err)
	}

	byID := make(map[int64]models.Airport, len(airports))
	for _, airport := range airports {
		byID[airport.ID] = airport
	}

	result := make([]models.FlightWithAirports, 0, len(flights))
	for _, flight := range flights {
		result = append(result, models.FlightWithAirports{
			Flight:           flight,
			DepartureAirport: byID[flight.DepartureAirportID],
			ArrivalAirport:   byID[flight.ArrivalAirportID],
		})
	}
	return result, nil
}

// GetSeatMap returns the seat map for a flight. Lapsed holds are
// released first so the map never shows a stale HELD seat.
func (s *FlightService) GetSeatMap(flightID int64) (*models.SeatMapResponse, error) {
	flight, err := s.flightRepo.GetFlightByID(flightID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight == nil {
		return nil, apperrors.NotFound("flight %d not found", flightID)
	}

	released, err := s.seatRepo.ReleaseExpiredHolds(flight.AirplaneID, s.now())
	if err != nil {
		return nil, apperrors.Internal("failed to release expired holds", err)
	}
	if released > 0 {
		seatHoldsReleasedTotal.Add(float64(released))
	}

	seats, err := s.seatRepo.GetSeatsByAirplaneID(flight.AirplaneID)
	if err != nil {
		return nil, apperrors.Internal("failed to list seats", err)
	}

	return &models.SeatMapResponse{
		FlightID: flightID,
		Seats:    seats,
	}, nil
}

// NextAutomaticStatus returns the single next time-driven status for
// the flight at now, or false when the flight stays where it is.
// DELAYED participates like SCHEDULED but against the updated times.
func (s *FlightService) NextAutomaticStatus(flight *models.Flight, now time.Time) (models.FlightStatus, bool) {
	switch flight.Status {
	case models.FlightStatusScheduled, models.FlightStatusDelayed:
		if !now.Before(flight.DepartureTime.Add(-s.cfg.BoardingOffset)) {
			return models.FlightStatusBoarding, true
		}
	case models.FlightStatusBoarding:
		if !now.Before(flight.DepartureTime) {
			return models.FlightStatusDeparted, true
		}
	case models.FlightStatusDeparted:
		if !now.Before(flight.ArrivalTime) {
			return models.FlightStatusArrived, true
		}
	case models.FlightStatusArrived:
		if !now.Before(flight.ArrivalTime.Add(s.cfg.CompletionOffset)) {
			return models.FlightStatusCompleted, true
		}
	}
	return flight.Status, false
}

// ProcessAutomaticUpdates advances every non-terminal flight through
// all the transitions its clock has earned. A flight that slept
// through several boundaries catches up one step at a time so every
// intermediate notification still fires. Returns the transitions
// applied.
func (s *FlightService) ProcessAutomaticUpdates() ([]models.FlightTransition, error) {
	flights, err := s.flightRepo.ListFlightsByStatuses(models.NonTerminalFlightStatuses)
	if err != nil {
		return nil, apperrors.Internal("failed to list flights", err)
	}

	now := s.now()
	var transitions []models.FlightTransition

	for i := range flights {
		flight := &flights[i]
		for {
			next, changed := s.NextAutomaticStatus(flight, now)
			if !changed {
				break
			}

			old := flight.Status
			if err := s.applyTransition(flight, next); err != nil {
				s.logger.WithError(err).WithField("flight_id", flight.ID).Error("Failed to apply flight transition")
				break
			}
			transitions = append(transitions, models.FlightTransition{
				Flight:    flight,
				OldStatus: old,
				NewStatus: next,
			})
		}
	}

	if len(transitions) > 0 {
		s.flightCache.Invalidate(context.Background())
	}

	return transitions, nil
}

// applyTransition persists a status change and notifies passengers
func (s *FlightService) applyTransition(flight *models.Flight, newStatus models.FlightStatus) error {
	if err := s.flightRepo.UpdateFlightStatus(flight.ID, newStatus); err != nil {
		return apperrors.Internal("failed to update flight status", err)
	}

	old := flight.Status
	flight.Status = newStatus
	flightTransitionsTotal.WithLabelValues(string(newStatus)).Inc()

	s.logger.WithFields(logrus.Fields{
		"flight_id":     flight.ID,
		"flight_number": flight.FlightNumber,
		"from":          old,
		"to":            newStatus,
	}).Info("Flight status changed")

	s.notifier.NotifyFlightTransition(flight, newStatus)
	return nil
}

// UpdateFlight applies a staff status or schedule change
func (s *FlightService) UpdateFlight(id int64, req *models.UpdateFlightRequest) (*models.Flight, error) {
	flight, err := s.flightRepo.GetFlightByID(id)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight == nil {
		return nil, apperrors.NotFound("flight %d not found", id)
	}

	if flight.Status.IsTerminal() {
		return nil, apperrors.Conflict("flight %s is %s and can no longer change", flight.FlightNumber, flight.Status)
	}

	switch req.Status {
	case models.FlightStatusScheduled, models.FlightStatusDelayed, models.FlightStatusBoarding,
		models.FlightStatusDeparted, models.FlightStatusArrived, models.FlightStatusCancelled,
		models.FlightStatusCompleted:
	default:
		return nil, apperrors.PreconditionFailed("unknown flight status %s", req.Status)
	}

	if req.Status == models.FlightStatusCancelled {
		if err := s.CancelFlight(flight); err != nil {
			return nil, err
		}
		return flight, nil
	}

	oldStatus := flight.Status
	oldGate := flight.Gate
	timesChanged := false

	if req.DepartureTime != nil {
		flight.DepartureTime = *req.DepartureTime
		timesChanged = true
	}
	if req.ArrivalTime != nil {
		flight.ArrivalTime = *req.ArrivalTime
		timesChanged = true
	}
	if req.Gate != nil {
		flight.Gate = *req.Gate
	}
	flight.Status = req.Status

	if timesChanged {
		if !flight.ArrivalTime.After(flight.DepartureTime) {
			return nil, apperrors.PreconditionFailed("arrival time must be after departure time")
		}
		conflict, err := s.flightRepo.FindConflictingFlight(flight.AirplaneID, flight.DepartureTime, flight.ArrivalTime, flight.ID)
		if err != nil {
			return nil, apperrors.Internal("failed to check airplane schedule", err)
		}
		if conflict != nil {
			return nil, apperrors.Conflict("new times overlap flight %s of the same airplane", conflict.FlightNumber)
		}
	}

	if err := s.flightRepo.UpdateFlight(flight); err != nil {
		return nil, apperrors.Internal("failed to update flight", err)
	}

	s.flightCache.Invalidate(context.Background())

	s.logger.WithFields(logrus.Fields{
		"flight_id": flight.ID,
		"from":      oldStatus,
		"to":        flight.Status,
	}).Info("Flight updated by staff")

	switch {
	case flight.Status == models.FlightStatusDelayed && (timesChanged || oldStatus != models.FlightStatusDelayed):
		s.notifier.NotifyFlightDelay(flight)
	case flight.Status != oldStatus:
		s.notifier.NotifyFlightTransition(flight, flight.Status)
	case flight.Gate != oldGate:
		s.notifier.NotifyGateChange(flight)
	}

	return flight, nil
}

// CancelFlight cancels the flight, cancels its active bookings,
// releases their seats and notifies the passengers
func (s *FlightService) CancelFlight(flight *models.Flight) error {
	if flight.Status.IsTerminal() {
		return apperrors.Conflict("flight %s is %s and cannot be cancelled", flight.FlightNumber, flight.Status)
	}

	bookings, err := s.bookingRepo.ListBookingsByFlightAndStatus(flight.ID, models.ActiveBookingStatuses)
	if err != nil {
		return apperrors.Internal("failed to list flight bookings", err)
	}

	seatIDsByBooking := make(map[int64][]int64, len(bookings))
	for _, booking := range bookings {
		seatIDs, err := s.bookingRepo.GetSeatIDsByBookingID(booking.ID)
		if err != nil {
			return apperrors.Internal("failed to list booking seats", err)
		}
		seatIDsByBooking[booking.ID] = seatIDs
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	affectedUsers := make(map[int64]bool)
	for _, booking := range bookings {
		if err := s.bookingRepo.UpdateBookingStatusTx(tx, booking.ID, models.BookingStatusCancelled); err != nil {
			return apperrors.Internal("failed to cancel booking", err)
		}
		if err := s.seatRepo.ReleaseSeatsTx(tx, seatIDsByBooking[booking.ID]); err != nil {
			return apperrors.Internal("failed to release seats", err)
		}
		affectedUsers[booking.UserID] = true
	}

	if err := s.flightRepo.UpdateFlightStatusTx(tx, flight.ID, models.FlightStatusCancelled); err != nil {
		return apperrors.Internal("failed to cancel flight", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit flight cancellation", err)
	}

	bookingsCancelledTotal.WithLabelValues("flight_cancelled").Add(float64(len(bookings)))
	flight.Status = models.FlightStatusCancelled
	flightTransitionsTotal.WithLabelValues(string(models.FlightStatusCancelled)).Inc()

	s.flightCache.Invalidate(context.Background())

	s.logger.WithFields(logrus.Fields{
		"flight_id":          flight.ID,
		"flight_number":      flight.FlightNumber,
		"bookings_cancelled": len(bookings),
	}).Info("Flight cancelled")

	// The bookings are already cancelled, so fan out to the users
	// collected above rather than re-querying active bookings.
	for userID := range affectedUsers {
		if err := s.notifier.Notify(userID, &flight.ID, titleFlightCancelled,
			fmt.Sprintf("Flight %s has been cancelled. Your booking has been cancelled and your seats released.", flight.FlightNumber)); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("Failed to notify passenger")
		}
	}
	return nil
}
