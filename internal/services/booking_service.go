package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
	"github.com/airhive/airline-backend/pkg/token"
)

// bookableFlightStatuses are the flight statuses that still accept
// new bookings
var bookableFlightStatuses = map[models.FlightStatus]bool{
	models.FlightStatusScheduled: true,
	models.FlightStatusDelayed:   true,
}

// BookingService handles the booking lifecycle from seat hold to
// payment and cancellation
type BookingService struct {
	db          database.DB
	bookingRepo *database.BookingRepository
	seatRepo    *database.SeatRepository
	flightRepo  *database.FlightRepository
	airportRepo *database.AirportRepository
	paymentRepo *database.PaymentRepository
	userRepo    *database.UserRepository
	checkInRepo *database.CheckInRepository
	notifier    *NotificationService
	cfg         config.BookingConfig
	logger      *logrus.Logger
	now         func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	db database.DB,
	bookingRepo *database.BookingRepository,
	seatRepo *database.SeatRepository,
	flightRepo *database.FlightRepository,
	airportRepo *database.AirportRepository,
	paymentRepo *database.PaymentRepository,
	userRepo *database.UserRepository,
	checkInRepo *database.CheckInRepository,
	notifier *NotificationService,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		seatRepo:    seatRepo,
		flightRepo:  flightRepo,
		airportRepo: airportRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		checkInRepo: checkInRepo,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// HoldSeat places a temporary selection hold on one seat so the
// passenger can finish picking seats before booking. A lapsed hold is
// normalized to AVAILABLE first, so an expired hold never blocks the
// next passenger.
func (s *BookingService) HoldSeat(seatID int64) (*models.Seat, error) {
	now := s.now()

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	seats, err := s.seatRepo.GetSeatsForUpdate(tx, []int64{seatID})
	if err != nil {
		return nil, apperrors.Internal("failed to lock seat", err)
	}
	if len(seats) == 0 {
		return nil, apperrors.NotFound("seat %d not found", seatID)
	}

	seat := &seats[0]
	if seat.Status == models.SeatStatusBooked ||
		(seat.Status == models.SeatStatusHeld && !seat.HoldExpired(now)) {
		return nil, apperrors.Conflict("seat %s is not available", seat.SeatNumber)
	}

	heldUntil := now.Add(s.cfg.SeatHoldWindow)
	if err := s.seatRepo.HoldSeats(tx, []int64{seatID}, heldUntil); err != nil {
		return nil, apperrors.Internal("failed to hold seat", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit seat hold", err)
	}

	seatsHeldTotal.Inc()
	seat.Status = models.SeatStatusHeld
	seat.HeldUntil = &heldUntil

	s.logger.WithFields(logrus.Fields{
		"seat_id":    seat.ID,
		"held_until": heldUntil,
	}).Info("Seat held")

	return seat, nil
}

// CreateBooking books the requested seats for the caller. The seats
// are locked row-by-row inside one transaction, so two passengers
// racing for the same seat serialize and the loser gets a conflict.
func (s *BookingService) CreateBooking(userID int64, req *models.CreateBookingRequest) (*models.BookingDetail, error) {
	profile, err := s.userRepo.GetProfileByUserID(userID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up profile", err)
	}
	if profile == nil {
		return nil, apperrors.PreconditionFailed("complete your passenger profile before booking")
	}

	flight, err := s.flightRepo.GetFlightByID(req.FlightID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight == nil {
		return nil, apperrors.NotFound("flight %d not found", req.FlightID)
	}
	if !bookableFlightStatuses[flight.Status] {
		return nil, apperrors.Conflict("flight %s is %s and no longer accepts bookings", flight.FlightNumber, flight.Status)
	}

	pnr, err := s.allocatePNR()
	if err != nil {
		return nil, err
	}

	now := s.now()

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	seats, err := s.seatRepo.GetSeatsForUpdate(tx, req.SeatIDs)
	if err != nil {
		return nil, apperrors.Internal("failed to lock seats", err)
	}
	if len(seats) != len(req.SeatIDs) {
		return nil, apperrors.NotFound("one or more seats not found")
	}

	for i := range seats {
		seat := &seats[i]
		if seat.AirplaneID != flight.AirplaneID {
			return nil, apperrors.PreconditionFailed("seat %s does not belong to flight %s", seat.SeatNumber, flight.FlightNumber)
		}
		// An expired hold counts as available.
		if seat.Status == models.SeatStatusBooked ||
			(seat.Status == models.SeatStatusHeld && !seat.HoldExpired(now)) {
			return nil, apperrors.Conflict("seat %s is not available", seat.SeatNumber)
		}
	}

	booking, err := s.bookingRepo.CreateBooking(tx, userID, flight.ID, pnr)
	if err != nil {
		return nil, apperrors.Internal("failed to create booking", err)
	}

	for i := range seats {
		ticketNumber, err := token.GenerateTicketNumber()
		if err != nil {
			return nil, apperrors.Internal("failed to generate ticket number", err)
		}
		ticket := &models.Ticket{
			BookingID:          booking.ID,
			SeatID:             seats[i].ID,
			PassengerFirstName: profile.FirstName,
			PassengerLastName:  profile.LastName,
			TicketNumber:       ticketNumber,
		}
		if err := s.bookingRepo.CreateTicket(tx, ticket); err != nil {
			return nil, apperrors.Internal("failed to create ticket", err)
		}
	}

	heldUntil := now.Add(s.cfg.SeatHoldWindow)
	if err := s.seatRepo.HoldSeats(tx, req.SeatIDs, heldUntil); err != nil {
		return nil, apperrors.Internal("failed to hold seats", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit booking", err)
	}

	bookingsCreatedTotal.Inc()
	seatsHeldTotal.Add(float64(len(req.SeatIDs)))

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"pnr":        booking.PNR,
		"user_id":    userID,
		"flight_id":  flight.ID,
		"seats":      len(req.SeatIDs),
	}).Info("Booking created")

	seatNumbers := make([]string, len(seats))
	for i := range seats {
		seatNumbers[i] = seats[i].SeatNumber
	}
	if err := s.notifier.Notify(userID, &booking.FlightID, titleBookingCreated,
		fmt.Sprintf("You reserved seat(s) %s on flight %s. Pay within %d minutes or the booking will be cancelled.",
			strings.Join(seatNumbers, ", "), flight.FlightNumber, int(s.cfg.SeatHoldWindow.Minutes()))); err != nil {
		s.logger.WithError(err).Warn("Failed to send booking created notification")
	}

	return s.buildDetail(booking)
}

// Confirm marks a booking as awaiting payment. The passenger reviews
// their tickets and confirms before paying.
func (s *BookingService) Confirm(userID int64, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking %d not found", bookingID)
	}
	if booking.UserID != userID {
		return nil, apperrors.Forbidden("booking %d belongs to another passenger", bookingID)
	}
	if booking.Status != models.BookingStatusCreated {
		return nil, apperrors.Conflict("booking %s is %s and cannot be confirmed", booking.PNR, booking.Status)
	}

	ticketCount, err := s.bookingRepo.CountTicketsByBookingID(booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to count tickets", err)
	}
	if ticketCount == 0 {
		return nil, apperrors.PreconditionFailed("booking %s has no tickets", booking.PNR)
	}

	if err := s.transition(booking, models.BookingStatusPendingPayment); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"pnr":        booking.PNR,
	}).Info("Booking confirmed, awaiting payment")

	return s.buildDetail(booking)
}

// allocatePNR draws record locators until one is unused
func (s *BookingService) allocatePNR() (string, error) {
	for attempt := 0; attempt < s.cfg.PNRAttempts; attempt++ {
		pnr, err := token.GeneratePNR()
		if err != nil {
			return "", apperrors.Internal("failed to generate PNR", err)
		}
		exists, err := s.bookingRepo.PNRExists(pnr)
		if err != nil {
			return "", apperrors.Internal("failed to check PNR", err)
		}
		if !exists {
			return pnr, nil
		}
	}
	return "", apperrors.Internal("failed to allocate a unique PNR", nil)
}

// GetBooking returns the booking detail. Passengers only see their
// own bookings; staff see any.
func (s *BookingService) GetBooking(userID int64, isStaff bool, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking %d not found", bookingID)
	}
	if booking.UserID != userID && !isStaff {
		return nil, apperrors.Forbidden("booking %d belongs to another passenger", bookingID)
	}

	return s.buildDetail(booking)
}

// ListMyBookings returns the caller's bookings with full detail,
// newest first
func (s *BookingService) ListMyBookings(userID int64) ([]models.BookingDetail, error) {
	bookings, err := s.bookingRepo.ListBookingsByUser(userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}

	details := make([]models.BookingDetail, 0, len(bookings))
	for i := range bookings {
		detail, err := s.buildDetail(&bookings[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// FindByPNR returns the booking detail for a record locator. Staff
// only.
func (s *BookingService) FindByPNR(pnr string) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetBookingByPNR(pnr)
	if err != nil {
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil {
		return nil, apperrors.NotFound("no booking with PNR %s", pnr)
	}
	return s.buildDetail(booking)
}

// Pay settles a booking through the mock gateway. Only an unpaid
// booking inside its payment window can be paid; a lapsed one is
// expired on the spot.
func (s *BookingService) Pay(userID int64, req *models.CreatePaymentRequest) (*models.Payment, error) {
	if !req.Method.Valid() {
		return nil, apperrors.PreconditionFailed("unsupported payment method %s", req.Method)
	}

	booking, err := s.bookingRepo.GetBookingByID(req.BookingID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking %d not found", req.BookingID)
	}
	if booking.UserID != userID {
		return nil, apperrors.Forbidden("booking %d belongs to another passenger", req.BookingID)
	}

	if booking.IsExpired(s.now(), s.cfg.SeatHoldWindow) {
		if err := s.expireBooking(booking); err != nil {
			return nil, err
		}
		return nil, apperrors.Conflict("booking %s has expired, please book again", booking.PNR)
	}
	if booking.Status != models.BookingStatusCreated && booking.Status != models.BookingStatusPendingPayment {
		return nil, apperrors.Conflict("booking %s is %s and cannot be paid", booking.PNR, booking.Status)
	}

	flight, err := s.flightRepo.GetFlightByID(booking.FlightID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight == nil {
		return nil, apperrors.Internal("flight missing for booking", nil)
	}
	if flight.Status.IsTerminal() {
		return nil, apperrors.Conflict("flight %s is %s and the booking cannot be paid", flight.FlightNumber, flight.Status)
	}

	ticketCount, err := s.bookingRepo.CountTicketsByBookingID(booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to count tickets", err)
	}

	seatIDs, err := s.bookingRepo.GetSeatIDsByBookingID(booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list booking seats", err)
	}

	now := s.now()

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// Re-check the holds under lock. Between creation and payment the
	// holds may have lapsed and the seats may already belong to
	// someone else; settling anyway would double-book them.
	seats, err := s.seatRepo.GetSeatsForUpdate(tx, seatIDs)
	if err != nil {
		return nil, apperrors.Internal("failed to lock seats", err)
	}
	for i := range seats {
		if seats[i].Status != models.SeatStatusHeld || seats[i].HoldExpired(now) {
			tx.Rollback()
			if err := s.expireBooking(booking); err != nil {
				return nil, err
			}
			return nil, apperrors.Conflict("booking %s has expired, please book again", booking.PNR)
		}
	}

	payment := &models.Payment{
		BookingID:      booking.ID,
		Amount:         flight.BasePrice * float64(ticketCount),
		Method:         req.Method,
		Status:         models.PaymentStatusPending,
		TransactionRef: uuid.NewString(),
	}
	if err := s.paymentRepo.CreatePayment(tx, payment); err != nil {
		return nil, apperrors.Internal("failed to record payment", err)
	}

	// The mock gateway always settles. A real integration would branch
	// on the gateway response and mark the payment FAILED.
	if err := s.paymentRepo.UpdatePaymentStatus(tx, payment.ID, models.PaymentStatusPaid); err != nil {
		return nil, apperrors.Internal("failed to settle payment", err)
	}

	if err := s.bookingRepo.UpdateBookingStatusTx(tx, booking.ID, models.BookingStatusConfirmed); err != nil {
		return nil, apperrors.Internal("failed to update booking status", err)
	}
	if err := s.seatRepo.BookSeats(tx, seatIDs); err != nil {
		return nil, apperrors.Internal("failed to book seats", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit payment", err)
	}

	payment.Status = models.PaymentStatusPaid
	booking.Status = models.BookingStatusConfirmed

	paymentAttemptsTotal.WithLabelValues(string(models.PaymentStatusPaid)).Inc()
	bookingsConfirmedTotal.Inc()

	s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"pnr":             booking.PNR,
		"amount":          payment.Amount,
		"method":          payment.Method,
		"transaction_ref": payment.TransactionRef,
	}).Info("Booking paid and confirmed")

	if err := s.notifier.Notify(booking.UserID, &booking.FlightID, titleBookingConfirmed,
		fmt.Sprintf("Your booking %s on flight %s is confirmed.", booking.PNR, flight.FlightNumber)); err != nil {
		s.logger.WithError(err).Warn("Failed to send confirmation notification")
	}

	return payment, nil
}

// transition moves a booking along the status table, persisting the
// change
func (s *BookingService) transition(booking *models.Booking, next models.BookingStatus) error {
	if !booking.Status.CanTransition(next) {
		return apperrors.Conflict("booking %s cannot move from %s to %s", booking.PNR, booking.Status, next)
	}
	if err := s.bookingRepo.UpdateBookingStatus(booking.ID, next); err != nil {
		return apperrors.Internal("failed to update booking status", err)
	}
	booking.Status = next
	return nil
}

// CancelBooking cancels a booking and releases its seats. Passengers
// may cancel until the cancellation deadline before departure; staff
// may cancel any time before the flight departs.
func (s *BookingService) CancelBooking(userID int64, isStaff bool, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking %d not found", bookingID)
	}
	if booking.UserID != userID && !isStaff {
		return nil, apperrors.Forbidden("booking %d belongs to another passenger", bookingID)
	}
	if !booking.Status.CanTransition(models.BookingStatusCancelled) {
		return nil, apperrors.Conflict("booking %s is already cancelled", booking.PNR)
	}

	flight, err := s.flightRepo.GetFlightByID(booking.FlightID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight != nil {
		if err := s.checkCancellationDeadline(flight, isStaff); err != nil {
			return nil, err
		}
	}

	seatIDs, err := s.bookingRepo.GetSeatIDsByBookingID(booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list booking seats", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.UpdateBookingStatusTx(tx, booking.ID, models.BookingStatusCancelled); err != nil {
		return nil, apperrors.Internal("failed to update booking status", err)
	}
	if err := s.seatRepo.ReleaseSeatsTx(tx, seatIDs); err != nil {
		return nil, apperrors.Internal("failed to release seats", err)
	}
	if err := s.checkInRepo.DeleteCheckInsByBookingID(tx, booking.ID); err != nil {
		return nil, apperrors.Internal("failed to remove check-ins", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit cancellation", err)
	}
	booking.Status = models.BookingStatusCancelled

	reason := "passenger"
	if isStaff && booking.UserID != userID {
		reason = "staff"
	}
	bookingsCancelledTotal.WithLabelValues(reason).Inc()

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"pnr":        booking.PNR,
		"reason":     reason,
	}).Info("Booking cancelled")

	if flight != nil {
		content := fmt.Sprintf("Your booking %s on flight %s has been cancelled.", booking.PNR, flight.FlightNumber)
		if reason == "staff" {
			content = fmt.Sprintf("Your booking %s on flight %s was cancelled by airline staff.", booking.PNR, flight.FlightNumber)
		}
		if err := s.notifier.Notify(booking.UserID, &booking.FlightID, titleBookingCancelled, content); err != nil {
			s.logger.WithError(err).Warn("Failed to send cancellation notification")
		}
	}

	return s.buildDetail(booking)
}

// checkCancellationDeadline enforces the pre-departure cancellation
// rules
func (s *BookingService) checkCancellationDeadline(flight *models.Flight, isStaff bool) error {
	switch flight.Status {
	case models.FlightStatusDeparted, models.FlightStatusArrived, models.FlightStatusCompleted:
		return apperrors.Conflict("flight %s has already departed", flight.FlightNumber)
	case models.FlightStatusCancelled:
		// A cancelled flight imposes no deadline.
		return nil
	}

	if isStaff {
		return nil
	}

	deadline := flight.DepartureTime.Add(-s.cfg.CancelDeadline)
	if !s.now().Before(deadline) {
		return apperrors.Conflict("bookings on flight %s can no longer be cancelled this close to departure", flight.FlightNumber)
	}
	return nil
}

// CancelTicket removes a single ticket from a booking and releases its
// seat. Cancelling the last ticket cancels the booking.
func (s *BookingService) CancelTicket(userID int64, isStaff bool, ticketID int64) error {
	ticket, err := s.bookingRepo.GetTicketByID(ticketID)
	if err != nil {
		return apperrors.Internal("failed to look up ticket", err)
	}
	if ticket == nil {
		return apperrors.NotFound("ticket %d not found", ticketID)
	}

	booking, err := s.bookingRepo.GetBookingByID(ticket.BookingID)
	if err != nil {
		return apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil {
		return apperrors.NotFound("booking %d not found", ticket.BookingID)
	}
	if booking.UserID != userID && !isStaff {
		return apperrors.Forbidden("ticket %d belongs to another passenger", ticketID)
	}
	if booking.Status == models.BookingStatusCancelled {
		return apperrors.Conflict("booking %s is already cancelled", booking.PNR)
	}

	flight, err := s.flightRepo.GetFlightByID(booking.FlightID)
	if err != nil {
		return apperrors.Internal("failed to look up flight", err)
	}
	if flight != nil {
		if err := s.checkCancellationDeadline(flight, isStaff); err != nil {
			return err
		}
	}

	ticketCount, err := s.bookingRepo.CountTicketsByBookingID(booking.ID)
	if err != nil {
		return apperrors.Internal("failed to count tickets", err)
	}
	remaining := ticketCount - 1

	tx, err := s.db.Beginx()
	if err != nil {
		return apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.checkInRepo.DeleteCheckInByTicketID(tx, ticket.ID); err != nil {
		return apperrors.Internal("failed to remove check-in", err)
	}
	if err := s.bookingRepo.DeleteTicket(tx, ticket.ID); err != nil {
		return apperrors.Internal("failed to delete ticket", err)
	}
	if err := s.seatRepo.ReleaseSeatsTx(tx, []int64{ticket.SeatID}); err != nil {
		return apperrors.Internal("failed to release seat", err)
	}
	if remaining <= 0 {
		if err := s.bookingRepo.UpdateBookingStatusTx(tx, booking.ID, models.BookingStatusCancelled); err != nil {
			return apperrors.Internal("failed to cancel booking", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit ticket cancellation", err)
	}

	if remaining <= 0 {
		booking.Status = models.BookingStatusCancelled
		bookingsCancelledTotal.WithLabelValues("last_ticket").Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id":  ticket.ID,
		"booking_id": booking.ID,
		"remaining":  remaining,
	}).Info("Ticket cancelled")

	return nil
}

// ReassignSeat moves a ticket to a different seat on the same
// airplane. Staff only. The old seat is released and the new one
// takes over the booking's standing.
func (s *BookingService) ReassignSeat(ticketID, newSeatID int64) (*models.TicketWithSeat, error) {
	ticket, err := s.bookingRepo.GetTicketByID(ticketID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up ticket", err)
	}
	if ticket == nil {
		return nil, apperrors.NotFound("ticket %d not found", ticketID)
	}
	if ticket.SeatID == newSeatID {
		return ticket, nil
	}

	booking, err := s.bookingRepo.GetBookingByID(ticket.BookingID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	if booking == nil || booking.Status == models.BookingStatusCancelled {
		return nil, apperrors.Conflict("ticket %d belongs to a cancelled booking", ticketID)
	}

	flight, err := s.flightRepo.GetFlightByID(booking.FlightID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight == nil {
		return nil, apperrors.Internal("flight missing for booking", nil)
	}
	if err := s.checkCancellationDeadline(flight, true); err != nil {
		return nil, err
	}

	newSeat, err := s.seatRepo.GetSeatByID(newSeatID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up seat", err)
	}
	if newSeat == nil {
		return nil, apperrors.NotFound("seat %d not found", newSeatID)
	}
	if newSeat.AirplaneID != flight.AirplaneID {
		return nil, apperrors.PreconditionFailed("seat %s does not belong to flight %s", newSeat.SeatNumber, flight.FlightNumber)
	}

	occupied, err := s.bookingRepo.IsSeatBookedOnFlight(flight.ID, newSeatID)
	if err != nil {
		return nil, apperrors.Internal("failed to check seat occupancy", err)
	}
	if occupied {
		return nil, apperrors.Conflict("seat %s is taken by another booking", newSeat.SeatNumber)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.UpdateTicketSeat(tx, ticket.ID, newSeatID); err != nil {
		return nil, apperrors.Internal("failed to reassign seat", err)
	}
	if err := s.seatRepo.ReleaseSeatsTx(tx, []int64{ticket.SeatID}); err != nil {
		return nil, apperrors.Internal("failed to release old seat", err)
	}

	// The new seat inherits the booking's standing: booked for a
	// confirmed booking, held with a fresh window otherwise.
	if booking.Status == models.BookingStatusConfirmed {
		err = s.seatRepo.UpdateSeatStatus(tx, newSeatID, models.SeatStatusBooked, nil)
	} else {
		heldUntil := s.now().Add(s.cfg.SeatHoldWindow)
		err = s.seatRepo.UpdateSeatStatus(tx, newSeatID, models.SeatStatusHeld, &heldUntil)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update new seat", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit seat reassignment", err)
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"from_seat": ticket.SeatID,
		"to_seat":   newSeatID,
	}).Info("Seat reassigned")

	if err := s.notifier.Notify(booking.UserID, &booking.FlightID, titleSeatChanged,
		fmt.Sprintf("Your seat on flight %s was changed from %s to %s.",
			flight.FlightNumber, ticket.Seat.SeatNumber, newSeat.SeatNumber)); err != nil {
		s.logger.WithError(err).Warn("Failed to send seat change notification")
	}

	return s.bookingRepo.GetTicketByID(ticket.ID)
}

// ExpireStaleBookings cancels every unpaid booking whose payment
// window has lapsed and releases its seats. Returns how many bookings
// were expired.
func (s *BookingService) ExpireStaleBookings() (int, error) {
	cutoff := s.now().Add(-s.cfg.SeatHoldWindow)
	bookings, err := s.bookingRepo.ListExpiredBookings(cutoff)
	if err != nil {
		return 0, apperrors.Internal("failed to list expired bookings", err)
	}

	expired := 0
	for i := range bookings {
		if err := s.expireBooking(&bookings[i]); err != nil {
			s.logger.WithError(err).WithField("booking_id", bookings[i].ID).Error("Failed to expire booking")
			continue
		}
		expired++
	}

	return expired, nil
}

// expireBooking cancels one lapsed booking, releases its seats and
// tells the passenger
func (s *BookingService) expireBooking(booking *models.Booking) error {
	if !booking.Status.CanTransition(models.BookingStatusCancelled) {
		return apperrors.Conflict("booking %s is already cancelled", booking.PNR)
	}

	seatIDs, err := s.bookingRepo.GetSeatIDsByBookingID(booking.ID)
	if err != nil {
		return apperrors.Internal("failed to list booking seats", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// Release only the seats this booking still holds. A seat whose
	// lapsed hold was already swept may belong to another booking by
	// now, and that booking keeps it.
	seats, err := s.seatRepo.GetSeatsForUpdate(tx, seatIDs)
	if err != nil {
		return apperrors.Internal("failed to lock seats", err)
	}
	heldIDs := make([]int64, 0, len(seats))
	for i := range seats {
		if seats[i].Status == models.SeatStatusHeld {
			heldIDs = append(heldIDs, seats[i].ID)
		}
	}

	if err := s.bookingRepo.UpdateBookingStatusTx(tx, booking.ID, models.BookingStatusCancelled); err != nil {
		return apperrors.Internal("failed to update booking status", err)
	}
	if err := s.seatRepo.ReleaseSeatsTx(tx, heldIDs); err != nil {
		return apperrors.Internal("failed to release seats", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit booking expiry", err)
	}
	booking.Status = models.BookingStatusCancelled

	bookingsExpiredTotal.Inc()
	seatHoldsReleasedTotal.Add(float64(len(heldIDs)))

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"pnr":        booking.PNR,
	}).Info("Booking expired")

	if err := s.notifier.Notify(booking.UserID, &booking.FlightID, titleBookingExpired,
		fmt.Sprintf("Your booking %s expired because it was not paid in time. The seats have been released.", booking.PNR)); err != nil {
		s.logger.WithError(err).Warn("Failed to send expiry notification")
	}

	return nil
}

// buildDetail assembles the full booking view
func (s *BookingService) buildDetail(booking *models.Booking) (*models.BookingDetail, error) {
	flight, err := s.flightRepo.GetFlightByID(booking.FlightID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up flight", err)
	}
	if flight == nil {
		return nil, apperrors.Internal("flight missing for booking", nil)
	}

	departureAirport, err := s.airportRepo.GetAirportByID(flight.DepartureAirportID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up airport", err)
	}
	arrivalAirport, err := s.airportRepo.GetAirportByID(flight.ArrivalAirportID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up airport", err)
	}

	tickets, err := s.bookingRepo.GetTicketsByBookingID(booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tickets", err)
	}
	if tickets == nil {
		tickets = []models.TicketWithSeat{}
	}

	payments, err := s.paymentRepo.ListPaymentsByBooking(booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list payments", err)
	}
	if payments == nil {
		payments = []models.Payment{}
	}

	detail := &models.BookingDetail{
		Booking: *booking,
		Flight: models.FlightWithAirports{
			Flight: *flight,
		},
		Tickets:  tickets,
		Payments: payments,
	}
	if departureAirport != nil {
		detail.Flight.DepartureAirport = *departureAirport
	}
	if arrivalAirport != nil {
		detail.Flight.ArrivalAirport = *arrivalAirport
	}
	return detail, nil
}
