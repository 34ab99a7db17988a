package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
)

// ReconciliationService runs the periodic sweep that keeps the system
// consistent with the clock: flight statuses advance, unpaid bookings
// expire and check-in reminders go out. The three steps always run in
// that order so a flight cancellation is observed before bookings are
// touched.
type ReconciliationService struct {
	flightService  *FlightService
	bookingService *BookingService
	notifier       *NotificationService
	flightRepo     *database.FlightRepository
	bookingRepo    *database.BookingRepository
	cfg            config.BookingConfig
	logger         *logrus.Logger
	stopCh         chan struct{}
	interval       time.Duration
	now            func() time.Time
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	flightService *FlightService,
	bookingService *BookingService,
	notifier *NotificationService,
	flightRepo *database.FlightRepository,
	bookingRepo *database.BookingRepository,
	bookingCfg config.BookingConfig,
	schedulerCfg config.SchedulerConfig,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		flightService:  flightService,
		bookingService: bookingService,
		notifier:       notifier,
		flightRepo:     flightRepo,
		bookingRepo:    bookingRepo,
		cfg:            bookingCfg,
		logger:         logger,
		stopCh:         make(chan struct{}),
		interval:       schedulerCfg.Interval,
		now:            time.Now,
	}
}

// Start begins the background sweep
func (s *ReconciliationService) Start() {
	s.logger.WithField("interval", s.interval).Info("Starting reconciliation service")
	go s.run()
}

// Stop stops the background sweep
func (s *ReconciliationService) Stop() {
	s.logger.Info("Stopping reconciliation service")
	close(s.stopCh)
}

func (s *ReconciliationService) run() {
	// Run immediately on start
	s.RunOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.stopCh:
			s.logger.Info("Reconciliation service stopped")
			return
		}
	}
}

// RunOnce executes a single sweep. Each step tolerates failures in
// the others.
func (s *ReconciliationService) RunOnce() {
	reconciliationRunsTotal.Inc()

	transitions, err := s.flightService.ProcessAutomaticUpdates()
	if err != nil {
		s.logger.WithError(err).Error("Flight status sweep failed")
	} else if len(transitions) > 0 {
		s.logger.WithField("transitions", len(transitions)).Info("Advanced flight statuses")
	}

	expired, err := s.bookingService.ExpireStaleBookings()
	if err != nil {
		s.logger.WithError(err).Error("Booking expiry sweep failed")
	} else if expired > 0 {
		s.logger.WithField("expired", expired).Info("Expired unpaid bookings")
	}

	if reminders := s.sendCheckInReminders(); reminders > 0 {
		s.logger.WithField("reminders", reminders).Info("Sent check-in reminders")
	}
}

// sendCheckInReminders reminds confirmed passengers whose flight
// departs inside the check-in window. Deduplicated per passenger and
// flight.
func (s *ReconciliationService) sendCheckInReminders() int {
	flights, err := s.flightRepo.ListFlightsByStatuses([]models.FlightStatus{
		models.FlightStatusScheduled,
		models.FlightStatusDelayed,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list flights for reminders")
		return 0
	}

	now := s.now()
	sent := 0

	for i := range flights {
		flight := &flights[i]
		untilDeparture := flight.DepartureTime.Sub(now)
		if untilDeparture < s.cfg.CheckInCloseBefore || untilDeparture > s.cfg.CheckInOpenBefore {
			continue
		}

		bookings, err := s.bookingRepo.ListBookingsByFlightAndStatus(flight.ID, []models.BookingStatus{
			models.BookingStatusConfirmed,
		})
		if err != nil {
			s.logger.WithError(err).WithField("flight_id", flight.ID).Error("Failed to list bookings for reminders")
			continue
		}

		reminded := make(map[int64]bool)
		for _, booking := range bookings {
			if reminded[booking.UserID] {
				continue
			}
			reminded[booking.UserID] = true

			wasSent, err := s.notifier.SendCheckInReminder(booking.UserID, flight)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"flight_id": flight.ID,
					"user_id":   booking.UserID,
				}).Error("Failed to send check-in reminder")
				continue
			}
			if wasSent {
				sent++
			}
		}
	}

	return sent
}
