package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/kafka"
	"github.com/airhive/airline-backend/internal/models"
)

// Notification titles. HasNotification dedupes on these, so reminder
// titles must stay stable.
const (
	titleBookingCreated   = "Booking Created"
	titleBookingConfirmed = "Booking Confirmed"
	titleBookingCancelled = "Booking Cancelled"
	titleBookingExpired   = "Booking Expired"
	titleFlightDelayed    = "Flight Delayed"
	titleFlightCancelled  = "Flight Cancelled"
	titleFlightBoarding   = "Boarding Started"
	titleFlightDeparted   = "Flight Departed"
	titleGateChanged      = "Gate Changed"
	titleSeatChanged      = "Seat Changed"
	titleCheckInReminder  = "Check-in Reminder"
	titleAnnouncement     = "Flight Announcement"
)

// NotificationService stores in-app notifications and mirrors them to
// the event stream
type NotificationService struct {
	notificationRepo *database.NotificationRepository
	bookingRepo      *database.BookingRepository
	producer         *kafka.Producer
	logger           *logrus.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo *database.NotificationRepository,
	bookingRepo *database.BookingRepository,
	producer *kafka.Producer,
	logger *logrus.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		bookingRepo:      bookingRepo,
		producer:         producer,
		logger:           logger,
	}
}

// Notify stores one notification and publishes it to the event stream.
// Publishing is best effort and never fails the caller.
func (s *NotificationService) Notify(userID int64, flightID *int64, title, content string) error {
	notification := &models.Notification{
		UserID:   userID,
		FlightID: flightID,
		Title:    title,
		Content:  content,
	}

	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		return apperrors.Internal("failed to store notification", err)
	}

	notificationsSentTotal.WithLabelValues(title).Inc()

	event := kafka.NotificationEvent{
		Type:      "notification.created",
		UserID:    userID,
		FlightID:  flightID,
		Title:     title,
		Content:   content,
		CreatedAt: notification.CreatedAt,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.producer.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to publish notification event")
	}

	return nil
}

// NotifyFlightPassengers sends the same notification to every
// passenger holding an active booking on the flight
func (s *NotificationService) NotifyFlightPassengers(flightID int64, title, content string) {
	bookings, err := s.bookingRepo.ListBookingsByFlightAndStatus(flightID, models.ActiveBookingStatuses)
	if err != nil {
		s.logger.WithError(err).WithField("flight_id", flightID).Error("Failed to list bookings for notification")
		return
	}

	notified := make(map[int64]bool)
	for _, booking := range bookings {
		if notified[booking.UserID] {
			continue
		}
		notified[booking.UserID] = true

		if err := s.Notify(booking.UserID, &flightID, title, content); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"flight_id": flightID,
				"user_id":   booking.UserID,
			}).Error("Failed to notify passenger")
		}
	}
}

// NotifyFlightTransition sends the template matching an automatic
// status change
func (s *NotificationService) NotifyFlightTransition(flight *models.Flight, newStatus models.FlightStatus) {
	switch newStatus {
	case models.FlightStatusBoarding:
		s.NotifyFlightPassengers(flight.ID, titleFlightBoarding,
			fmt.Sprintf("Flight %s is now boarding at gate %s.", flight.FlightNumber, flight.Gate))
	case models.FlightStatusDeparted:
		s.NotifyFlightPassengers(flight.ID, titleFlightDeparted,
			fmt.Sprintf("Flight %s has departed.", flight.FlightNumber))
	case models.FlightStatusCancelled:
		s.NotifyFlightPassengers(flight.ID, titleFlightCancelled,
			fmt.Sprintf("Flight %s has been cancelled. Your booking has been cancelled and your seats released.", flight.FlightNumber))
	}
}

// NotifyFlightDelay tells passengers about the new departure time
func (s *NotificationService) NotifyFlightDelay(flight *models.Flight) {
	s.NotifyFlightPassengers(flight.ID, titleFlightDelayed,
		fmt.Sprintf("Flight %s is delayed. New departure time: %s.",
			flight.FlightNumber, flight.DepartureTime.UTC().Format(time.RFC3339)))
}

// NotifyGateChange tells passengers about the new gate
func (s *NotificationService) NotifyGateChange(flight *models.Flight) {
	s.NotifyFlightPassengers(flight.ID, titleGateChanged,
		fmt.Sprintf("Flight %s now departs from gate %s.", flight.FlightNumber, flight.Gate))
}

// SendCheckInReminder reminds one passenger to check in. Sent at most
// once per passenger and flight.
func (s *NotificationService) SendCheckInReminder(userID int64, flight *models.Flight) (bool, error) {
	sent, err := s.notificationRepo.HasNotification(userID, flight.ID, titleCheckInReminder)
	if err != nil {
		return false, apperrors.Internal("failed to check reminder state", err)
	}
	if sent {
		return false, nil
	}

	content := fmt.Sprintf("Check-in is open for flight %s departing at %s. Check in before %s.",
		flight.FlightNumber,
		flight.DepartureTime.UTC().Format(time.RFC3339),
		flight.DepartureTime.Add(-time.Hour).UTC().Format(time.RFC3339))

	if err := s.Notify(userID, &flight.ID, titleCheckInReminder, content); err != nil {
		return false, err
	}
	return true, nil
}

// ListMyNotifications returns the caller's notifications, newest first
func (s *NotificationService) ListMyNotifications(userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListNotificationsByUser(userID, unreadOnly, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list notifications", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead marks one of the caller's notifications as read
func (s *NotificationService) MarkRead(userID, notificationID int64) error {
	if err := s.notificationRepo.MarkNotificationRead(notificationID, userID); err != nil {
		return apperrors.NotFound("notification %d not found", notificationID)
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller as read
func (s *NotificationService) MarkAllRead(userID int64) (int64, error) {
	updated, err := s.notificationRepo.MarkAllNotificationsRead(userID)
	if err != nil {
		return 0, apperrors.Internal("failed to mark notifications read", err)
	}
	return updated, nil
}

// CreateAnnouncement stores a staff announcement and fans it out to
// the flight's passengers
func (s *NotificationService) CreateAnnouncement(staffUserID int64, req *models.CreateAnnouncementRequest) (*models.Announcement, error) {
	announcement := &models.Announcement{
		Title:           req.Title,
		Content:         req.Content,
		FlightID:        req.FlightID,
		CreatedByUserID: staffUserID,
	}

	if err := s.notificationRepo.CreateAnnouncement(announcement); err != nil {
		return nil, apperrors.Internal("failed to store announcement", err)
	}

	s.NotifyFlightPassengers(req.FlightID, titleAnnouncement,
		fmt.Sprintf("%s: %s", req.Title, req.Content))

	return announcement, nil
}

// ListAnnouncements returns a flight's announcements, newest first
func (s *NotificationService) ListAnnouncements(flightID int64) ([]models.Announcement, error) {
	announcements, err := s.notificationRepo.ListAnnouncementsByFlight(flightID)
	if err != nil {
		return nil, apperrors.Internal("failed to list announcements", err)
	}
	if announcements == nil {
		announcements = []models.Announcement{}
	}
	return announcements, nil
}

// SendDirect lets staff message a single user or every passenger of a
// flight when no user is given
func (s *NotificationService) SendDirect(req *models.SendNotificationRequest) error {
	if req.UserID != 0 {
		return s.Notify(req.UserID, req.FlightID, req.Title, req.Content)
	}
	if req.FlightID == nil {
		return apperrors.PreconditionFailed("either user_id or flight_id is required")
	}
	s.NotifyFlightPassengers(*req.FlightID, req.Title, req.Content)
	return nil
}
