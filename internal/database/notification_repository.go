package database

import (
	"fmt"
	"time"

	"github.com/airhive/airline-backend/internal/models"
)

// NotificationRepository handles notification and announcement
// database operations
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// CreateNotification stores an in-app notification for a user
func (r *NotificationRepository) CreateNotification(notification *models.Notification) error {
	notification.CreatedAt = time.Now()

	query := `
		INSERT INTO notifications (user_id, flight_id, title, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		notification.UserID,
		notification.FlightID,
		notification.Title,
		notification.Content,
		notification.CreatedAt,
	).Scan(&notification.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListNotificationsByUser retrieves a user's notifications, newest
// first. unreadOnly narrows to unread rows and limit caps the result
// when positive.
func (r *NotificationRepository) ListNotificationsByUser(userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	var notifications []models.Notification

	query := `
		SELECT id, user_id, flight_id, title, content, is_read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += " AND is_read = false"
	}
	query += " ORDER BY created_at DESC"

	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	err := r.db.Select(&notifications, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkAllNotificationsRead marks every unread notification of a user
// as read and returns how many were updated
func (r *NotificationRepository) MarkAllNotificationsRead(userID int64) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND is_read = false
	`

	result, err := r.db.Exec(query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// MarkNotificationRead marks a user's notification as read
func (r *NotificationRepository) MarkNotificationRead(id, userID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("notification not found")
	}

	return nil
}

// HasNotification reports whether the user already received a
// notification with the given title for the flight. Used to send
// check-in reminders at most once per passenger and flight.
func (r *NotificationRepository) HasNotification(userID, flightID int64, title string) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS(
			SELECT 1
			FROM notifications
			WHERE user_id = $1
			  AND flight_id = $2
			  AND title = $3
		)
	`

	err := r.db.QueryRow(query, userID, flightID, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}

	return exists, nil
}

// CreateAnnouncement stores a staff announcement for a flight
func (r *NotificationRepository) CreateAnnouncement(announcement *models.Announcement) error {
	announcement.CreatedAt = time.Now()

	query := `
		INSERT INTO announcements (title, content, flight_id, created_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		announcement.Title,
		announcement.Content,
		announcement.FlightID,
		announcement.CreatedByUserID,
		announcement.CreatedAt,
	).Scan(&announcement.ID)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}

	return nil
}

// ListAnnouncementsByFlight retrieves a flight's announcements,
// newest first
func (r *NotificationRepository) ListAnnouncementsByFlight(flightID int64) ([]models.Announcement, error) {
	var announcements []models.Announcement

	query := `
		SELECT id, title, content, flight_id, created_by_user_id, created_at
		FROM announcements
		WHERE flight_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&announcements, query, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}

	return announcements, nil
}
