package models

import "time"

// Notification is one in-app message for a passenger
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	FlightID  *int64    `json:"flight_id,omitempty" db:"flight_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Announcement is a staff-authored message attached to a flight
type Announcement struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Content         string    `json:"content" db:"content"`
	FlightID        int64     `json:"flight_id" db:"flight_id"`
	CreatedByUserID int64     `json:"created_by_user_id" db:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CreateAnnouncementRequest is the staff request body for announcements
type CreateAnnouncementRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	FlightID int64  `json:"flight_id" binding:"required"`
}

// SendNotificationRequest lets staff message a single user or, when
// UserID is zero, every passenger with an active booking on FlightID.
type SendNotificationRequest struct {
	UserID   int64  `json:"user_id"`
	FlightID *int64 `json:"flight_id"`
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
}
