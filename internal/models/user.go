package models

import "time"

// UserRole represents a user's role in the system
type UserRole string

const (
	UserRolePassenger UserRole = "PASSENGER"
	UserRoleStaff     UserRole = "STAFF"
)

// User represents an account that can log in
type User struct {
	ID             int64     `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	Role           UserRole  `json:"role" db:"role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// IsStaff reports whether the user holds the staff role.
func (u *User) IsStaff() bool {
	return u.Role == UserRoleStaff
}

// PassengerProfile holds the personal data required before booking
type PassengerProfile struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	DateOfBirth    time.Time `json:"date_of_birth" db:"date_of_birth"`
	PassportNumber string    `json:"passport_number" db:"passport_number"`
	Phone          string    `json:"phone" db:"phone"`
	Nationality    string    `json:"nationality" db:"nationality"`
	Email          string    `json:"email,omitempty" db:"email"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterRequest is the request body for user registration
type RegisterRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpsertProfileRequest creates or replaces the caller's passenger profile
type UpsertProfileRequest struct {
	FirstName      string    `json:"first_name" binding:"required"`
	LastName       string    `json:"last_name" binding:"required"`
	DateOfBirth    time.Time `json:"date_of_birth" binding:"required"`
	PassportNumber string    `json:"passport_number" binding:"required"`
	Phone          string    `json:"phone"`
	Nationality    string    `json:"nationality"`
	Email          string    `json:"email"`
}
