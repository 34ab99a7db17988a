package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/airhive/airline-backend/internal/models"
)

// UserRepository handles user and passenger profile database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateUser creates a new user with the given role
func (r *UserRepository) CreateUser(email, hashedPassword string, role models.UserRole) (*models.User, error) {
	user := &models.User{
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
	}

	query := `
		INSERT INTO users (email, hashed_password, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, email, hashedPassword, role, time.Now()).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	query := `
		SELECT id, email, hashed_password, role, created_at
		FROM users
		WHERE email = $1
	`

	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	var user models.User

	query := `
		SELECT id, email, hashed_password, role, created_at
		FROM users
		WHERE id = $1
	`

	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetProfileByUserID retrieves a passenger profile by user ID
func (r *UserRepository) GetProfileByUserID(userID int64) (*models.PassengerProfile, error) {
	var profile models.PassengerProfile

	query := `
		SELECT id, user_id, first_name, last_name, date_of_birth,
		       passport_number, phone, nationality, email,
		       created_at, updated_at
		FROM passenger_profiles
		WHERE user_id = $1
	`

	err := r.db.Get(&profile, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get passenger profile: %w", err)
	}

	return &profile, nil
}

// UpsertProfile creates or replaces the passenger profile for a user
func (r *UserRepository) UpsertProfile(userID int64, req *models.UpsertProfileRequest) (*models.PassengerProfile, error) {
	profile := &models.PassengerProfile{
		UserID:         userID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    req.DateOfBirth,
		PassportNumber: req.PassportNumber,
		Phone:          req.Phone,
		Nationality:    req.Nationality,
		Email:          req.Email,
	}

	query := `
		INSERT INTO passenger_profiles (
			user_id, first_name, last_name, date_of_birth,
			passport_number, phone, nationality, email,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			date_of_birth = EXCLUDED.date_of_birth,
			passport_number = EXCLUDED.passport_number,
			phone = EXCLUDED.phone,
			nationality = EXCLUDED.nationality,
			email = EXCLUDED.email,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		userID,
		req.FirstName,
		req.LastName,
		req.DateOfBirth,
		req.PassportNumber,
		req.Phone,
		req.Nationality,
		req.Email,
		time.Now(),
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert passenger profile: %w", err)
	}

	return profile, nil
}
