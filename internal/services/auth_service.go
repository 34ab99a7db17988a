package services

import (
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/models"
	"github.com/airhive/airline-backend/pkg/jwt"
)

// AuthService handles registration, login and passenger profiles
type AuthService struct {
	userRepo   *database.UserRepository
	jwtService *jwt.Service
	logger     *logrus.Logger
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo *database.UserRepository,
	jwtService *jwt.Service,
	cfg config.SecurityConfig,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new account. The role defaults to PASSENGER when
// the request leaves it empty.
func (s *AuthService) Register(req *models.RegisterRequest) (*models.User, error) {
	existing, err := s.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		return nil, apperrors.Internal("failed to look up user", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("email %s is already registered", req.Email)
	}

	role := req.Role
	if role == "" {
		role = models.UserRolePassenger
	}
	if role != models.UserRolePassenger && role != models.UserRoleStaff {
		return nil, apperrors.Conflict("unknown role %s", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user, err := s.userRepo.CreateUser(req.Email, string(hash), role)
	if err != nil {
		return nil, apperrors.Internal("failed to create user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return user, nil
}

// Login verifies credentials and returns a signed access token
func (s *AuthService) Login(req *models.LoginRequest, userAgent string) (string, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		return "", nil, apperrors.Internal("failed to look up user", err)
	}
	if user == nil {
		return "", nil, apperrors.Forbidden("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return "", nil, apperrors.Forbidden("invalid email or password")
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, apperrors.Internal("failed to generate token", err)
	}

	ua := user_agent.New(userAgent)
	browser, _ := ua.Browser()
	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"os":      ua.OS(),
		"browser": browser,
		"mobile":  ua.Mobile(),
	}).Info("User logged in")

	return token, user, nil
}

// GetUser returns the account for an authenticated user ID
func (s *AuthService) GetUser(userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user %d not found", userID)
	}
	return user, nil
}

// GetProfile returns the caller's passenger profile
func (s *AuthService) GetProfile(userID int64) (*models.PassengerProfile, error) {
	profile, err := s.userRepo.GetProfileByUserID(userID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up profile", err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("profile not found")
	}
	return profile, nil
}

// UpsertProfile creates or replaces the caller's passenger profile.
// A complete profile is a precondition for booking.
func (s *AuthService) UpsertProfile(userID int64, req *models.UpsertProfileRequest) (*models.PassengerProfile, error) {
	profile, err := s.userRepo.UpsertProfile(userID, req)
	if err != nil {
		return nil, apperrors.Internal("failed to save profile", err)
	}

	s.logger.WithField("user_id", userID).Info("Passenger profile saved")

	return profile, nil
}
