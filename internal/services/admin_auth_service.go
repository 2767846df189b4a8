package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/smarttransit/shuttle-tracking-backend/internal/database"
	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
	"github.com/smarttransit/shuttle-tracking-backend/pkg/jwt"
)

// AdminAuthService handles admin authentication business logic
type AdminAuthService struct {
	adminRepo            *database.AdminRepository
	refreshTokenRepo     *database.AdminRefreshTokenRepository
	jwtService           *jwt.Service
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	logger               *logrus.Logger
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(
	adminRepo *database.AdminRepository,
	refreshTokenRepo *database.AdminRefreshTokenRepository,
	jwtService *jwt.Service,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
	logger *logrus.Logger,
) *AdminAuthService {
	return &AdminAuthService{
		adminRepo:            adminRepo,
		refreshTokenRepo:     refreshTokenRepo,
		jwtService:           jwtService,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
		logger:               logger,
	}
}

// Login authenticates an admin user and returns tokens. Device metadata is
// stored with the refresh token for session auditing.
func (s *AdminAuthService) Login(username, password, deviceType, ipAddress, userAgent string) (*models.AdminLoginResponse, error) {
	// Get admin user by username
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("invalid username or password")
	}

	// Check if admin is active
	if !admin.IsActive {
		return nil, fmt.Errorf("account is inactive")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid username or password")
	}

	// Generate access token with admin role
	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Username, []string{"admin"})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// Generate refresh token
	refreshToken, err := s.jwtService.GenerateRefreshToken(admin.ID, admin.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Store refresh token in database
	expiresAt := time.Now().Add(s.refreshTokenDuration)
	if err := s.refreshTokenRepo.Store(admin.ID, refreshToken, deviceType, ipAddress, userAgent, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	// Update last login
	if err := s.adminRepo.UpdateLastLogin(admin.ID); err != nil {
		// Log but don't fail the login
		s.logger.WithError(err).WithField("admin_id", admin.ID).Warn("Failed to update last login")
	}

	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
		AdminUser:    admin,
	}, nil
}

// RefreshToken generates a new access token from a refresh token
func (s *AdminAuthService) RefreshToken(refreshToken string) (*models.AdminLoginResponse, error) {
	// Validate refresh token
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// Check if refresh token is revoked or expired
	storedToken, err := s.refreshTokenRepo.Get(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token not found")
	}

	if storedToken.Revoked {
		return nil, fmt.Errorf("refresh token has been revoked")
	}

	if time.Now().After(storedToken.ExpiresAt) {
		return nil, fmt.Errorf("refresh token has expired")
	}

	// Get admin user
	admin, err := s.adminRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("admin user not found")
	}

	// Check if admin is still active
	if !admin.IsActive {
		return nil, fmt.Errorf("account is inactive")
	}

	// Generate new access token
	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Username, []string{"admin"})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// Update last used timestamp
	if err := s.refreshTokenRepo.UpdateLastUsed(refreshToken); err != nil {
		s.logger.WithError(err).Warn("Failed to update refresh token last used")
	}

	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
		AdminUser:    admin,
	}, nil
}

// Logout revokes the refresh token
func (s *AdminAuthService) Logout(refreshToken string) error {
	return s.refreshTokenRepo.Revoke(refreshToken)
}

// ChangePassword changes an admin user's password and revokes existing
// sessions.
func (s *AdminAuthService) ChangePassword(adminID uuid.UUID, oldPassword, newPassword string) error {
	// Get admin user
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return fmt.Errorf("admin user not found")
	}

	// Verify old password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("incorrect old password")
	}

	// Hash new password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Update password
	if err := s.adminRepo.UpdatePassword(adminID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Force re-login on every device
	if err := s.refreshTokenRepo.RevokeAllForAdmin(adminID); err != nil {
		s.logger.WithError(err).WithField("admin_id", adminID).Warn("Failed to revoke refresh tokens")
	}

	return nil
}

// CreateAdmin creates a new admin user
func (s *AdminAuthService) CreateAdmin(username, password, fullName string, createdBy uuid.UUID) (*models.AdminUser, error) {
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.AdminUser{
		Username:     username,
		PasswordHash: string(hashedPassword),
		FullName:     fullName,
		IsActive:     true,
		CreatedBy:    &createdBy,
	}

	if err := s.adminRepo.Create(admin); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	return admin, nil
}

// GetAdminProfile retrieves admin user profile
func (s *AdminAuthService) GetAdminProfile(adminID uuid.UUID) (*models.AdminUser, error) {
	return s.adminRepo.GetByID(adminID)
}

// ListAdmins retrieves all admin users
func (s *AdminAuthService) ListAdmins() ([]*models.AdminUser, error) {
	return s.adminRepo.List()
}
