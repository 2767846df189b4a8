package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
)

// AdminRefreshTokenRepository handles stored admin refresh tokens
type AdminRefreshTokenRepository struct {
	db DB
}

// NewAdminRefreshTokenRepository creates a new admin refresh token repository
func NewAdminRefreshTokenRepository(db DB) *AdminRefreshTokenRepository {
	return &AdminRefreshTokenRepository{
		db: db,
	}
}

// Store persists a refresh token with its device metadata
func (r *AdminRefreshTokenRepository) Store(adminID uuid.UUID, token, deviceType, ipAddress, userAgent string, expiresAt time.Time) error {
	query := `
		INSERT INTO admin_refresh_tokens (
			id, admin_id, token, device_type, ip_address, user_agent,
			revoked, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)
	`

	_, err := r.db.Exec(query, uuid.New(), adminID, token, deviceType, ipAddress, userAgent, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// Get returns a stored refresh token
func (r *AdminRefreshTokenRepository) Get(token string) (*models.AdminRefreshToken, error) {
	var stored models.AdminRefreshToken

	query := `SELECT * FROM admin_refresh_tokens WHERE token = $1`
	if err := r.db.Get(&stored, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token not found")
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &stored, nil
}

// UpdateLastUsed records that the token was exchanged for an access token
func (r *AdminRefreshTokenRepository) UpdateLastUsed(token string) error {
	query := `UPDATE admin_refresh_tokens SET last_used_at = $2 WHERE token = $1`

	if _, err := r.db.Exec(query, token, time.Now()); err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}

	return nil
}

// Revoke marks a token as revoked
func (r *AdminRefreshTokenRepository) Revoke(token string) error {
	query := `UPDATE admin_refresh_tokens SET revoked = true WHERE token = $1`

	result, err := r.db.Exec(query, token)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check revoke result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("refresh token not found")
	}

	return nil
}

// RevokeAllForAdmin revokes every token belonging to an admin
func (r *AdminRefreshTokenRepository) RevokeAllForAdmin(adminID uuid.UUID) error {
	query := `UPDATE admin_refresh_tokens SET revoked = true WHERE admin_id = $1 AND revoked = false`

	if _, err := r.db.Exec(query, adminID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	return nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (r *AdminRefreshTokenRepository) DeleteExpired(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM admin_refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}

	return rows, nil
}
