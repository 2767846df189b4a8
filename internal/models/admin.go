package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser represents an administrator account.
type AdminUser struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedBy    *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AdminRefreshToken is a stored refresh token with device metadata.
type AdminRefreshToken struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	AdminID    uuid.UUID  `db:"admin_id" json:"admin_id"`
	Token      string     `db:"token" json:"-"`
	DeviceType string     `db:"device_type" json:"device_type"`
	IPAddress  string     `db:"ip_address" json:"ip_address"`
	UserAgent  string     `db:"user_agent" json:"user_agent"`
	Revoked    bool       `db:"revoked" json:"revoked"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// AdminLoginRequest is the login payload.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse carries issued tokens and the authenticated admin.
type AdminLoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	AdminUser    *AdminUser `json:"admin_user"`
}

// AdminRefreshRequest is the refresh/logout payload.
type AdminRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AdminChangePasswordRequest is the password change payload.
type AdminChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// AdminCreateRequest is the payload for creating a new admin account.
type AdminCreateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}
