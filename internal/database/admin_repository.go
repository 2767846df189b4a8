package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
)

// AdminRepository handles admin user database operations
type AdminRepository struct {
	db DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db DB) *AdminRepository {
	return &AdminRepository{
		db: db,
	}
}

// GetByUsername returns an admin user by username
func (r *AdminRepository) GetByUsername(username string) (*models.AdminUser, error) {
	var admin models.AdminUser

	query := `SELECT * FROM admins WHERE username = $1`
	if err := r.db.Get(&admin, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("admin user not found")
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &admin, nil
}

// GetByID returns an admin user by id
func (r *AdminRepository) GetByID(id uuid.UUID) (*models.AdminUser, error) {
	var admin models.AdminUser

	query := `SELECT * FROM admins WHERE id = $1`
	if err := r.db.Get(&admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("admin user not found")
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &admin, nil
}

// Create inserts a new admin user
func (r *AdminRepository) Create(admin *models.AdminUser) error {
	admin.ID = uuid.New()
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = admin.CreatedAt

	query := `
		INSERT INTO admins (
			id, username, password_hash, full_name,
			is_active, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		admin.ID,
		admin.Username,
		admin.PasswordHash,
		admin.FullName,
		admin.IsActive,
		admin.CreatedBy,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// List returns all admin users ordered by username
func (r *AdminRepository) List() ([]*models.AdminUser, error) {
	var admins []*models.AdminUser

	query := `SELECT * FROM admins ORDER BY username`
	if err := r.db.Select(&admins, query); err != nil {
		return nil, fmt.Errorf("failed to list admin users: %w", err)
	}

	return admins, nil
}

// UpdateLastLogin records a successful login
func (r *AdminRepository) UpdateLastLogin(id uuid.UUID) error {
	query := `UPDATE admins SET last_login_at = $2, updated_at = $2 WHERE id = $1`

	if _, err := r.db.Exec(query, id, time.Now()); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *AdminRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	query := `UPDATE admins SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(query, id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("admin user not found")
	}

	return nil
}

// SetActive toggles an admin account
func (r *AdminRepository) SetActive(id uuid.UUID, active bool) error {
	query := `UPDATE admins SET is_active = $2, updated_at = $3 WHERE id = $1`

	if _, err := r.db.Exec(query, id, active, time.Now()); err != nil {
		return fmt.Errorf("failed to update admin status: %w", err)
	}

	return nil
}
