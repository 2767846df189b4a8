package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
)

// VehicleRepository handles vehicle database operations
type VehicleRepository struct {
	db DB
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db DB) *VehicleRepository {
	return &VehicleRepository{
		db: db,
	}
}

// GetByID returns a vehicle by its id
func (r *VehicleRepository) GetByID(vehicleID int) (*models.Vehicle, error) {
	var vehicle models.Vehicle

	query := `SELECT * FROM vehicles WHERE vehicle_id = $1`
	if err := r.db.Get(&vehicle, query, vehicleID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("vehicle not found")
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return &vehicle, nil
}

// GetByDeviceID returns a vehicle by its provider device id
func (r *VehicleRepository) GetByDeviceID(deviceUniqueID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle

	query := `SELECT * FROM vehicles WHERE device_unique_id = $1`
	if err := r.db.Get(&vehicle, query, deviceUniqueID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("vehicle not found")
		}
		return nil, fmt.Errorf("failed to get vehicle by device id: %w", err)
	}

	return &vehicle, nil
}

// List returns all vehicles ordered by name
func (r *VehicleRepository) List() ([]models.Vehicle, error) {
	var vehicles []models.Vehicle

	query := `SELECT * FROM vehicles ORDER BY name`
	if err := r.db.Select(&vehicles, query); err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	return vehicles, nil
}

// ListActive returns active vehicles ordered by name
func (r *VehicleRepository) ListActive() ([]models.Vehicle, error) {
	var vehicles []models.Vehicle

	query := `SELECT * FROM vehicles WHERE is_active = true ORDER BY name`
	if err := r.db.Select(&vehicles, query); err != nil {
		return nil, fmt.Errorf("failed to list active vehicles: %w", err)
	}

	return vehicles, nil
}

// Upsert inserts a vehicle from the GPS provider or updates its metadata if
// the device is already known. Returns whether a new row was created.
func (r *VehicleRepository) Upsert(v models.VehicleUpsert) (bool, error) {
	query := `
		INSERT INTO vehicles (
			name, label, device_unique_id, company_name, access_token,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, true, $6, $6)
		ON CONFLICT (device_unique_id) DO UPDATE SET
			name = EXCLUDED.name,
			label = EXCLUDED.label,
			company_name = EXCLUDED.company_name,
			access_token = EXCLUDED.access_token,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	row := r.db.QueryRow(query, v.Name, v.Label, v.DeviceUniqueID, v.CompanyName, v.AccessToken, time.Now())
	if err := row.Scan(&inserted); err != nil {
		return false, fmt.Errorf("failed to upsert vehicle: %w", err)
	}

	return inserted, nil
}

// UpdateLocation caches the last known position for a vehicle
func (r *VehicleRepository) UpdateLocation(vehicleID int, lat, lon, speed float64, fixTime time.Time) error {
	query := `
		UPDATE vehicles SET
			last_latitude = $2,
			last_longitude = $3,
			last_speed = $4,
			last_fix_time = $5,
			last_updated = $6
		WHERE vehicle_id = $1
	`

	result, err := r.db.Exec(query, vehicleID, lat, lon, speed, fixTime, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update vehicle location: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("vehicle not found")
	}

	return nil
}

// SetActive toggles the admin-controlled visibility flag
func (r *VehicleRepository) SetActive(vehicleID int, active bool) error {
	query := `UPDATE vehicles SET is_active = $2, updated_at = $3 WHERE vehicle_id = $1`

	result, err := r.db.Exec(query, vehicleID, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("vehicle not found")
	}

	return nil
}
