package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
)

// ScheduleRepository handles schedule database operations
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{
		db: db,
	}
}

// GetByID returns a schedule by its id
func (r *ScheduleRepository) GetByID(id int) (*models.Schedule, error) {
	var schedule models.Schedule

	query := `SELECT * FROM schedules WHERE id = $1`
	if err := r.db.Get(&schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("schedule not found")
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	return &schedule, nil
}

// List returns all schedules ordered by start time
func (r *ScheduleRepository) List() ([]models.Schedule, error) {
	var schedules []models.Schedule

	query := `SELECT * FROM schedules ORDER BY start_time`
	if err := r.db.Select(&schedules, query); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	return schedules, nil
}

// ListActive returns active schedules ordered by start time
func (r *ScheduleRepository) ListActive() ([]models.Schedule, error) {
	var schedules []models.Schedule

	query := `SELECT * FROM schedules WHERE is_active = true ORDER BY start_time`
	if err := r.db.Select(&schedules, query); err != nil {
		return nil, fmt.Errorf("failed to list active schedules: %w", err)
	}

	return schedules, nil
}

// ListActiveForVehicle returns active schedules for one vehicle ordered by
// start time
func (r *ScheduleRepository) ListActiveForVehicle(vehicleID int) ([]models.Schedule, error) {
	var schedules []models.Schedule

	query := `SELECT * FROM schedules WHERE vehicle_id = $1 AND is_active = true ORDER BY start_time`
	if err := r.db.Select(&schedules, query, vehicleID); err != nil {
		return nil, fmt.Errorf("failed to list schedules for vehicle: %w", err)
	}

	return schedules, nil
}

// Create inserts a new schedule and returns it with its generated id
func (r *ScheduleRepository) Create(req models.CreateScheduleRequest) (*models.Schedule, error) {
	scheduleType := req.ScheduleType
	if scheduleType == "" {
		scheduleType = models.ScheduleTypeRegular
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	schedule := &models.Schedule{
		VehicleID:    req.VehicleID,
		StartTime:    req.StartTime,
		RouteID:      req.RouteID,
		ScheduleType: scheduleType,
		IsActive:     isActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
		INSERT INTO schedules (
			vehicle_id, start_time, route_id, schedule_type,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	row := r.db.QueryRow(
		query,
		schedule.VehicleID,
		schedule.StartTime,
		schedule.RouteID,
		schedule.ScheduleType,
		schedule.IsActive,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err := row.Scan(&schedule.ID); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	return schedule, nil
}

// Update applies the non-nil fields of the request to an existing schedule
func (r *ScheduleRepository) Update(id int, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	schedule, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil {
		schedule.StartTime = *req.StartTime
	}
	if req.RouteID != nil {
		schedule.RouteID = *req.RouteID
	}
	if req.ScheduleType != nil {
		schedule.ScheduleType = *req.ScheduleType
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}
	schedule.UpdatedAt = time.Now()

	query := `
		UPDATE schedules SET
			start_time = $2,
			route_id = $3,
			schedule_type = $4,
			is_active = $5,
			updated_at = $6
		WHERE id = $1
	`

	_, err = r.db.Exec(
		query,
		schedule.ID,
		schedule.StartTime,
		schedule.RouteID,
		schedule.ScheduleType,
		schedule.IsActive,
		schedule.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	return schedule, nil
}

// Delete removes a schedule
func (r *ScheduleRepository) Delete(id int) error {
	result, err := r.db.Exec(`DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule not found")
	}

	return nil
}
