package models

import (
	"time"
)

// Schedule types supported by the admin API.
const (
	ScheduleTypeRegular = "regular"
	ScheduleTypeStaff   = "staff"
)

// Schedule links a vehicle to a predefined route with a start time. Only
// active schedules are visible to client endpoints.
type Schedule struct {
	ID           int       `db:"id" json:"id"`
	VehicleID    int       `db:"vehicle_id" json:"vehicle_id"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	RouteID      string    `db:"route_id" json:"route_id"`
	ScheduleType string    `db:"schedule_type" json:"schedule_type"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CreateScheduleRequest is the admin payload for creating a schedule.
type CreateScheduleRequest struct {
	VehicleID    int       `json:"vehicle_id" binding:"required"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	RouteID      string    `json:"route_id" binding:"required"`
	ScheduleType string    `json:"schedule_type"`
	IsActive     *bool     `json:"is_active"`
}

// UpdateScheduleRequest is the admin payload for updating a schedule. Nil
// fields are left unchanged.
type UpdateScheduleRequest struct {
	StartTime    *time.Time `json:"start_time"`
	RouteID      *string    `json:"route_id"`
	ScheduleType *string    `json:"schedule_type"`
	IsActive     *bool      `json:"is_active"`
}
