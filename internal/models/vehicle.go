package models

import (
	"time"
)

// Vehicle represents a shuttle synced from the EERA GPS provider. Vehicles
// are created and updated by the sync job, not entered manually; admins only
// toggle visibility via IsActive.
type Vehicle struct {
	VehicleID      int        `db:"vehicle_id" json:"vehicle_id"`
	Name           string     `db:"name" json:"name"`
	Label          *string    `db:"label" json:"label,omitempty"`
	DeviceUniqueID string     `db:"device_unique_id" json:"device_unique_id"`
	CompanyName    *string    `db:"company_name" json:"company_name,omitempty"`
	AccessToken    string     `db:"access_token" json:"-"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// Cached location data from the last provider fetch.
	LastLatitude   *float64   `db:"last_latitude" json:"last_latitude,omitempty"`
	LastLongitude  *float64   `db:"last_longitude" json:"last_longitude,omitempty"`
	LastSpeed      *float64   `db:"last_speed" json:"last_speed,omitempty"`
	LastFixTime    *time.Time `db:"last_fix_time" json:"last_fix_time,omitempty"`
	LastServerTime *time.Time `db:"last_server_time" json:"last_server_time,omitempty"`
	LastUpdated    *time.Time `db:"last_updated" json:"last_updated,omitempty"`
}

// VehicleUpsert carries the provider fields the sync job writes.
type VehicleUpsert struct {
	Name           string
	Label          *string
	DeviceUniqueID string
	CompanyName    *string
	AccessToken    string
}

// VehicleSyncResult summarizes one sync job run.
type VehicleSyncResult struct {
	Success         bool      `json:"success"`
	VehiclesSynced  int       `json:"vehicles_synced"`
	NewVehicles     int       `json:"new_vehicles"`
	UpdatedVehicles int       `json:"updated_vehicles"`
	Message         string    `json:"message,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
