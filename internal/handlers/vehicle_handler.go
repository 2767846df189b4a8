package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/database"
	"github.com/smarttransit/shuttle-tracking-backend/internal/gps"
	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
)

// VehicleHandler serves public vehicle listing and live location endpoints.
type VehicleHandler struct {
	vehicleRepo  *database.VehicleRepository
	scheduleRepo *database.ScheduleRepository
	gpsClient    *gps.Client
	logger       *logrus.Logger
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(
	vehicleRepo *database.VehicleRepository,
	scheduleRepo *database.ScheduleRepository,
	gpsClient *gps.Client,
	logger *logrus.Logger,
) *VehicleHandler {
	return &VehicleHandler{
		vehicleRepo:  vehicleRepo,
		scheduleRepo: scheduleRepo,
		gpsClient:    gpsClient,
		logger:       logger,
	}
}

// VehicleLocation is the live position payload for one vehicle.
type VehicleLocation struct {
	VehicleID int     `json:"vehicle_id"`
	Name      string  `json:"name"`
	Label     *string `json:"label,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Course    float64 `json:"course"`
	Timestamp string  `json:"timestamp"`
	Valid     bool    `json:"valid"`
	Ignition  bool    `json:"ignition"`
	Motion    bool    `json:"motion"`
}

// VehicleStatus is the operational status payload for one vehicle.
type VehicleStatus struct {
	VehicleID     int     `json:"vehicle_id"`
	Name          string  `json:"name"`
	Ignition      bool    `json:"ignition"`
	Motion        bool    `json:"motion"`
	Charge        bool    `json:"charge"`
	BatteryLevel  float64 `json:"battery_level"`
	TotalDistance float64 `json:"total_distance"`
	TodayDistance float64 `json:"today_distance"`
	Timestamp     string  `json:"timestamp"`
}

// visibleVehicle resolves a vehicle only if it is active and has at least one
// active schedule. Vehicles outside that set are reported as not found so the
// public API never reveals hidden fleet entries.
func (h *VehicleHandler) visibleVehicle(vehicleID int) (*models.Vehicle, bool) {
	schedules, err := h.scheduleRepo.ListActiveForVehicle(vehicleID)
	if err != nil || len(schedules) == 0 {
		return nil, false
	}
	vehicle, err := h.vehicleRepo.GetByID(vehicleID)
	if err != nil || !vehicle.IsActive {
		return nil, false
	}
	return vehicle, true
}

// ListAvailableVehicles handles GET /api/client/vehicles. Only active vehicles
// with active schedules are returned; access tokens never serialize.
func (h *VehicleHandler) ListAvailableVehicles(c *gin.Context) {
	scheduleType := c.DefaultQuery("schedule_type", models.ScheduleTypeRegular)

	schedules, err := h.scheduleRepo.ListActive()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list active schedules")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve vehicles",
			"code":    "DB_ERROR",
		})
		return
	}

	seen := make(map[int]bool)
	vehicles := []models.Vehicle{}
	for _, schedule := range schedules {
		if schedule.ScheduleType != scheduleType || seen[schedule.VehicleID] {
			continue
		}
		seen[schedule.VehicleID] = true

		vehicle, err := h.vehicleRepo.GetByID(schedule.VehicleID)
		if err != nil || !vehicle.IsActive {
			continue
		}
		vehicles = append(vehicles, *vehicle)
	}

	c.JSON(http.StatusOK, vehicles)
}

// ListActiveSchedules handles GET /api/client/schedules. It returns the active
// schedules of the requested type so clients can show departure boards.
func (h *VehicleHandler) ListActiveSchedules(c *gin.Context) {
	scheduleType := c.DefaultQuery("schedule_type", models.ScheduleTypeRegular)

	schedules, err := h.scheduleRepo.ListActive()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list active schedules")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve schedules",
			"code":    "DB_ERROR",
		})
		return
	}

	filtered := []models.Schedule{}
	for _, schedule := range schedules {
		if schedule.ScheduleType == scheduleType {
			filtered = append(filtered, schedule)
		}
	}

	c.JSON(http.StatusOK, filtered)
}

// GetLiveLocation handles GET /api/client/vehicles/:vehicle_id/location. It
// fetches a fresh fix from the GPS provider on every call; clients poll this
// every few seconds.
func (h *VehicleHandler) GetLiveLocation(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.Param("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "vehicle_id must be an integer",
			"code":    "INVALID_VEHICLE_ID",
		})
		return
	}

	vehicle, ok := h.visibleVehicle(vehicleID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found or not currently available",
			"code":    "VEHICLE_NOT_AVAILABLE",
		})
		return
	}

	device, err := h.gpsClient.GetDeviceInfo(c.Request.Context(), vehicle.AccessToken)
	if err != nil {
		h.logger.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to fetch vehicle location")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "gps_unavailable",
			"message": "Unable to fetch vehicle location",
			"code":    "GPS_FETCH_FAILED",
		})
		return
	}

	// Cache the position for the admin views.
	if err := h.vehicleRepo.UpdateLocation(vehicleID, device.Latitude, device.Longitude, device.Speed, device.FixTime()); err != nil {
		h.logger.WithError(err).WithField("vehicle_id", vehicleID).Warn("Failed to cache vehicle location")
	}

	c.JSON(http.StatusOK, VehicleLocation{
		VehicleID: vehicle.VehicleID,
		Name:      vehicle.Name,
		Label:     vehicle.Label,
		Latitude:  device.Latitude,
		Longitude: device.Longitude,
		Speed:     device.Speed,
		Course:    device.Course,
		Timestamp: device.Timestamp,
		Valid:     device.Valid,
		Ignition:  device.Attributes.Ignition,
		Motion:    device.Attributes.Motion,
	})
}

// GetLiveStatus handles GET /api/client/vehicles/:vehicle_id/status.
func (h *VehicleHandler) GetLiveStatus(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.Param("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "vehicle_id must be an integer",
			"code":    "INVALID_VEHICLE_ID",
		})
		return
	}

	vehicle, ok := h.visibleVehicle(vehicleID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found or not currently available",
			"code":    "VEHICLE_NOT_AVAILABLE",
		})
		return
	}

	device, err := h.gpsClient.GetDeviceInfo(c.Request.Context(), vehicle.AccessToken)
	if err != nil {
		h.logger.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to fetch vehicle status")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "gps_unavailable",
			"message": "Unable to fetch vehicle status",
			"code":    "GPS_FETCH_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, VehicleStatus{
		VehicleID:     vehicle.VehicleID,
		Name:          vehicle.Name,
		Ignition:      device.Attributes.Ignition,
		Motion:        device.Attributes.Motion,
		Charge:        device.Attributes.Charge,
		BatteryLevel:  device.Attributes.BatteryLevel,
		TotalDistance: device.Attributes.TotalDistance,
		TodayDistance: device.Attributes.TodayDistance,
		Timestamp:     device.Timestamp,
	})
}

// GetAllLocations handles GET /api/client/vehicles/locations. Vehicles whose
// GPS fetch fails are skipped rather than failing the whole map view.
func (h *VehicleHandler) GetAllLocations(c *gin.Context) {
	schedules, err := h.scheduleRepo.ListActive()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list active schedules")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve vehicle locations",
			"code":    "DB_ERROR",
		})
		return
	}

	seen := make(map[int]bool)
	locations := []VehicleLocation{}
	for _, schedule := range schedules {
		if seen[schedule.VehicleID] {
			continue
		}
		seen[schedule.VehicleID] = true

		vehicle, err := h.vehicleRepo.GetByID(schedule.VehicleID)
		if err != nil || !vehicle.IsActive {
			continue
		}

		device, err := h.gpsClient.GetDeviceInfo(c.Request.Context(), vehicle.AccessToken)
		if err != nil {
			h.logger.WithError(err).WithField("vehicle_id", vehicle.VehicleID).Warn("Skipping vehicle with failed GPS fetch")
			continue
		}

		locations = append(locations, VehicleLocation{
			VehicleID: vehicle.VehicleID,
			Name:      vehicle.Name,
			Label:     vehicle.Label,
			Latitude:  device.Latitude,
			Longitude: device.Longitude,
			Speed:     device.Speed,
			Course:    device.Course,
			Timestamp: device.Timestamp,
			Valid:     device.Valid,
			Ignition:  device.Attributes.Ignition,
			Motion:    device.Attributes.Motion,
		})
	}

	c.JSON(http.StatusOK, locations)
}
