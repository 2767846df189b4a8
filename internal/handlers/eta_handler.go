package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/database"
	"github.com/smarttransit/shuttle-tracking-backend/internal/eta"
	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/gps"
	"github.com/smarttransit/shuttle-tracking-backend/internal/publisher"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routing"
)

// ETAHandler serves the public ETA endpoints.
type ETAHandler struct {
	vehicleRepo  *database.VehicleRepository
	scheduleRepo *database.ScheduleRepository
	gpsClient    *gps.Client
	etaService   *eta.Service
	publisher    *publisher.PositionPublisher
	logger       *logrus.Logger
}

// NewETAHandler creates a new ETA handler. The publisher may be nil when
// position streaming is disabled.
func NewETAHandler(
	vehicleRepo *database.VehicleRepository,
	scheduleRepo *database.ScheduleRepository,
	gpsClient *gps.Client,
	etaService *eta.Service,
	positionPublisher *publisher.PositionPublisher,
	logger *logrus.Logger,
) *ETAHandler {
	return &ETAHandler{
		vehicleRepo:  vehicleRepo,
		scheduleRepo: scheduleRepo,
		gpsClient:    gpsClient,
		etaService:   etaService,
		publisher:    positionPublisher,
		logger:       logger,
	}
}

// Coordinate is a plain lat/lon pair in API payloads.
type Coordinate struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lon float64 `json:"lon" binding:"min=-180,max=180"`
}

// UpcomingStopsResponse is the response for GET /eta/upcoming.
type UpcomingStopsResponse struct {
	VehicleID       int        `json:"vehicle_id"`
	TimestampUTC    string     `json:"timestamp_utc"`
	CurrentLocation Coordinate `json:"current_location"`
	eta.Result
}

// ByCoordinatesRequest is the request for POST /eta/by-coordinates.
type ByCoordinatesRequest struct {
	Origin  Coordinate        `json:"origin" binding:"required"`
	Targets []eta.AdHocTarget `json:"targets" binding:"required,min=1,max=25"`
	Mode    string            `json:"mode"`
}

// ByCoordinatesResponse is the response for POST /eta/by-coordinates.
type ByCoordinatesResponse struct {
	TimestampUTC string              `json:"timestamp_utc"`
	Origin       Coordinate          `json:"origin"`
	Mode         string              `json:"mode"`
	Targets      []eta.AdHocEstimate `json:"targets"`
}

// GetUpcomingStops handles GET /api/client/eta/upcoming.
// Only vehicles that are active and have an active schedule are exposed.
func (h *ETAHandler) GetUpcomingStops(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.Query("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "vehicle_id is required and must be an integer",
			"code":    "INVALID_VEHICLE_ID",
		})
		return
	}

	mode := c.DefaultQuery("mode", routing.ModeDriving)
	if !routing.IsValidMode(mode) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "mode must be 'driving' or 'walking'",
			"code":    "INVALID_MODE",
		})
		return
	}

	maxStops, err := strconv.Atoi(c.DefaultQuery("max_stops", "2"))
	if err != nil || maxStops < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "max_stops must be a positive integer",
			"code":    "INVALID_MAX_STOPS",
		})
		return
	}

	// Visibility gate: the vehicle must have at least one active schedule,
	// so only vehicles the admins want public are exposed.
	schedules, err := h.scheduleRepo.ListActiveForVehicle(vehicleID)
	if err != nil || len(schedules) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found or not currently available",
			"code":    "VEHICLE_NOT_AVAILABLE",
		})
		return
	}

	vehicle, err := h.vehicleRepo.GetByID(vehicleID)
	if err != nil || !vehicle.IsActive {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found or not currently available",
			"code":    "VEHICLE_NOT_AVAILABLE",
		})
		return
	}

	// TODO: pick the schedule by time-of-day instead of the first active one
	schedule := schedules[0]

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

	fixTime := device.FixTime()

	// Cache the position; failures here must not break the ETA response.
	if err := h.vehicleRepo.UpdateLocation(vehicleID, device.Latitude, device.Longitude, device.Speed, fixTime); err != nil {
		h.logger.WithError(err).WithField("vehicle_id", vehicleID).Warn("Failed to cache vehicle location")
	}

	h.publisher.Publish(publisher.PositionEvent{
		VehicleID:  vehicleID,
		RouteID:    schedule.RouteID,
		Lat:        device.Latitude,
		Lon:        device.Longitude,
		SpeedKmh:   device.Speed,
		RecordedAt: fixTime,
	})

	position := geo.Point{Lat: device.Latitude, Lon: device.Longitude}
	result := h.etaService.Compute(c.Request.Context(), schedule.RouteID, position, fixTime, maxStops, mode)

	c.JSON(http.StatusOK, UpcomingStopsResponse{
		VehicleID:       vehicleID,
		TimestampUTC:    time.Now().UTC().Format(time.RFC3339),
		CurrentLocation: Coordinate{Lat: device.Latitude, Lon: device.Longitude},
		Result:          result,
	})
}

// GetETAByCoordinates handles POST /api/client/eta/by-coordinates. It bypasses
// vehicles and routes entirely and estimates travel between raw coordinates.
func (h *ETAHandler) GetETAByCoordinates(c *gin.Context) {
	var req ByCoordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
			"code":    "INVALID_BODY",
			"details": err.Error(),
		})
		return
	}

	if req.Mode == "" {
		req.Mode = routing.ModeDriving
	}
	if !routing.IsValidMode(req.Mode) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "mode must be 'driving' or 'walking'",
			"code":    "INVALID_MODE",
		})
		return
	}

	origin := geo.Point{Lat: req.Origin.Lat, Lon: req.Origin.Lon}
	targets := h.etaService.ComputeAdHoc(c.Request.Context(), origin, req.Targets, req.Mode)
	if targets == nil {
		targets = []eta.AdHocEstimate{}
	}

	c.JSON(http.StatusOK, ByCoordinatesResponse{
		TimestampUTC: time.Now().UTC().Format(time.RFC3339),
		Origin:       req.Origin,
		Mode:         req.Mode,
		Targets:      targets,
	})
}
