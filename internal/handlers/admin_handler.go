package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/database"
	"github.com/smarttransit/shuttle-tracking-backend/internal/gps"
	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
	"github.com/smarttransit/shuttle-tracking-backend/internal/services"
)

// AdminHandler serves the authenticated fleet management endpoints.
type AdminHandler struct {
	vehicleRepo  *database.VehicleRepository
	scheduleRepo *database.ScheduleRepository
	gpsClient    *gps.Client
	syncService  *services.VehicleSyncService
	registry     *routes.Registry
	logger       *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	vehicleRepo *database.VehicleRepository,
	scheduleRepo *database.ScheduleRepository,
	gpsClient *gps.Client,
	syncService *services.VehicleSyncService,
	registry *routes.Registry,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		vehicleRepo:  vehicleRepo,
		scheduleRepo: scheduleRepo,
		gpsClient:    gpsClient,
		syncService:  syncService,
		registry:     registry,
		logger:       logger,
	}
}

func (h *AdminHandler) vehicleIDParam(c *gin.Context) (int, bool) {
	vehicleID, err := strconv.Atoi(c.Param("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "vehicle_id must be an integer",
			"code":    "INVALID_VEHICLE_ID",
		})
		return 0, false
	}
	return vehicleID, true
}

func (h *AdminHandler) scheduleIDParam(c *gin.Context) (int, bool) {
	scheduleID, err := strconv.Atoi(c.Param("schedule_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "schedule_id must be an integer",
			"code":    "INVALID_SCHEDULE_ID",
		})
		return 0, false
	}
	return scheduleID, true
}

// ============ Vehicle Management ============

// ListVehicles handles GET /api/admin/vehicles. Includes inactive vehicles.
func (h *AdminHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicleRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list vehicles")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve vehicles",
			"code":    "DB_ERROR",
		})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GetVehicle handles GET /api/admin/vehicles/:vehicle_id.
func (h *AdminHandler) GetVehicle(c *gin.Context) {
	vehicleID, ok := h.vehicleIDParam(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicleRepo.GetByID(vehicleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found",
			"code":    "VEHICLE_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// SetVehicleActive handles PATCH /api/admin/vehicles/:vehicle_id/active.
func (h *AdminHandler) SetVehicleActive(c *gin.Context) {
	vehicleID, ok := h.vehicleIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.vehicleRepo.SetActive(vehicleID, *req.Active); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found",
			"code":    "VEHICLE_NOT_FOUND",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"vehicle_id": vehicleID,
		"active":     *req.Active,
	}).Info("Vehicle active status updated")

	action := "deactivated"
	if *req.Active {
		action = "activated"
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle " + action + " successfully"})
}

// TestVehicleConnection handles POST /api/admin/vehicles/:vehicle_id/test. It
// fetches live data to verify the stored access token still works.
func (h *AdminHandler) TestVehicleConnection(c *gin.Context) {
	vehicleID, ok := h.vehicleIDParam(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicleRepo.GetByID(vehicleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found",
			"code":    "VEHICLE_NOT_FOUND",
		})
		return
	}

	device, err := h.gpsClient.GetDeviceInfo(c.Request.Context(), vehicle.AccessToken)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"vehicle_id": vehicleID,
			"connected":  false,
			"error":      err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle_id": vehicleID,
		"connected":  true,
		"device":     device,
	})
}

// ============ Schedule Management ============

// ListSchedules handles GET /api/admin/schedules.
func (h *AdminHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.scheduleRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list schedules")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve schedules",
			"code":    "DB_ERROR",
		})
		return
	}
	c.JSON(http.StatusOK, schedules)
}

// GetSchedule handles GET /api/admin/schedules/:schedule_id.
func (h *AdminHandler) GetSchedule(c *gin.Context) {
	scheduleID, ok := h.scheduleIDParam(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleRepo.GetByID(scheduleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Schedule not found",
			"code":    "SCHEDULE_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// ListVehicleSchedules handles GET /api/admin/vehicles/:vehicle_id/schedules.
func (h *AdminHandler) ListVehicleSchedules(c *gin.Context) {
	vehicleID, ok := h.vehicleIDParam(c)
	if !ok {
		return
	}

	if _, err := h.vehicleRepo.GetByID(vehicleID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found",
			"code":    "VEHICLE_NOT_FOUND",
		})
		return
	}

	schedules, err := h.scheduleRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve schedules",
			"code":    "DB_ERROR",
		})
		return
	}

	filtered := []models.Schedule{}
	for _, s := range schedules {
		if s.VehicleID == vehicleID {
			filtered = append(filtered, s)
		}
	}
	c.JSON(http.StatusOK, filtered)
}

// CreateSchedule handles POST /api/admin/schedules. The referenced vehicle and
// route must exist.
func (h *AdminHandler) CreateSchedule(c *gin.Context) {
	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if _, err := h.vehicleRepo.GetByID(req.VehicleID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Vehicle not found",
			"code":    "VEHICLE_NOT_FOUND",
		})
		return
	}

	if _, ok := h.registry.Route(req.RouteID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Unknown route_id",
			"code":    "ROUTE_NOT_FOUND",
		})
		return
	}

	schedule, err := h.scheduleRepo.Create(req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create schedule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create schedule",
			"code":    "DB_ERROR",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"vehicle_id":  schedule.VehicleID,
		"route_id":    schedule.RouteID,
	}).Info("Schedule created")

	c.JSON(http.StatusCreated, schedule)
}

// UpdateSchedule handles PUT /api/admin/schedules/:schedule_id.
func (h *AdminHandler) UpdateSchedule(c *gin.Context) {
	scheduleID, ok := h.scheduleIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.RouteID != nil {
		if _, ok := h.registry.Route(*req.RouteID); !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Unknown route_id",
				"code":    "ROUTE_NOT_FOUND",
			})
			return
		}
	}

	schedule, err := h.scheduleRepo.Update(scheduleID, req)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Schedule not found",
			"code":    "SCHEDULE_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// DeleteSchedule handles DELETE /api/admin/schedules/:schedule_id.
func (h *AdminHandler) DeleteSchedule(c *gin.Context) {
	scheduleID, ok := h.scheduleIDParam(c)
	if !ok {
		return
	}

	if err := h.scheduleRepo.Delete(scheduleID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Schedule not found",
			"code":    "SCHEDULE_NOT_FOUND",
		})
		return
	}

	h.logger.WithField("schedule_id", scheduleID).Info("Schedule deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted successfully"})
}

// SetScheduleActive handles PATCH /api/admin/schedules/:schedule_id/active.
func (h *AdminHandler) SetScheduleActive(c *gin.Context) {
	scheduleID, ok := h.scheduleIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	schedule, err := h.scheduleRepo.Update(scheduleID, models.UpdateScheduleRequest{IsActive: req.Active})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Schedule not found",
			"code":    "SCHEDULE_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// ============ Vehicle Sync ============

// TriggerSync handles POST /api/admin/sync. It runs a vehicle sync
// immediately instead of waiting for the next scheduled run.
func (h *AdminHandler) TriggerSync(c *gin.Context) {
	result := h.syncService.SyncNow(c.Request.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

// GetSyncStatus handles GET /api/admin/sync/status.
func (h *AdminHandler) GetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.JobStatus())
}
