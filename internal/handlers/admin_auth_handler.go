package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/middleware"
	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
	"github.com/smarttransit/shuttle-tracking-backend/internal/services"
	"github.com/smarttransit/shuttle-tracking-backend/internal/utils"
)

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	adminAuthService *services.AdminAuthService
	logger           *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(adminAuthService *services.AdminAuthService, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		adminAuthService: adminAuthService,
		logger:           logger,
	}
}

// Login handles POST /api/admin/auth/login.
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	userAgent := utils.GetUserAgent(c)
	deviceInfo := utils.ParseUserAgent(userAgent)
	clientIP := utils.GetRealIP(c)

	response, err := h.adminAuthService.Login(req.Username, req.Password, deviceInfo.DeviceType, clientIP, userAgent)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"username": req.Username,
			"ip":       clientIP,
			"device":   deviceInfo.DeviceType,
			"error":    err.Error(),
		}).Warn("Admin login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"admin_id": response.AdminUser.ID,
		"username": response.AdminUser.Username,
		"device":   deviceInfo.DeviceType,
		"os":       deviceInfo.OS,
	}).Info("Admin login successful")

	c.JSON(http.StatusOK, response)
}

// RefreshToken handles POST /api/admin/auth/refresh.
func (h *AdminAuthHandler) RefreshToken(c *gin.Context) {
	var req models.AdminRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	response, err := h.adminAuthService.RefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Warn("Token refresh failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout handles POST /api/admin/auth/logout.
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	var req models.AdminRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.adminAuthService.Logout(req.RefreshToken); err != nil {
		h.logger.WithError(err).Warn("Logout failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetProfile handles GET /api/admin/auth/profile.
func (h *AdminAuthHandler) GetProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	admin, err := h.adminAuthService.GetAdminProfile(userCtx.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin not found"})
		return
	}

	c.JSON(http.StatusOK, admin)
}

// ChangePassword handles POST /api/admin/auth/change-password.
func (h *AdminAuthHandler) ChangePassword(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.AdminChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.adminAuthService.ChangePassword(userCtx.UserID, req.OldPassword, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.WithField("admin_id", userCtx.UserID).Info("Admin password changed")
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// CreateAdmin handles POST /api/admin/auth/create. Only existing admins can
// create new accounts.
func (h *AdminAuthHandler) CreateAdmin(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.AdminCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	admin, err := h.adminAuthService.CreateAdmin(req.Username, req.Password, req.FullName, userCtx.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"admin_id":   admin.ID,
		"username":   admin.Username,
		"created_by": userCtx.UserID,
	}).Info("New admin user created")

	c.JSON(http.StatusCreated, admin)
}

// ListAdmins handles GET /api/admin/auth/list.
func (h *AdminAuthHandler) ListAdmins(c *gin.Context) {
	admins, err := h.adminAuthService.ListAdmins()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve admin users"})
		return
	}

	c.JSON(http.StatusOK, admins)
}
