package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/shuttle-tracking-backend/internal/config"
	"github.com/smarttransit/shuttle-tracking-backend/internal/database"
	"github.com/smarttransit/shuttle-tracking-backend/internal/eta"
	"github.com/smarttransit/shuttle-tracking-backend/internal/gps"
	"github.com/smarttransit/shuttle-tracking-backend/internal/handlers"
	"github.com/smarttransit/shuttle-tracking-backend/internal/metrics"
	"github.com/smarttransit/shuttle-tracking-backend/internal/middleware"
	"github.com/smarttransit/shuttle-tracking-backend/internal/publisher"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routing"
	"github.com/smarttransit/shuttle-tracking-backend/internal/services"
	"github.com/smarttransit/shuttle-tracking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit Shuttle Tracking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Load route and station configuration
	registry, err := routes.Load(cfg.ETA.RouteConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load route configuration: %v", err)
	}
	logger.Infof("Route registry loaded: %d routes", len(registry.Routes()))

	// Initialize services
	logger.Info("Initializing services...")
	collector := metrics.NewCollector()

	router := routing.NewClient(routing.Config{
		BaseURL:  cfg.Routing.BaseURL,
		Timeout:  cfg.Routing.Timeout,
		CacheTTL: cfg.Routing.CacheTTL,
	}, logger, collector)

	segments := eta.NewSegmentDistanceCache(router, logger, collector)
	etaService := eta.NewService(registry, router, segments, logger)
	etaService.StaleThresholdSeconds = float64(cfg.ETA.StaleThresholdSeconds)
	etaService.ArrivingThresholdMeters = cfg.ETA.ArrivingThresholdMeters
	etaService.MaxStopsLimit = cfg.ETA.MaxStopsLimit
	etaService.Tracker.OffRouteThresholdMeters = cfg.ETA.OffRouteThresholdMeters

	gpsClient := gps.NewClient(gps.Config{
		BaseURL:    cfg.GPS.BaseURL,
		Endpoint:   cfg.GPS.Endpoint,
		FleetToken: cfg.GPS.FleetToken,
		Timeout:    cfg.GPS.Timeout,
	}, logger, collector)

	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	vehicleRepo := database.NewVehicleRepository(db)
	scheduleRepo := database.NewScheduleRepository(db)
	adminRepo := database.NewAdminRepository(db)
	adminRefreshTokenRepo := database.NewAdminRefreshTokenRepository(db)

	adminAuthService := services.NewAdminAuthService(
		adminRepo,
		adminRefreshTokenRepo,
		jwtService,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		logger,
	)

	// Position streaming is optional; a nil publisher disables it.
	var positionPublisher *publisher.PositionPublisher
	if cfg.NATS.URL != "" {
		positionPublisher, err = publisher.NewPositionPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger, collector)
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer positionPublisher.Close()
		logger.Infof("Position publisher connected to %s", cfg.NATS.URL)
	} else {
		logger.Info("NATS_URL not set, position streaming disabled")
	}

	// Vehicle metadata sync from the GPS provider
	syncService := services.NewVehicleSyncService(vehicleRepo, gpsClient, cfg.Sync.Interval, logger, collector)
	if cfg.Sync.Enabled {
		if err := syncService.Start(); err != nil {
			logger.Fatalf("Failed to start vehicle sync service: %v", err)
		}
		logger.Infof("Vehicle sync started, interval %s", cfg.Sync.Interval)
	} else {
		logger.Info("Vehicle sync disabled")
	}

	logger.Info("Services initialized")

	// Initialize handlers
	etaHandler := handlers.NewETAHandler(vehicleRepo, scheduleRepo, gpsClient, etaService, positionPublisher, logger)
	vehicleHandler := handlers.NewVehicleHandler(vehicleRepo, scheduleRepo, gpsClient, logger)
	routeHandler := handlers.NewRouteHandler(registry)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, logger)
	adminHandler := handlers.NewAdminHandler(vehicleRepo, scheduleRepo, gpsClient, syncService, registry, logger)

	// Initialize Gin router
	engine := gin.New()

	// Middleware
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(cors.New(corsConfig))

	// Health check and Prometheus metrics
	engine.GET("/health", healthCheckHandler(db))
	engine.GET("/metrics", gin.WrapH(collector.Handler()))

	// Client-facing API (public)
	client := engine.Group("/api/client")
	{
		clientETA := client.Group("/eta")
		{
			clientETA.GET("/upcoming", etaHandler.GetUpcomingStops)
			clientETA.POST("/by-coordinates", etaHandler.GetETAByCoordinates)
		}

		vehicles := client.Group("/vehicles")
		{
			vehicles.GET("", vehicleHandler.ListAvailableVehicles)
			vehicles.GET("/locations", vehicleHandler.GetAllLocations)
			vehicles.GET("/:vehicle_id/location", vehicleHandler.GetLiveLocation)
			vehicles.GET("/:vehicle_id/status", vehicleHandler.GetLiveStatus)
		}

		client.GET("/schedules", vehicleHandler.ListActiveSchedules)

		routeGroup := client.Group("/routes")
		{
			routeGroup.GET("", routeHandler.ListRoutes)
			routeGroup.GET("/:route_id/stops", routeHandler.GetRouteStops)
		}
	}

	// Admin API
	admin := engine.Group("/api/admin")
	{
		// Token endpoints (public)
		auth := admin.Group("/auth")
		{
			auth.POST("/login", adminAuthHandler.Login)
			auth.POST("/refresh", adminAuthHandler.RefreshToken)
			auth.POST("/logout", adminAuthHandler.Logout)
		}

		// Everything else requires an admin token
		protected := admin.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))
		protected.Use(middleware.RequireRole("admin"))
		{
			protected.GET("/auth/profile", adminAuthHandler.GetProfile)
			protected.POST("/auth/change-password", adminAuthHandler.ChangePassword)
			protected.GET("/auth/admins", adminAuthHandler.ListAdmins)
			protected.POST("/auth/admins", adminAuthHandler.CreateAdmin)

			protected.GET("/vehicles", adminHandler.ListVehicles)
			protected.GET("/vehicles/:vehicle_id", adminHandler.GetVehicle)
			protected.PATCH("/vehicles/:vehicle_id/active", adminHandler.SetVehicleActive)
			protected.GET("/vehicles/:vehicle_id/test-connection", adminHandler.TestVehicleConnection)
			protected.GET("/vehicles/:vehicle_id/schedules", adminHandler.ListVehicleSchedules)

			protected.GET("/schedules", adminHandler.ListSchedules)
			protected.POST("/schedules", adminHandler.CreateSchedule)
			protected.GET("/schedules/:schedule_id", adminHandler.GetSchedule)
			protected.PUT("/schedules/:schedule_id", adminHandler.UpdateSchedule)
			protected.DELETE("/schedules/:schedule_id", adminHandler.DeleteSchedule)
			protected.PATCH("/schedules/:schedule_id/active", adminHandler.SetScheduleActive)

			protected.POST("/sync", adminHandler.TriggerSync)
			protected.GET("/sync/status", adminHandler.GetSyncStatus)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Sync.Enabled {
		logger.Info("Stopping vehicle sync service...")
		syncService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
			fields["username"] = userCtx.Username
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
