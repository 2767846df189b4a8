package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/database"
	"github.com/smarttransit/shuttle-tracking-backend/internal/gps"
	"github.com/smarttransit/shuttle-tracking-backend/internal/metrics"
	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
)

// VehicleSyncService periodically syncs the vehicle list from the GPS
// provider. Only metadata is synced here; live positions are fetched
// on demand by client requests.
type VehicleSyncService struct {
	vehicleRepo *database.VehicleRepository
	gpsClient   *gps.Client
	cron        *cron.Cron
	interval    time.Duration
	logger      *logrus.Logger
	metrics     *metrics.Collector
}

// NewVehicleSyncService creates a new vehicle sync service
func NewVehicleSyncService(
	vehicleRepo *database.VehicleRepository,
	gpsClient *gps.Client,
	interval time.Duration,
	logger *logrus.Logger,
	collector *metrics.Collector,
) *VehicleSyncService {
	return &VehicleSyncService{
		vehicleRepo: vehicleRepo,
		gpsClient:   gpsClient,
		cron:        cron.New(),
		interval:    interval,
		logger:      logger,
		metrics:     collector,
	}
}

// Start schedules the periodic sync and runs one sync shortly after startup.
func (s *VehicleSyncService) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.runSyncJob); err != nil {
		return fmt.Errorf("failed to schedule vehicle sync job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("interval", s.interval.String()).Info("Vehicle sync service started")

	// Initial sync, slightly delayed so the database is ready.
	go func() {
		time.Sleep(5 * time.Second)
		s.runSyncJob()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *VehicleSyncService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Vehicle sync service stopped")
}

func (s *VehicleSyncService) runSyncJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	result := s.SyncNow(ctx)

	entry := s.logger.WithFields(logrus.Fields{
		"vehicles_synced":  result.VehiclesSynced,
		"new_vehicles":     result.NewVehicles,
		"updated_vehicles": result.UpdatedVehicles,
		"duration":         time.Since(start).String(),
	})
	if result.Success {
		entry.Info("Vehicle sync completed")
	} else {
		entry.WithField("message", result.Message).Error("Vehicle sync failed")
	}
}

// SyncNow fetches the device list from the provider and upserts each vehicle.
// It is also exposed through the admin API for manual triggering.
func (s *VehicleSyncService) SyncNow(ctx context.Context) *models.VehicleSyncResult {
	result := &models.VehicleSyncResult{Timestamp: time.Now().UTC()}

	devices, err := s.gpsClient.GetAllDevices(ctx)
	if err != nil {
		result.Message = err.Error()
		s.countRun("error")
		return result
	}

	if len(devices) == 0 {
		result.Success = true
		result.Message = "No vehicles found in API"
		s.countRun("ok")
		return result
	}

	for _, device := range devices {
		if device.UniqueID == "" {
			s.logger.WithField("name", device.Name).Warn("Skipping device without unique id")
			continue
		}

		upsert := models.VehicleUpsert{
			Name:           device.Name,
			DeviceUniqueID: device.UniqueID,
			AccessToken:    device.AccessToken,
		}
		if upsert.Name == "" {
			upsert.Name = device.UniqueID
		}
		if device.Label != "" {
			upsert.Label = &device.Label
		}
		if device.CompanyName != "" {
			upsert.CompanyName = &device.CompanyName
		}

		created, err := s.vehicleRepo.Upsert(upsert)
		if err != nil {
			s.logger.WithError(err).WithField("device", device.UniqueID).Error("Failed to upsert vehicle")
			continue
		}

		result.VehiclesSynced++
		if created {
			result.NewVehicles++
		} else {
			result.UpdatedVehicles++
		}
		if s.metrics != nil {
			s.metrics.VehiclesSynced.Inc()
		}
	}

	result.Success = true
	s.countRun("ok")
	return result
}

// JobStatus reports the scheduler state for the admin API.
func (s *VehicleSyncService) JobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"interval":  s.interval.String(),
		"job_count": len(entries),
		"jobs":      jobs,
	}
}

func (s *VehicleSyncService) countRun(outcome string) {
	if s.metrics != nil {
		s.metrics.SyncRuns.WithLabelValues(outcome).Inc()
	}
}
