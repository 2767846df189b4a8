package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Routing engine configuration
	Routing RoutingConfig

	// GPS provider configuration
	GPS GPSConfig

	// ETA computation configuration
	ETA ETAConfig

	// Vehicle sync configuration
	Sync SyncConfig

	// NATS position streaming configuration
	NATS NATSConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// RoutingConfig holds OSRM routing engine configuration
type RoutingConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// GPSConfig holds the EERA GPS provider configuration
type GPSConfig struct {
	BaseURL     string
	Endpoint    string
	FleetToken  string
	Timeout     time.Duration
}

// ETAConfig holds ETA computation thresholds
type ETAConfig struct {
	StaleThresholdSeconds   int
	OffRouteThresholdMeters float64
	ArrivingThresholdMeters float64
	MaxStopsLimit           int
	RouteConfigPath         string
}

// SyncConfig holds vehicle metadata sync configuration
type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NATSConfig holds position streaming configuration. Publishing is disabled
// when URL is empty.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Routing: RoutingConfig{
			BaseURL:  getEnv("OSRM_BASE_URL", "http://localhost:5000"),
			Timeout:  time.Duration(getEnvAsInt("OSRM_TIMEOUT_SECONDS", 10)) * time.Second,
			CacheTTL: time.Duration(getEnvAsInt("OSRM_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		GPS: GPSConfig{
			BaseURL:    getEnv("EERA_BASE_URL", ""),
			Endpoint:   getEnv("EERA_ENDPOINT", "/api/devices"),
			FleetToken: getEnv("EERA_FLEET_TOKEN", ""),
			Timeout:    time.Duration(getEnvAsInt("EERA_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		ETA: ETAConfig{
			StaleThresholdSeconds:   getEnvAsInt("ETA_STALE_THRESHOLD_SECONDS", 60),
			OffRouteThresholdMeters: getEnvAsFloat("ETA_OFF_ROUTE_THRESHOLD_METERS", 1000),
			ArrivingThresholdMeters: getEnvAsFloat("ETA_ARRIVING_THRESHOLD_METERS", 100),
			MaxStopsLimit:           getEnvAsInt("ETA_MAX_STOPS_LIMIT", 10),
			RouteConfigPath:         getEnv("ROUTE_CONFIG_PATH", ""),
		},
		Sync: SyncConfig{
			Enabled:  getEnvAsBool("VEHICLE_SYNC_ENABLED", true),
			Interval: time.Duration(getEnvAsInt("VEHICLE_SYNC_INTERVAL_SECONDS", 300)) * time.Second,
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "shuttle.positions"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.Sync.Enabled {
		if c.GPS.BaseURL == "" {
			return fmt.Errorf("EERA_BASE_URL is required when vehicle sync is enabled")
		}
		if c.GPS.FleetToken == "" {
			return fmt.Errorf("EERA_FLEET_TOKEN is required when vehicle sync is enabled")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
