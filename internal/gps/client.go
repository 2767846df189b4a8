package gps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/metrics"
)

// Config holds the GPS provider client configuration.
type Config struct {
	BaseURL    string
	Endpoint   string
	FleetToken string
	Timeout    time.Duration
}

// Client talks to the EERA GPS House API. Unlike the routing gateway there is
// no fallback here: a vehicle position either exists or the request fails, so
// errors are returned to the caller.
type Client struct {
	baseURL    string
	endpoint   string
	fleetToken string
	client     *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Collector
}

// NewClient creates a GPS provider client. The metrics collector may be nil.
func NewClient(cfg Config, logger *logrus.Logger, collector *metrics.Collector) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		endpoint:   cfg.Endpoint,
		fleetToken: cfg.FleetToken,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    collector,
	}
}

// DeviceAttributes carries the operational status flags reported per device.
type DeviceAttributes struct {
	Ignition      bool    `json:"ignition"`
	Motion        bool    `json:"motion"`
	Charge        bool    `json:"charge"`
	BatteryLevel  float64 `json:"batteryLevel"`
	TotalDistance float64 `json:"totalDistance"`
	TodayDistance float64 `json:"todayDistance"`
}

// Device is one tracked unit as reported by the provider.
type Device struct {
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	UniqueID    string           `json:"uniqueId"`
	CompanyName string           `json:"companyName"`
	AccessToken string           `json:"accessToken"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Speed       float64          `json:"speed"`
	Course      float64          `json:"course"`
	Altitude    float64          `json:"altitude"`
	Accuracy    float64          `json:"accuracy"`
	Timestamp   string           `json:"timestamp"`
	Valid       bool             `json:"valid"`
	Attributes  DeviceAttributes `json:"attributes"`
}

// FixTime parses the device timestamp. Unparseable timestamps fall back to
// the current time so a single malformed fix does not break ETA computation.
func (d *Device) FixTime() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, d.Timestamp); err == nil {
			return ts
		}
	}
	return time.Now().UTC()
}

// apiResponse is the provider envelope.
type apiResponse struct {
	Successful bool     `json:"successful"`
	Message    string   `json:"message"`
	Object     []Device `json:"object"`
}

// GetDeviceInfo fetches one device by its access token.
func (c *Client) GetDeviceInfo(ctx context.Context, accessToken string) (*Device, error) {
	devices, err := c.fetch(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		c.countFetch("error")
		return nil, fmt.Errorf("no device data found")
	}

	c.countFetch("ok")
	return &devices[0], nil
}

// GetAllDevices fetches the full device list using the fleet token. The sync
// job uses this to discover new vehicles.
func (c *Client) GetAllDevices(ctx context.Context) ([]Device, error) {
	if c.fleetToken == "" {
		return nil, fmt.Errorf("fleet token is not configured")
	}

	devices, err := c.fetch(ctx, c.fleetToken)
	if err != nil {
		return nil, err
	}

	c.countFetch("ok")
	return devices, nil
}

func (c *Client) fetch(ctx context.Context, accessToken string) ([]Device, error) {
	endpoint := fmt.Sprintf("%s%s?accessToken=%s", c.baseURL, c.endpoint, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.countFetch("error")
		return nil, fmt.Errorf("GPS provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.countFetch("error")
		return nil, fmt.Errorf("GPS provider returned status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.countFetch("error")
		return nil, fmt.Errorf("failed to decode GPS provider response: %w", err)
	}

	if !body.Successful {
		c.countFetch("error")
		c.logger.WithField("message", body.Message).Warn("GPS provider request unsuccessful")
		return nil, fmt.Errorf("GPS provider request failed: %s", body.Message)
	}

	return body.Object, nil
}

func (c *Client) countFetch(outcome string) {
	if c.metrics != nil {
		c.metrics.GPSFetches.WithLabelValues(outcome).Inc()
	}
}
