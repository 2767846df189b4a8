package gps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		BaseURL:    serverURL,
		Endpoint:   "/api/devices",
		FleetToken: "fleet-token",
		Timeout:    2 * time.Second,
	}, testLogger(), nil)
}

const deviceJSON = `{
	"successful": true,
	"object": [{
		"name": "Shuttle 1",
		"label": "Campus loop",
		"uniqueId": "dev-1",
		"companyName": "EERA",
		"latitude": 18.5258,
		"longitude": 73.7332,
		"speed": 32.5,
		"course": 140,
		"timestamp": "2026-03-01T12:00:00Z",
		"valid": true,
		"attributes": {"ignition": true, "motion": true, "batteryLevel": 87}
	}]
}`

func TestGetDeviceInfo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/devices", r.URL.Path)
		assert.Equal(t, "vehicle-token", r.URL.Query().Get("accessToken"))
		fmt.Fprint(w, deviceJSON)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	device, err := client.GetDeviceInfo(context.Background(), "vehicle-token")

	require.NoError(t, err)
	assert.Equal(t, "Shuttle 1", device.Name)
	assert.Equal(t, "dev-1", device.UniqueID)
	assert.InDelta(t, 18.5258, device.Latitude, 1e-9)
	assert.True(t, device.Valid)
	assert.True(t, device.Attributes.Ignition)
	assert.Equal(t, 87.0, device.Attributes.BatteryLevel)
}

func TestGetDeviceInfo_UnsuccessfulResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"successful": false, "message": "invalid token", "object": []}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetDeviceInfo(context.Background(), "bad-token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestGetDeviceInfo_NoDeviceData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"successful": true, "object": []}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetDeviceInfo(context.Background(), "vehicle-token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device data")
}

func TestGetDeviceInfo_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetDeviceInfo(context.Background(), "vehicle-token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestGetDeviceInfo_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, deviceJSON)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:  server.URL,
		Endpoint: "/api/devices",
		Timeout:  50 * time.Millisecond,
	}, testLogger(), nil)

	_, err := client.GetDeviceInfo(context.Background(), "vehicle-token")
	assert.Error(t, err)
}

func TestGetAllDevices_UsesFleetToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fleet-token", r.URL.Query().Get("accessToken"))
		fmt.Fprint(w, `{"successful": true, "object": [
			{"name": "Shuttle 1", "uniqueId": "dev-1"},
			{"name": "Shuttle 2", "uniqueId": "dev-2"}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	devices, err := client.GetAllDevices(context.Background())

	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "dev-2", devices[1].UniqueID)
}

func TestGetAllDevices_MissingFleetToken(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost"}, testLogger(), nil)
	_, err := client.GetAllDevices(context.Background())
	assert.Error(t, err)
}

func TestDeviceFixTime(t *testing.T) {
	d := &Device{Timestamp: "2026-03-01T12:00:00Z"}
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), d.FixTime().UTC())

	bad := &Device{Timestamp: "not-a-time"}
	assert.WithinDuration(t, time.Now().UTC(), bad.FixTime(), 5*time.Second)
}
