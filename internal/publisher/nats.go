package publisher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/metrics"
)

// PositionEvent is the payload published for each live vehicle position.
type PositionEvent struct {
	VehicleID  int       `json:"vehicle_id"`
	RouteID    string    `json:"route_id,omitempty"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	SpeedKmh   float64   `json:"speed_kmh"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PositionPublisher streams vehicle positions to NATS so dashboards and other
// consumers can subscribe without polling the HTTP API. A nil publisher is
// safe to call; publishing is then a no-op.
type PositionPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *logrus.Logger
	metrics       *metrics.Collector
}

// NewPositionPublisher connects to the NATS server. The metrics collector may
// be nil.
func NewPositionPublisher(url, subjectPrefix string, logger *logrus.Logger, collector *metrics.Collector) (*PositionPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("shuttle-tracking-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &PositionPublisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger,
		metrics:       collector,
	}, nil
}

// Publish sends one position event on <prefix>.<vehicle_id>. Publish errors
// are logged and counted, never propagated; position streaming is best-effort
// and must not fail the request that produced the fix.
func (p *PositionPublisher) Publish(event PositionEvent) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal position event")
		return
	}

	subject := p.subjectPrefix + "." + strconv.Itoa(event.VehicleID)
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish position event")
		if p.metrics != nil {
			p.metrics.PublishErrors.Inc()
		}
		return
	}

	if p.metrics != nil {
		p.metrics.PositionsPublished.Inc()
	}
}

// Close drains and closes the connection.
func (p *PositionPublisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.WithError(err).Warn("Failed to drain NATS connection")
	}
}
