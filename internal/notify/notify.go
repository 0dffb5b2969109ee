// Package notify tells the outside world about rides: live websocket
// clients and New Relic.
package notify

import (
	"context"
	"time"

	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/pkg/logger"
	"github.com/gocomet/bike-sharing/pkg/monitoring"
	"github.com/gocomet/bike-sharing/pkg/websocket"
)

// Event types pushed to websocket clients
const (
	EventRideOpened = "ride_opened"
	EventRideClosed = "ride_closed"
)

// Publisher delivers a message to the clients interested in a bike or member
type Publisher interface {
	Publish(message websocket.Message, bikeID int64, memberID string) int
}

// RideEvent is the payload of ride_opened and ride_closed
type RideEvent struct {
	RideID    int64      `json:"ride_id"`
	MemberID  string     `json:"member_id"`
	BikeID    int64      `json:"bike_id"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Price     *int64     `json:"price,omitempty"`
}

// LiveUpdates pushes ride events to websocket clients
type LiveUpdates struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewLiveUpdates creates a ride observer backed by the websocket hub
func NewLiveUpdates(publisher Publisher, log *logger.Logger) *LiveUpdates {
	return &LiveUpdates{publisher: publisher, logger: log}
}

func (l *LiveUpdates) RideOpened(ctx context.Context, r *ride.Ride) {
	l.publish(EventRideOpened, r)
}

func (l *LiveUpdates) RideClosed(ctx context.Context, r *ride.Ride) {
	l.publish(EventRideClosed, r)
}

func (l *LiveUpdates) publish(eventType string, r *ride.Ride) {
	event := toEvent(r)
	sent := l.publisher.Publish(websocket.Message{Type: eventType, Data: event}, r.BikeID, r.MemberID)
	l.logger.Debug("Ride event published",
		logger.String("type", eventType),
		logger.Int64("ride_id", event.RideID),
		logger.Int("clients", sent),
	)
}

// Metrics records ride events in New Relic
type Metrics struct {
	app *monitoring.NewRelicApp
}

// NewMetrics creates a ride observer recording New Relic custom events
func NewMetrics(app *monitoring.NewRelicApp) *Metrics {
	return &Metrics{app: app}
}

func (m *Metrics) RideOpened(ctx context.Context, r *ride.Ride) {
	m.app.RecordRideOpened(toEvent(r).RideID, r.BikeID)
}

func (m *Metrics) RideClosed(ctx context.Context, r *ride.Ride) {
	var elapsed time.Duration
	if r.StartTime != nil && r.EndTime != nil {
		elapsed = r.EndTime.Sub(*r.StartTime)
	}
	var price int64
	if r.Price != nil {
		price = *r.Price
	}
	m.app.RecordRideClosed(toEvent(r).RideID, r.BikeID, price, elapsed)
}

func toEvent(r *ride.Ride) RideEvent {
	event := RideEvent{
		MemberID:  r.MemberID,
		BikeID:    r.BikeID,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Price:     r.Price,
	}
	if r.ID != nil {
		event.RideID = *r.ID
	}
	return event
}
