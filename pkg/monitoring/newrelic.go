package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return Disabled(), nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// Disabled returns an app on which every call is a no-op
func Disabled() *NewRelicApp {
	return &NewRelicApp{nil, false}
}

// StartTransaction starts a new transaction
func (nr *NewRelicApp) StartTransaction(name string) *newrelic.Transaction {
	if !nr.IsEnabled() || nr.Application == nil {
		return nil
	}
	return nr.Application.StartTransaction(name)
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.IsEnabled() || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.IsEnabled() || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.IsEnabled() || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Custom metric helpers

// RecordRideOpened records the start of a ride
func (nr *NewRelicApp) RecordRideOpened(rideID, bikeID int64) {
	nr.RecordCustomEvent("RideOpened", map[string]interface{}{
		"ride_id": rideID,
		"bike_id": bikeID,
	})
	nr.RecordCustomMetric("custom/ride/opened", 1)
}

// RecordRideClosed records a finished ride with its price and length
func (nr *NewRelicApp) RecordRideClosed(rideID, bikeID, price int64, duration time.Duration) {
	nr.RecordCustomEvent("RideClosed", map[string]interface{}{
		"ride_id":          rideID,
		"bike_id":          bikeID,
		"price":            price,
		"duration_seconds": duration.Seconds(),
	})
	nr.RecordCustomMetric("custom/ride/duration_hours", duration.Hours())
}

// RecordRejection records a business rule rejection by error code
func (nr *NewRelicApp) RecordRejection(code string) {
	nr.RecordCustomMetric(fmt.Sprintf("custom/rental/rejected/%s", code), 1)
}

// RecordDatabasePoolStats records database connection pool statistics
func (nr *NewRelicApp) RecordDatabasePoolStats(stats map[string]interface{}) {
	if open, ok := stats["open_connections"].(int); ok {
		nr.RecordCustomMetric("custom/db/open_connections", float64(open))
	}
	if inUse, ok := stats["in_use"].(int); ok {
		nr.RecordCustomMetric("custom/db/in_use", float64(inUse))
	}
	if idle, ok := stats["idle"].(int); ok {
		nr.RecordCustomMetric("custom/db/idle_connections", float64(idle))
	}
}

// RecordRedisPoolStats records Redis pool statistics
func (nr *NewRelicApp) RecordRedisPoolStats(stats map[string]interface{}) {
	if hits, ok := stats["hits"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_hits", float64(hits))
	}
	if misses, ok := stats["misses"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_misses", float64(misses))
	}
	if timeouts, ok := stats["timeouts"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/timeouts", float64(timeouts))
	}
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr != nil && nr.enabled
}
