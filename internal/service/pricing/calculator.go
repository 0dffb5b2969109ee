package pricing

import (
	"time"
)

const (
	// DefaultUnitPrice is charged per started period, in whole currency units
	DefaultUnitPrice int64 = 1
	// DefaultPeriod is the length of one billing period
	DefaultPeriod = 24 * time.Hour
)

// Config holds pricing configuration
type Config struct {
	UnitPrice int64
	Period    time.Duration
}

// Service computes ride prices. Every started period is charged in full and
// a ride is never cheaper than one period.
type Service struct {
	config Config
}

// NewService creates a new pricing service, filling in defaults for unset values
func NewService(config Config) *Service {
	if config.UnitPrice <= 0 {
		config.UnitPrice = DefaultUnitPrice
	}
	if config.Period <= 0 {
		config.Period = DefaultPeriod
	}
	return &Service{config: config}
}

// Config returns the effective configuration
func (s *Service) Config() Config {
	return s.config
}

// Periods returns the number of billed periods for a ride of the given length
func (s *Service) Periods(elapsed time.Duration) int64 {
	if elapsed <= s.config.Period {
		return 1
	}
	periods := int64(elapsed / s.config.Period)
	if elapsed%s.config.Period != 0 {
		periods++
	}
	return periods
}

// CalculatePrice returns the price of a ride that started at start and ended at end
func (s *Service) CalculatePrice(start, end time.Time) int64 {
	return s.Periods(end.Sub(start)) * s.config.UnitPrice
}
