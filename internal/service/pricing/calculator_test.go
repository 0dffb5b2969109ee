package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// TestCalculatePrice_StartedPeriods tests that every started period is charged
func TestCalculatePrice_StartedPeriods(t *testing.T) {
	service := NewService(Config{})

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected int64
	}{
		{name: "Zero length ride", elapsed: 0, expected: 1},
		{name: "One hour", elapsed: time.Hour, expected: 1},
		{name: "Exactly one day", elapsed: 24 * time.Hour, expected: 1},
		{name: "One day and a second", elapsed: 24*time.Hour + time.Second, expected: 2},
		{name: "Exactly two days", elapsed: 48 * time.Hour, expected: 2},
		{name: "Forty nine hours", elapsed: 49 * time.Hour, expected: 3},
		{name: "Thirty days", elapsed: 30 * 24 * time.Hour, expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := service.CalculatePrice(start, start.Add(tt.elapsed))
			assert.Equal(t, tt.expected, price)
		})
	}
}

// TestCalculatePrice_UnitPrice tests that the unit price scales the result
func TestCalculatePrice_UnitPrice(t *testing.T) {
	service := NewService(Config{UnitPrice: 5, Period: time.Hour})

	assert.Equal(t, int64(5), service.CalculatePrice(start, start.Add(30*time.Minute)))
	assert.Equal(t, int64(15), service.CalculatePrice(start, start.Add(150*time.Minute)))
}

// TestNewService_Defaults tests defaults for unset configuration
func TestNewService_Defaults(t *testing.T) {
	cfg := NewService(Config{UnitPrice: -3}).Config()

	assert.Equal(t, DefaultUnitPrice, cfg.UnitPrice)
	assert.Equal(t, DefaultPeriod, cfg.Period)
}

// TestCalculatePrice_Monotonic tests a longer ride never costs less
func TestCalculatePrice_Monotonic(t *testing.T) {
	service := NewService(Config{})

	prev := int64(0)
	for elapsed := time.Duration(0); elapsed < 5*24*time.Hour; elapsed += 37 * time.Minute {
		price := service.CalculatePrice(start, start.Add(elapsed))
		assert.GreaterOrEqual(t, price, prev)
		prev = price
	}
}

// BenchmarkCalculatePrice benchmarks price calculation
func BenchmarkCalculatePrice(b *testing.B) {
	service := NewService(Config{})
	end := start.Add(49 * time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		service.CalculatePrice(start, end)
	}
}
