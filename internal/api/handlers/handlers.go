package handlers

import (
	"github.com/gocomet/bike-sharing/internal/service/fleet"
	"github.com/gocomet/bike-sharing/internal/service/ledger"
	"github.com/gocomet/bike-sharing/internal/service/membership"
	"github.com/gocomet/bike-sharing/internal/service/rental"
	"github.com/gocomet/bike-sharing/pkg/cache"
	"github.com/gocomet/bike-sharing/pkg/logger"
	"github.com/gocomet/bike-sharing/pkg/monitoring"
	"github.com/gocomet/bike-sharing/pkg/websocket"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Members *membership.Service
	Fleet   *fleet.Service
	Ledger  *ledger.Service
	Rentals *rental.Engine
	// Idempotency is nil when Idempotency-Key support is off
	Idempotency *cache.IdempotencyStore
	Hub         *websocket.Hub
	Metrics     *monitoring.NewRelicApp
	Logger      *logger.Logger
	WebSocket   WebSocketConfig
}

// WebSocketConfig sizes the upgrader buffers
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}
