package websocket

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/gocomet/bike-sharing/pkg/logger"
)

// Client roles
const (
	RoleDashboard = "dashboard"
	RoleMember    = "member"
)

// Hub maintains active client connections and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *logger.Logger
}

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Client registered",
				logger.String("client_id", client.ID),
				logger.String("role", client.Role),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Client unregistered",
					logger.String("client_id", client.ID),
				)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register registers a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister unregisters a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", logger.Err(err))
		return
	}
	h.broadcast <- data
}

// Publish delivers a ride event to dashboards, to clients watching the bike
// and to the member riding it. Each client gets the message at most once.
// Returns the number of clients reached.
func (h *Hub) Publish(message Message, bikeID int64, memberID string) int {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal ride message", logger.Err(err))
		return 0
	}
	bike := strconv.FormatInt(bikeID, 10)

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if client.Role != RoleDashboard && !client.IsSubscribedTo(bike) && (memberID == "" || client.MemberID != memberID) {
			continue
		}
		select {
		case client.Send <- data:
			sent++
		default:
			h.logger.Warn("Failed to send ride message to client",
				logger.Int64("bike_id", bikeID),
				logger.String("client_id", client.ID),
			)
		}
	}
	return sent
}

// BroadcastToRole sends a message to all clients of a role
func (h *Hub) BroadcastToRole(role string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", logger.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for client := range h.clients {
		if client.Role == role {
			select {
			case client.Send <- data:
				count++
			default:
				h.logger.Warn("Failed to send message to client",
					logger.String("role", role),
					logger.String("client_id", client.ID),
				)
			}
		}
	}

	h.logger.Debug("Message broadcast to role",
		logger.String("role", role),
		logger.Int("count", count),
	)
}

// GetActiveConnections returns the number of active connections
func (h *Hub) GetActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetClientsByRole returns count of clients by role
func (h *Hub) GetClientsByRole(role string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for client := range h.clients {
		if client.Role == role {
			count++
		}
	}
	return count
}
