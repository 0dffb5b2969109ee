package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/bike-sharing/pkg/logger"
	"github.com/gocomet/bike-sharing/pkg/websocket"
	gorilla "github.com/gorilla/websocket"
)

// HandleWebSocket handles GET /v1/ws?role=dashboard|member[&member_id=...]
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	role := c.DefaultQuery("role", websocket.RoleMember)
	memberID := c.Query("member_id")

	switch role {
	case websocket.RoleDashboard:
	case websocket.RoleMember:
		if memberID != "" {
			m, err := h.Members.Find(c.Request.Context(), memberID)
			if err != nil {
				h.respondError(c, err)
				return
			}
			memberID = m.NationalID
		}
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "role must be dashboard or member"})
		return
	}

	upgrader := gorilla.Upgrader{
		ReadBufferSize:  h.WebSocket.ReadBufferSize,
		WriteBufferSize: h.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, memberID, role, h.Logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
