package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kryo1337/valodiscordhub-sub000/internal/websocket"
)

// WebSocketHandler WebSocket 연결 처리
type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleWebSocket playerId로 식별되는 이벤트 스트림
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	playerID := c.Query("playerId")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId is required"})
		return
	}

	_ = websocket.ServeWs(h.hub, c.Writer, c.Request, playerID)
}
