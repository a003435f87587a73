package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler 인스턴스 상태
type HealthHandler struct {
	instanceID string
	sessions   func() int
}

func NewHealthHandler(instanceID string, sessions func() int) *HealthHandler {
	return &HealthHandler{instanceID: instanceID, sessions: sessions}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "valohub-engine",
		"instance":       h.instanceID,
		"activeSessions": h.sessions(),
	})
}
