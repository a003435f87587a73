package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/internal/service"
)

type QueueHandler struct {
	queues *service.QueueService
}

func NewQueueHandler(queues *service.QueueService) *QueueHandler {
	return &QueueHandler{queues: queues}
}

type playerRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

// GetQueue 브래킷 대기열 조회
func (h *QueueHandler) GetQueue(c *gin.Context) {
	queue, err := h.queues.Snapshot(c.Request.Context(), models.Bracket(c.Param("bracket")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"queue": queue,
	})
}

// Join 큐 참가. 정원이 차면 생성된 매치도 함께 반환
func (h *QueueHandler) Join(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.queues.Join(c.Request.Context(), models.Bracket(c.Param("bracket")), req.PlayerID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Match != nil {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// Leave 큐 이탈
func (h *QueueHandler) Leave(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.queues.Leave(c.Request.Context(), models.Bracket(c.Param("bracket")), req.PlayerID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
