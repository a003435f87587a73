package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kryo1337/valodiscordhub-sub000/internal/service"
)

type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type cancelRequest struct {
	AdminID string `json:"adminId" binding:"required"`
	Reason  string `json:"reason"`
}

type sanctionRequest struct {
	AdminID string `json:"adminId" binding:"required"`
	Reason  string `json:"reason"`
	// Duration 타임아웃 기간 (예: "30m", "2h")
	Duration string `json:"duration"`
}

// CancelMatch 어느 단계에서든 매치 취소 (반영된 레이팅은 되돌림)
func (h *AdminHandler) CancelMatch(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	match, err := h.admin.Cancel(c.Request.Context(), c.Param("id"), req.AdminID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match": match,
	})
}

// SetResult 결과 지정 또는 정정
func (h *AdminHandler) SetResult(c *gin.Context) {
	var req service.SetResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	match, err := h.admin.SetResult(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match": match,
	})
}

func (h *AdminHandler) Ban(c *gin.Context) {
	req, ok := h.bindSanction(c)
	if !ok {
		return
	}

	sanction, err := h.admin.Ban(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"sanction": sanction,
	})
}

func (h *AdminHandler) Timeout(c *gin.Context) {
	req, ok := h.bindSanction(c)
	if !ok {
		return
	}

	sanction, err := h.admin.Timeout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"sanction": sanction,
	})
}

// Unban 밴과 타임아웃 기록 모두 해제
func (h *AdminHandler) Unban(c *gin.Context) {
	req, ok := h.bindSanction(c)
	if !ok {
		return
	}

	removed, err := h.admin.Unban(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}

func (h *AdminHandler) bindSanction(c *gin.Context) (service.SanctionRequest, bool) {
	var body sanctionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return service.SanctionRequest{}, false
	}

	req := service.SanctionRequest{
		AdminID:  body.AdminID,
		PlayerID: c.Param("id"),
		Reason:   body.Reason,
	}
	if body.Duration != "" {
		d, err := time.ParseDuration(body.Duration)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid duration: " + body.Duration,
			})
			return service.SanctionRequest{}, false
		}
		req.Duration = d
	}
	return req, true
}

// ListLogs 감사 로그 (최신순)
func (h *AdminHandler) ListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.admin.Logs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  entries,
		"total": len(entries),
	})
}

func (h *AdminHandler) DeleteLog(c *gin.Context) {
	if err := h.admin.RemoveLog(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
