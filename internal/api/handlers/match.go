package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/internal/service"
)

type MatchHandler struct {
	matches *service.MatchService
}

func NewMatchHandler(matches *service.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

type presenceRequest struct {
	// 한 명 체크인 또는 음성 채널 인원 전체 보고 중 하나
	PlayerID  string   `json:"playerId"`
	PlayerIDs []string `json:"playerIds"`
}

type voteRequest struct {
	PlayerID string               `json:"playerId" binding:"required"`
	Method   models.CaptainMethod `json:"method" binding:"required"`
}

type pickRequest struct {
	CaptainID string `json:"captainId" binding:"required"`
	PlayerID  string `json:"playerId" binding:"required"`
}

type banRequest struct {
	CaptainID string `json:"captainId" binding:"required"`
	Map       string `json:"map" binding:"required"`
}

type sideRequest struct {
	CaptainID string      `json:"captainId" binding:"required"`
	Side      models.Side `json:"side" binding:"required"`
}

type scoreRequest struct {
	CaptainID string `json:"captainId" binding:"required"`
	Own       *int   `json:"own" binding:"required"`
	Opponent  *int   `json:"opponent" binding:"required"`
}

// GetMatch 매치 조회
func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match": match,
	})
}

// GetView 진행 중인 매치의 단계 상태 (남은 시간, 차례, 선택지)
func (h *MatchHandler) GetView(c *gin.Context) {
	view, err := h.matches.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *MatchHandler) Presence(c *gin.Context) {
	var req presenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case req.PlayerIDs != nil:
		err = h.matches.ReportPresence(ctx, c.Param("id"), req.PlayerIDs)
	case req.PlayerID != "":
		err = h.matches.MarkPresent(ctx, c.Param("id"), req.PlayerID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "playerId or playerIds is required",
		})
		return
	}
	h.respondAction(c, err)
}

func (h *MatchHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respondAction(c, h.matches.Vote(c.Request.Context(), c.Param("id"), req.PlayerID, req.Method))
}

func (h *MatchHandler) Pick(c *gin.Context) {
	var req pickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respondAction(c, h.matches.Pick(c.Request.Context(), c.Param("id"), req.CaptainID, req.PlayerID))
}

func (h *MatchHandler) Ban(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respondAction(c, h.matches.Ban(c.Request.Context(), c.Param("id"), req.CaptainID, req.Map))
}

func (h *MatchHandler) Side(c *gin.Context) {
	var req sideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respondAction(c, h.matches.ChooseSide(c.Request.Context(), c.Param("id"), req.CaptainID, req.Side))
}

// Score 주장 스코어 제출. 양측 보고가 어긋나면 202로 관리자 대기 상태를 알림
func (h *MatchHandler) Score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respondAction(c, h.matches.SubmitScore(c.Request.Context(), c.Param("id"), req.CaptainID, *req.Own, *req.Opponent))
}

// respondAction 입력 처리 후 최신 단계 상태를 돌려줌
func (h *MatchHandler) respondAction(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err)
		return
	}

	match, err := h.matches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match": match,
	})
}
