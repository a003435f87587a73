package handlers

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/kryo1337/valodiscordhub-sub000/internal/service"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/logger"
)

// statusFor 서비스 에러 분류를 HTTP 상태로 변환
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrScoreDiscrepancy):
		return http.StatusAccepted
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSanctioned):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrExternalService):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"error", err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
	})
}
