package api

import (
	"github.com/gin-gonic/gin"
	"github.com/kryo1337/valodiscordhub-sub000/internal/api/handlers"
	"github.com/kryo1337/valodiscordhub-sub000/internal/api/middleware"
	"github.com/kryo1337/valodiscordhub-sub000/internal/config"
	"github.com/kryo1337/valodiscordhub-sub000/internal/service"
	"github.com/kryo1337/valodiscordhub-sub000/internal/websocket"
)

// Services 라우터가 사용하는 엔진 서비스
type Services struct {
	Queues      *service.QueueService
	Matches     *service.MatchService
	Leaderboard *service.LeaderboardService
	Admin       *service.AdminService
	Hub         *websocket.Hub
}

// SetupRouter API 라우터 설정
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger("/health"))

	queueHandler := handlers.NewQueueHandler(svc.Queues)
	matchHandler := handlers.NewMatchHandler(svc.Matches)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.Leaderboard)
	adminHandler := handlers.NewAdminHandler(svc.Admin)
	healthHandler := handlers.NewHealthHandler(cfg.InstanceID, svc.Matches.Active)

	// Health check
	router.GET("/health", healthHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		if svc.Hub != nil {
			wsHandler := handlers.NewWebSocketHandler(svc.Hub)
			v1.GET("/ws", wsHandler.HandleWebSocket)
		}

		queues := v1.Group("/queues")
		{
			queues.GET("/:bracket", queueHandler.GetQueue)
			queues.POST("/:bracket/join", queueHandler.Join)
			queues.POST("/:bracket/leave", queueHandler.Leave)
		}

		matches := v1.Group("/matches")
		{
			matches.GET("/:id", matchHandler.GetMatch)
			matches.GET("/:id/view", matchHandler.GetView)
			matches.POST("/:id/presence", matchHandler.Presence)
			matches.POST("/:id/vote", matchHandler.Vote)
			matches.POST("/:id/pick", matchHandler.Pick)
			matches.POST("/:id/ban", matchHandler.Ban)
			matches.POST("/:id/side", matchHandler.Side)
			matches.POST("/:id/score", matchHandler.Score)
		}

		leaderboard := v1.Group("/leaderboard")
		{
			leaderboard.GET("", leaderboardHandler.GetLeaderboard)
			leaderboard.GET("/:playerId", leaderboardHandler.GetPlayer)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/matches/:id/cancel", adminHandler.CancelMatch)
			admin.POST("/matches/:id/result", adminHandler.SetResult)
			admin.POST("/players/:id/ban", adminHandler.Ban)
			admin.POST("/players/:id/unban", adminHandler.Unban)
			admin.POST("/players/:id/timeout", adminHandler.Timeout)
			admin.GET("/logs", adminHandler.ListLogs)
			admin.DELETE("/logs/:id", adminHandler.DeleteLog)
		}
	}

	return router
}
