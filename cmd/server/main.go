package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/api"
	"github.com/kryo1337/valodiscordhub-sub000/internal/config"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/internal/repository"
	"github.com/kryo1337/valodiscordhub-sub000/internal/repository/memory"
	"github.com/kryo1337/valodiscordhub-sub000/internal/service"
	"github.com/kryo1337/valodiscordhub-sub000/internal/websocket"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/cache"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/database"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/distributed"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stores 백엔드별 저장소 묶음
type stores struct {
	queues    service.QueueStore
	matches   service.MatchStore
	ratings   service.RatingStore
	sanctions service.SanctionStore
	logs      service.AdminLogStore
	locker    service.Locker
	bus       *distributed.EventBus
	closers   []func() error
}

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 로거 초기화
	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting match engine",
		"port", cfg.Port,
		"env", cfg.Env,
		"backend", cfg.StoreBackend,
		"instance", cfg.InstanceID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg)
	if err != nil {
		logger.Fatal("Failed to open stores", "error", err)
	}
	defer func() {
		for i := len(st.closers) - 1; i >= 0; i-- {
			if err := st.closers[i](); err != nil {
				logger.Warn("Failed to close store", "error", err)
			}
		}
	}()

	// WebSocket Hub 시작
	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	sinks := []service.Sink{hub}
	if st.bus != nil {
		sinks = append(sinks, st.bus)
		// 다른 인스턴스가 발행한 이벤트를 이 인스턴스의 연결로 전달
		if err := st.bus.Start(ctx, func(e models.Event) {
			if err := hub.Deliver(ctx, e); err != nil {
				logger.Warn("Failed to relay remote event", "type", e.Type, "error", err)
			}
		}); err != nil {
			logger.Fatal("Failed to start event bus", "error", err)
		}
	}

	dispatcher, err := service.NewDispatcher(cfg.NotifyWorkers, cfg.InstanceID, logger.Named("notify"), sinks...)
	if err != nil {
		logger.Fatal("Failed to create dispatcher", "error", err)
	}

	sanctionCache := cache.NewStore[[]models.Sanction](cfg.SanctionCacheTTL)
	sanctionCache.StartJanitor(ctx, cfg.SanctionCacheTTL)

	leaderboard := service.NewLeaderboardService(st.ratings, service.NewRatingCalculator(), dispatcher, logger.Named("leaderboard"))
	matches := service.NewMatchService(st.matches, leaderboard, dispatcher, cfg.Phases, logger.Named("match"))
	gate := service.NewSanctionGate(st.sanctions, sanctionCache, logger.Named("sanction"))
	queues := service.NewQueueService(
		st.queues,
		st.matches,
		gate,
		matches,
		st.locker,
		dispatcher,
		cfg.QueueMaxAge,
		cfg.QueueSweepInterval,
		logger.Named("queue"),
	)
	admin := service.NewAdminService(matches, leaderboard, queues, gate, st.sanctions, st.logs, st.locker, dispatcher, logger.Named("admin"))

	// 이전 실행에서 남은 매치 정리
	if err := matches.Resume(ctx); err != nil {
		logger.Error("Failed to resume active matches", "error", err)
	}
	queues.Start()

	router := api.SetupRouter(cfg, api.Services{
		Queues:      queues,
		Matches:     matches,
		Leaderboard: leaderboard,
		Admin:       admin,
		Hub:         hub,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	queues.Stop()
	matches.Shutdown()
	if st.bus != nil {
		st.bus.Stop()
	}
	dispatcher.Close(5 * time.Second)

	logger.Info("Server exited")
}

// openStores STORE_BACKEND에 따라 Postgres+Redis 또는 메모리 저장소 구성
func openStores(cfg *config.Config) (*stores, error) {
	if cfg.StoreBackend == "memory" {
		mem := memory.NewStore()
		logger.Warn("Using in-memory store; state is lost on restart")
		return &stores{
			queues:    mem,
			matches:   mem,
			ratings:   mem,
			sanctions: mem,
			logs:      mem,
			locker:    memory.NewLocker(),
		}, nil
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		db.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Info("Redis connection established", "addr", opts.Addr)

	distLogger := logger.Named("distributed")
	return &stores{
		queues:    distributed.NewBracketQueue(client, "queue"),
		matches:   repository.NewMatchRepository(db),
		ratings:   repository.NewRatingRepository(db),
		sanctions: repository.NewSanctionRepository(db),
		logs:      repository.NewAdminLogRepository(db),
		locker:    distributed.NewRedisLockManager(client, distLogger),
		bus:       distributed.NewEventBus(client, cfg.InstanceID, distLogger.With(zap.String("component", "bus"))),
		closers:   []func() error{db.Close, client.Close},
	}, nil
}
