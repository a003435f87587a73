package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Storage backend: "postgres" or "memory"
	StoreBackend string
	DatabaseURL  string

	// Redis
	RedisURL string

	// 이벤트 origin 마커로 사용되는 인스턴스 ID
	InstanceID string

	// Queue
	QueueMaxAge        time.Duration
	QueueSweepInterval time.Duration

	// Match phases
	Phases PhaseTimeouts

	// Sanction cache
	SanctionCacheTTL time.Duration

	// Notification fan-out workers
	NotifyWorkers int
}

// PhaseTimeouts 매치 단계별 제한 시간
type PhaseTimeouts struct {
	Readiness    time.Duration
	CaptainVote  time.Duration
	Pick         time.Duration
	Ban          time.Duration
	Side         time.Duration
	ScoreLockout time.Duration
}

// DefaultPhaseTimeouts 기본 단계별 제한 시간
func DefaultPhaseTimeouts() PhaseTimeouts {
	return PhaseTimeouts{
		Readiness:    300 * time.Second,
		CaptainVote:  30 * time.Second,
		Pick:         15 * time.Second,
		Ban:          15 * time.Second,
		Side:         15 * time.Second,
		ScoreLockout: 300 * time.Second,
	}
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	defaults := DefaultPhaseTimeouts()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StoreBackend:       getEnv("STORE_BACKEND", "postgres"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		InstanceID:         getEnv("INSTANCE_ID", uuid.NewString()),
		QueueMaxAge:        parseDuration(getEnv("QUEUE_MAX_AGE", "2h"), 2*time.Hour),
		QueueSweepInterval: parseDuration(getEnv("QUEUE_SWEEP_INTERVAL", "1m"), time.Minute),
		SanctionCacheTTL:   parseDuration(getEnv("SANCTION_CACHE_TTL", "60s"), 60*time.Second),
		NotifyWorkers:      parseInt(getEnv("NOTIFY_WORKERS", "16"), 16),
		Phases: PhaseTimeouts{
			Readiness:    parseDuration(getEnv("READINESS_TIMEOUT", ""), defaults.Readiness),
			CaptainVote:  parseDuration(getEnv("CAPTAIN_VOTE_TIMEOUT", ""), defaults.CaptainVote),
			Pick:         parseDuration(getEnv("PICK_TIMEOUT", ""), defaults.Pick),
			Ban:          parseDuration(getEnv("BAN_TIMEOUT", ""), defaults.Ban),
			Side:         parseDuration(getEnv("SIDE_TIMEOUT", ""), defaults.Side),
			ScoreLockout: parseDuration(getEnv("SCORE_LOCKOUT", ""), defaults.ScoreLockout),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
