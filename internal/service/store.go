package service

import (
	"context"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
)

// QueueStore 브래킷 대기열 저장소 (Redis / memory)
type QueueStore interface {
	GetQueue(ctx context.Context, bracket models.Bracket) ([]models.QueueEntry, error)
	// PutQueue 드레인 후 매치 생성 실패 시 엔트리 복원용
	PutQueue(ctx context.Context, bracket models.Bracket, entries []models.QueueEntry) error
	// AtomicJoinQueue 중복/정원 확인과 추가, 정원 도달 시 드레인을 하나의 원자 연산으로 수행
	AtomicJoinQueue(ctx context.Context, entry models.QueueEntry, capacity int) (*models.JoinOutcome, error)
	RemoveFromQueue(ctx context.Context, bracket models.Bracket, playerID string) (bool, error)
	RemoveExpired(ctx context.Context, bracket models.Bracket, olderThan time.Time) ([]models.QueueEntry, error)
	// DrainFull 정원 이상 쌓인 큐에서 가장 오래된 capacity명을 원자적으로 꺼냄. 미달이면 빈 결과
	DrainFull(ctx context.Context, bracket models.Bracket, capacity int) ([]models.QueueEntry, error)
}

// MatchStore 매치 저장소. GetMatch는 없으면 (nil, nil)
type MatchStore interface {
	CreateMatch(ctx context.Context, match *models.Match) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	PatchMatch(ctx context.Context, match *models.Match) error
	ListActiveMatches(ctx context.Context) ([]*models.Match, error)
	FindActiveMatchByPlayer(ctx context.Context, playerID string) (*models.Match, error)
}

// RatingStore 레이팅 테이블. GetRatingTable은 존재하는 엔트리만 반환
type RatingStore interface {
	GetRatingTable(ctx context.Context, playerIDs []string) (map[string]models.RatingEntry, error)
	PutRatingTable(ctx context.Context, entries []models.RatingEntry) error
	ListRatings(ctx context.Context, limit int) ([]models.RatingEntry, error)
	// DeleteRatings 취소된 첫 매치로 생긴 엔트리 제거
	DeleteRatings(ctx context.Context, playerIDs []string) error
}

// SanctionStore 제재 기록. 만료 여부와 무관하게 모든 기록을 반환
type SanctionStore interface {
	CheckSanction(ctx context.Context, playerID string) ([]models.Sanction, error)
	BatchCheckSanctions(ctx context.Context, playerIDs []string) (map[string][]models.Sanction, error)
	AddSanction(ctx context.Context, sanction *models.Sanction) error
	RemoveSanctions(ctx context.Context, playerID string, kind models.SanctionKind) (int, error)
}

// AdminLogStore 관리자 감사 로그
type AdminLogStore interface {
	AppendAdminLog(ctx context.Context, entry *models.AdminLogEntry) error
	RemoveAdminLog(ctx context.Context, id string) (bool, error)
	ListAdminLog(ctx context.Context, limit int) ([]models.AdminLogEntry, error)
}

// Notifier 이벤트 발행 (알림 협력자)
type Notifier interface {
	Publish(ctx context.Context, event models.Event) error
}

// Locker 인스턴스 간 배타 실행 (스윕 등)
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// NopNotifier 알림을 버리는 Notifier
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, models.Event) error { return nil }
