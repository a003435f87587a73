package service

import (
	"context"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/cache"
	"go.uber.org/zap"
)

// SanctionGate 밴/타임아웃 여부 확인
// 기록 목록을 TTL 캐시에 보관하고, 유효 여부는 조회 시점에 판단
type SanctionGate struct {
	store  SanctionStore
	cache  *cache.Store[[]models.Sanction]
	now    func() time.Time
	logger *zap.Logger
}

func NewSanctionGate(store SanctionStore, c *cache.Store[[]models.Sanction], logger *zap.Logger) *SanctionGate {
	return &SanctionGate{
		store:  store,
		cache:  c,
		now:    time.Now,
		logger: logger,
	}
}

// Check 유효한 제재가 있으면 반환, 없으면 nil
func (g *SanctionGate) Check(ctx context.Context, playerID string) (*models.Sanction, error) {
	records, err := g.cache.GetOrLoad(ctx, playerID, func(ctx context.Context) ([]models.Sanction, error) {
		return readWithRetry(ctx, "check sanction", func(ctx context.Context) ([]models.Sanction, error) {
			return g.store.CheckSanction(ctx, playerID)
		})
	})
	if err != nil {
		return nil, err
	}
	return models.FirstActive(records, g.now()), nil
}

// CheckMany 여러 플레이어의 유효 제재 조회 (캐시 미스만 일괄 로드)
func (g *SanctionGate) CheckMany(ctx context.Context, playerIDs []string) (map[string]*models.Sanction, error) {
	result := make(map[string]*models.Sanction, len(playerIDs))
	now := g.now()

	var missing []string
	for _, id := range playerIDs {
		records, ok := g.cache.Get(ctx, id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if s := models.FirstActive(records, now); s != nil {
			result[id] = s
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := readWithRetry(ctx, "batch check sanctions", func(ctx context.Context) (map[string][]models.Sanction, error) {
		return g.store.BatchCheckSanctions(ctx, missing)
	})
	if err != nil {
		return nil, err
	}

	for _, id := range missing {
		records := loaded[id]
		g.cache.Set(ctx, id, records)
		if s := models.FirstActive(records, now); s != nil {
			result[id] = s
		}
	}
	return result, nil
}

// Require 제재 중이면 ErrSanctioned
func (g *SanctionGate) Require(ctx context.Context, playerID string) error {
	s, err := g.Check(ctx, playerID)
	if err != nil {
		return err
	}
	if s != nil {
		g.logger.Debug("Sanctioned player rejected",
			zap.String("playerId", playerID),
			zap.String("kind", string(s.Kind)))
		return sanctionError(s)
	}
	return nil
}

// Invalidate 관리자 제재 변경 직후 호출
func (g *SanctionGate) Invalidate(ctx context.Context, playerID string) {
	g.cache.Delete(ctx, playerID)
}
