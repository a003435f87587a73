package service

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/internal/repository/memory"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSanctionStore struct {
	*memory.Store
	single int
	batch  int
}

func (s *countingSanctionStore) CheckSanction(ctx context.Context, id string) ([]models.Sanction, error) {
	s.single++
	return s.Store.CheckSanction(ctx, id)
}

func (s *countingSanctionStore) BatchCheckSanctions(ctx context.Context, ids []string) (map[string][]models.Sanction, error) {
	s.batch++
	return s.Store.BatchCheckSanctions(ctx, ids)
}

func newTestGate(store SanctionStore, clock *testClock) *SanctionGate {
	gate := NewSanctionGate(store, cache.NewStore[[]models.Sanction](time.Minute).WithClock(clock.Now), zap.NewNop())
	gate.now = clock.Now
	return gate
}

func TestSanctionGate_StaleForAtMostTTL(t *testing.T) {
	store := &countingSanctionStore{Store: memory.NewStore()}
	clock := newTestClock()
	gate := newTestGate(store, clock)
	ctx := context.Background()

	s, err := gate.Check(ctx, "p")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, store.AddSanction(ctx, &models.Sanction{PlayerID: "p", Kind: models.SanctionBan, CreatedAt: clock.Now()}))

	// TTL 안에서는 캐시된 "제재 없음"을 그대로 사용
	clock.Advance(30 * time.Second)
	s, err = gate.Check(ctx, "p")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 1, store.single)

	clock.Advance(30 * time.Second)
	s, err = gate.Check(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, models.SanctionBan, s.Kind)
	assert.Equal(t, 2, store.single)
}

func TestSanctionGate_InvalidateTakesEffectImmediately(t *testing.T) {
	store := &countingSanctionStore{Store: memory.NewStore()}
	clock := newTestClock()
	gate := newTestGate(store, clock)
	ctx := context.Background()

	require.NoError(t, gate.Require(ctx, "p"))
	require.NoError(t, store.AddSanction(ctx, &models.Sanction{PlayerID: "p", Kind: models.SanctionBan, Reason: "cheating", CreatedAt: clock.Now()}))
	gate.Invalidate(ctx, "p")

	err := gate.Require(ctx, "p")
	assert.True(t, errors.Is(err, ErrSanctioned))
	assert.Contains(t, err.Error(), "cheating")
}

func TestSanctionGate_CheckManyLoadsOnlyMisses(t *testing.T) {
	store := &countingSanctionStore{Store: memory.NewStore()}
	clock := newTestClock()
	gate := newTestGate(store, clock)
	ctx := context.Background()

	d := time.Minute
	require.NoError(t, store.AddSanction(ctx, &models.Sanction{PlayerID: "b", Kind: models.SanctionTimeout, Duration: &d, CreatedAt: clock.Now()}))

	_, err := gate.Check(ctx, "a")
	require.NoError(t, err)

	active, err := gate.CheckMany(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, models.SanctionTimeout, active["b"].Kind)
	assert.Equal(t, 1, store.batch)

	// 타임아웃이 끝나면 같은 캐시 기록이 비활성으로 판정됨
	clock.Advance(59*time.Second + 999*time.Millisecond)
	active, err = gate.CheckMany(ctx, []string{"b"})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	clock.Advance(time.Millisecond)
	active, err = gate.CheckMany(ctx, []string{"b"})
	require.NoError(t, err)
	assert.Empty(t, active)
}
