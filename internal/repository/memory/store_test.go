package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AtomicJoinDrainsOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	const joiners = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	var drains [][]models.QueueEntry

	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := store.AtomicJoinQueue(ctx, models.QueueEntry{
				PlayerID: fmt.Sprintf("x%d", i), Bracket: models.BracketDiaAsc, JoinedAt: time.Now(),
			}, models.QueueCapacity)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, models.JoinStatusJoined, out.Status)
			assert.LessOrEqual(t, out.Size, models.QueueCapacity)
			if len(out.Drained) > 0 {
				mu.Lock()
				drains = append(drains, out.Drained)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, drains, 2)
	seen := map[string]bool{}
	for _, d := range drains {
		assert.Len(t, d, models.QueueCapacity)
		for _, e := range d {
			assert.False(t, seen[e.PlayerID])
			seen[e.PlayerID] = true
		}
	}
	rest, err := store.GetQueue(ctx, models.BracketDiaAsc)
	require.NoError(t, err)
	assert.Len(t, rest, 5)
}

func TestStore_AtomicJoinRejectsDuplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	entry := models.QueueEntry{PlayerID: "a", Bracket: models.BracketIronPlat, JoinedAt: time.Now()}

	out, err := store.AtomicJoinQueue(ctx, entry, models.QueueCapacity)
	require.NoError(t, err)
	assert.Equal(t, models.JoinStatusJoined, out.Status)
	assert.Equal(t, 1, out.Size)

	out, err = store.AtomicJoinQueue(ctx, entry, models.QueueCapacity)
	require.NoError(t, err)
	assert.Equal(t, models.JoinStatusAlreadyQueued, out.Status)
}

func TestStore_AtomicJoinFullWhenCapacityReached(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	// capacity보다 큰 기존 큐 (복원된 경우 등)
	require.NoError(t, store.PutQueue(ctx, models.BracketIronPlat, []models.QueueEntry{
		{PlayerID: "a", Bracket: models.BracketIronPlat},
		{PlayerID: "b", Bracket: models.BracketIronPlat},
	}))
	out, err := store.AtomicJoinQueue(ctx, models.QueueEntry{PlayerID: "c", Bracket: models.BracketIronPlat}, 2)
	require.NoError(t, err)
	assert.Equal(t, models.JoinStatusFull, out.Status)
}

func TestStore_DrainFullTakesOldestCapacity(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Now()

	drained, err := store.DrainFull(ctx, models.BracketIronPlat, 2)
	require.NoError(t, err)
	assert.Empty(t, drained)

	require.NoError(t, store.PutQueue(ctx, models.BracketIronPlat, []models.QueueEntry{
		{PlayerID: "c", Bracket: models.BracketIronPlat, JoinedAt: base.Add(2 * time.Second)},
		{PlayerID: "a", Bracket: models.BracketIronPlat, JoinedAt: base},
		{PlayerID: "b", Bracket: models.BracketIronPlat, JoinedAt: base.Add(time.Second)},
	}))

	drained, err = store.DrainFull(ctx, models.BracketIronPlat, 2)
	require.NoError(t, err)
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].PlayerID)
	assert.Equal(t, "b", drained[1].PlayerID)

	rest, err := store.GetQueue(ctx, models.BracketIronPlat)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].PlayerID)

	drained, err = store.DrainFull(ctx, models.BracketIronPlat, 2)
	require.NoError(t, err)
	assert.Empty(t, drained)
}

func TestStore_ActiveMatchLookup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	m := &models.Match{ID: "m1", Players: []string{"a", "b"}, Phase: models.PhaseTeamDraft}
	require.NoError(t, store.CreateMatch(ctx, m))
	assert.ErrorIs(t, store.CreateMatch(ctx, m), ErrDuplicateMatch)

	found, err := store.FindActiveMatchByPlayer(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "m1", found.ID)

	m.Result = models.ResultCancelled
	require.NoError(t, store.PatchMatch(ctx, m))
	found, err = store.FindActiveMatchByPlayer(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, found)

	missing, err := store.GetMatch(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLocker_ExclusiveUntilUnlocked(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)

	_, err = l.Lock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	unlock()
	unlock2, err := l.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)
	unlock2()
}
