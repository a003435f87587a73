package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/config"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/internal/repository/memory"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/cache"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Count(eventType models.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Type == eventType {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) Events() []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Event(nil), n.events...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// slowTimeouts 대화형 흐름 테스트에서 타이머가 끼어들지 않도록 충분히 긴 값
func slowTimeouts() config.PhaseTimeouts {
	return config.PhaseTimeouts{
		Readiness:    time.Hour,
		CaptainVote:  time.Hour,
		Pick:         time.Hour,
		Ban:          time.Hour,
		Side:         time.Hour,
		ScoreLockout: 300 * time.Second,
	}
}

type harness struct {
	store       *memory.Store
	notifier    *recordingNotifier
	clock       *testClock
	leaderboard *LeaderboardService
	matches     *MatchService
	gate        *SanctionGate
	queues      *QueueService
	admin       *AdminService
}

func newHarness(t *testing.T, timeouts config.PhaseTimeouts) *harness {
	t.Helper()
	return newHarnessWithStore(t, timeouts, memory.NewStore())
}

type fullStore interface {
	QueueStore
	MatchStore
	RatingStore
	SanctionStore
	AdminLogStore
}

func newHarnessWithStore(t *testing.T, timeouts config.PhaseTimeouts, store fullStore) *harness {
	t.Helper()

	logger := zap.NewNop()
	notifier := &recordingNotifier{}
	clock := newTestClock()

	leaderboard := NewLeaderboardService(store, NewRatingCalculator(), notifier, logger)
	matches := NewMatchService(store, leaderboard, notifier, timeouts, logger)
	matches.deps.now = clock.Now

	gate := NewSanctionGate(store, cache.NewStore[[]models.Sanction](time.Minute).WithClock(clock.Now), logger)
	gate.now = clock.Now

	locker := memory.NewLocker()
	queues := NewQueueService(store, store, gate, matches, locker, notifier, 2*time.Hour, time.Minute, logger)
	queues.now = clock.Now

	admin := NewAdminService(matches, leaderboard, queues, gate, store, store, locker, notifier, logger)
	admin.now = clock.Now

	t.Cleanup(func() {
		queues.Stop()
		matches.Shutdown()
	})

	h := &harness{
		notifier:    notifier,
		clock:       clock,
		leaderboard: leaderboard,
		matches:     matches,
		gate:        gate,
		queues:      queues,
		admin:       admin,
	}
	if m, ok := store.(*memory.Store); ok {
		h.store = m
	}
	return h
}

func playerIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return ids
}

func entriesFor(bracket models.Bracket, ids []string, base time.Time) []models.QueueEntry {
	entries := make([]models.QueueEntry, len(ids))
	for i, id := range ids {
		entries[i] = models.QueueEntry{PlayerID: id, Bracket: bracket, JoinedAt: base.Add(time.Duration(i) * time.Second)}
	}
	return entries
}

func (h *harness) startMatch(t *testing.T) *models.Match {
	t.Helper()
	m, err := h.matches.Start(context.Background(), models.BracketDiaAsc,
		entriesFor(models.BracketDiaAsc, playerIDs("p", 10), h.clock.Now()))
	require.NoError(t, err)
	return m
}

func (h *harness) view(t *testing.T, matchID string) *PhaseView {
	t.Helper()
	v, err := h.matches.View(context.Background(), matchID)
	require.NoError(t, err)
	return v
}

func (h *harness) get(t *testing.T, matchID string) *models.Match {
	t.Helper()
	m, err := h.matches.Get(context.Background(), matchID)
	require.NoError(t, err)
	return m
}

func (h *harness) readyAll(t *testing.T, m *models.Match) {
	t.Helper()
	for _, id := range m.Players {
		require.NoError(t, h.matches.MarkPresent(context.Background(), m.ID, id))
	}
}

func (h *harness) voteAll(t *testing.T, m *models.Match, method models.CaptainMethod) {
	t.Helper()
	for _, id := range m.Players[:captainVoteMajority] {
		require.NoError(t, h.matches.Vote(context.Background(), m.ID, id, method))
	}
}

func (h *harness) draftAll(t *testing.T, matchID string) {
	t.Helper()
	for {
		v := h.view(t, matchID)
		if v.Phase != models.PhaseTeamDraft {
			return
		}
		require.NoError(t, h.matches.Pick(context.Background(), matchID, v.TurnCaptain, v.Choices[0]))
	}
}

func (h *harness) banAll(t *testing.T, matchID string) {
	t.Helper()
	for {
		v := h.view(t, matchID)
		if v.Phase != models.PhaseMapBan {
			return
		}
		require.NoError(t, h.matches.Ban(context.Background(), matchID, v.TurnCaptain, v.Choices[0]))
	}
}

// toScoreSubmit 대화형 입력으로 스코어 제출 단계까지 진행
func (h *harness) toScoreSubmit(t *testing.T) *models.Match {
	t.Helper()
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)
	h.draftAll(t, m.ID)
	h.banAll(t, m.ID)

	v := h.view(t, m.ID)
	require.Equal(t, models.PhaseSideSelect, v.Phase)
	require.NoError(t, h.matches.ChooseSide(context.Background(), m.ID, v.TurnCaptain, models.SideDefense))
	return h.get(t, m.ID)
}

// complete 양 주장이 같은 스코어를 제출해 매치 완료
func (h *harness) complete(t *testing.T, m *models.Match, winner models.Team) *models.Match {
	t.Helper()
	h.clock.Advance(301 * time.Second)

	own, opp := 13, 7
	ctx := context.Background()
	if winner == models.TeamRed {
		require.NoError(t, h.matches.SubmitScore(ctx, m.ID, m.CaptainRed, own, opp))
		require.NoError(t, h.matches.SubmitScore(ctx, m.ID, m.CaptainBlue, opp, own))
	} else {
		require.NoError(t, h.matches.SubmitScore(ctx, m.ID, m.CaptainRed, opp, own))
		require.NoError(t, h.matches.SubmitScore(ctx, m.ID, m.CaptainBlue, own, opp))
	}
	return h.get(t, m.ID)
}
