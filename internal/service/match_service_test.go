package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kryo1337/valodiscordhub-sub000/internal/config"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMatchLifecycle_FullFlow(t *testing.T) {
	h := newHarness(t, slowTimeouts())

	m := h.toScoreSubmit(t)
	assert.Equal(t, models.PhaseScoreSubmit, m.Phase)
	assert.Len(t, m.Red, 5)
	assert.Len(t, m.Blue, 5)
	assert.Contains(t, m.Red, m.CaptainRed)
	assert.Contains(t, m.Blue, m.CaptainBlue)
	assert.Contains(t, []string{m.CaptainRed, m.CaptainBlue}, m.LobbyMaster)
	// 레드가 마지막으로 밴하고 수비를 선택함
	assert.Equal(t, models.TeamRed, m.DefendingTeam)

	done := h.complete(t, m, models.TeamRed)
	assert.Equal(t, models.PhaseComplete, done.Phase)
	assert.Equal(t, models.ResultRed, done.Result)
	require.NotNil(t, done.EndedAt)
	require.NotNil(t, done.RedScore)
	assert.Equal(t, 13, *done.RedScore)
	assert.Equal(t, 7, *done.BlueScore)
	assert.Len(t, done.RatingChanges, 10)
	assert.False(t, h.matches.Live(m.ID))

	for _, id := range done.Red {
		entry, err := h.leaderboard.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 1025, entry.Points)
		assert.Equal(t, 1, entry.Streak)
		assert.Equal(t, 100.0, entry.Winrate)
	}
	for _, id := range done.Blue {
		entry, err := h.leaderboard.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 975, entry.Points)
		assert.Equal(t, -1, entry.Streak)
	}
	assert.Equal(t, 1, h.notifier.Count(models.EventMatchCreated))
	assert.Equal(t, 1, h.notifier.Count(models.EventMatchResult))
}

func TestMatchLifecycle_PhaseOrderIsMonotonic(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.toScoreSubmit(t)
	h.complete(t, m, models.TeamBlue)

	last := -1
	for _, e := range h.notifier.Events() {
		if e.MatchID != m.ID {
			continue
		}
		switch e.Type {
		case models.EventMatchCreated, models.EventMatchUpdated, models.EventMatchResult:
		default:
			continue
		}
		v, ok := e.Payload.(PhaseView)
		require.True(t, ok)
		order := v.Phase.Order()
		assert.GreaterOrEqual(t, order, last, "phase went backwards to %s", v.Phase)
		// 한 번에 한 단계씩만 전진
		if last >= 0 {
			assert.LessOrEqual(t, order-last, 1, "phase skipped to %s", v.Phase)
		}
		last = order
	}
	assert.Equal(t, models.PhaseComplete.Order(), last)
}

func TestReadiness_ReportPresenceReplacesPreviousReport(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	ctx := context.Background()

	require.NoError(t, h.matches.ReportPresence(ctx, m.ID, append(m.Players[:9:9], "stranger")))
	v := h.view(t, m.ID)
	assert.Equal(t, models.PhaseReadinessCheck, v.Phase)
	assert.Len(t, v.Present, 9)

	require.NoError(t, h.matches.ReportPresence(ctx, m.ID, m.Players))
	assert.Equal(t, models.PhaseCaptainVote, h.view(t, m.ID).Phase)
}

func TestReadiness_NonParticipantRejected(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)

	err := h.matches.MarkPresent(context.Background(), m.ID, "stranger")
	assert.True(t, errors.Is(err, ErrNotParticipant))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestReadiness_TimeoutCancelsMatch(t *testing.T) {
	timeouts := slowTimeouts()
	timeouts.Readiness = 20 * time.Millisecond
	h := newHarness(t, timeouts)
	m := h.startMatch(t)

	require.NoError(t, h.matches.MarkPresent(context.Background(), m.ID, m.Players[0]))

	require.Eventually(t, func() bool { return !h.matches.Live(m.ID) }, time.Second, 5*time.Millisecond)

	stored := h.get(t, m.ID)
	assert.Equal(t, models.PhaseCancelled, stored.Phase)
	assert.Equal(t, models.ResultCancelled, stored.Result)
	assert.Contains(t, stored.CancelReason, "1/10")
	assert.NotNil(t, stored.EndedAt)

	err := h.matches.MarkPresent(context.Background(), m.ID, m.Players[1])
	assert.True(t, errors.Is(err, ErrMatchClosed))
}

func TestCaptainVote_SixRandomPairVotesResolveImmediately(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	h.readyAll(t, m)
	ctx := context.Background()

	for _, id := range m.Players[:5] {
		require.NoError(t, h.matches.Vote(ctx, m.ID, id, models.CaptainRandomPair))
	}
	v := h.view(t, m.ID)
	assert.Equal(t, models.PhaseCaptainVote, v.Phase)
	assert.Equal(t, 5, v.Votes[models.CaptainRandomPair])
	assert.Equal(t, 0, v.Votes[models.CaptainTopRatedPair])

	require.NoError(t, h.matches.Vote(ctx, m.ID, m.Players[5], models.CaptainRandomPair))

	got := h.get(t, m.ID)
	assert.Equal(t, models.PhaseTeamDraft, got.Phase)
	assert.Equal(t, models.CaptainRandomPair, got.CaptainMethod)
	assert.NotEqual(t, got.CaptainRed, got.CaptainBlue)
	assert.Equal(t, []string{got.CaptainRed}, got.Red)
	assert.Equal(t, []string{got.CaptainBlue}, got.Blue)
}

func TestCaptainVote_RevoteOverwrites(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	h.readyAll(t, m)
	ctx := context.Background()

	// 같은 참가자가 여러 번 투표해도 한 표
	for i := 0; i < 6; i++ {
		require.NoError(t, h.matches.Vote(ctx, m.ID, m.Players[0], models.CaptainRandomPair))
	}
	require.NoError(t, h.matches.Vote(ctx, m.ID, m.Players[0], models.CaptainTopRatedPair))

	v := h.view(t, m.ID)
	assert.Equal(t, models.PhaseCaptainVote, v.Phase)
	assert.Equal(t, 0, v.Votes[models.CaptainRandomPair])
	assert.Equal(t, 1, v.Votes[models.CaptainTopRatedPair])

	err := h.matches.Vote(ctx, m.ID, m.Players[1], models.CaptainMethod("coin-flip"))
	assert.True(t, errors.Is(err, ErrInvalidMethod))
}

func TestCaptainVote_TimeoutFallsBackToTopRatedPair(t *testing.T) {
	timeouts := slowTimeouts()
	timeouts.CaptainVote = 20 * time.Millisecond
	h := newHarness(t, timeouts)
	ctx := context.Background()

	require.NoError(t, h.store.PutRatingTable(ctx, []models.RatingEntry{
		{PlayerID: "p7", Points: 1400},
		{PlayerID: "p3", Points: 1500},
		{PlayerID: "p5", Points: 1400},
	}))

	m := h.startMatch(t)
	h.readyAll(t, m)
	require.NoError(t, h.matches.Vote(ctx, m.ID, m.Players[0], models.CaptainRandomPair))

	require.Eventually(t, func() bool {
		return h.view(t, m.ID).Phase == models.PhaseTeamDraft
	}, time.Second, 5*time.Millisecond)

	got := h.get(t, m.ID)
	assert.Equal(t, models.CaptainTopRatedPair, got.CaptainMethod)
	assert.Equal(t, "p3", got.CaptainRed)
	// p5와 p7 동점: 큐 순서가 앞선 p5
	assert.Equal(t, "p5", got.CaptainBlue)
}

func TestTeamDraft_TurnValidation(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)
	ctx := context.Background()

	got := h.get(t, m.ID)
	v := h.view(t, m.ID)
	require.Equal(t, models.TeamRed, v.Turn)

	err := h.matches.Pick(ctx, m.ID, got.CaptainBlue, v.Choices[0])
	assert.True(t, errors.Is(err, ErrNotYourTurn))

	err = h.matches.Pick(ctx, m.ID, v.Choices[1], v.Choices[0])
	assert.True(t, errors.Is(err, ErrNotCaptain))

	err = h.matches.Pick(ctx, m.ID, got.CaptainRed, got.CaptainBlue)
	assert.True(t, errors.Is(err, ErrInvalidPick))

	err = h.matches.Ban(ctx, m.ID, got.CaptainRed, "bind")
	assert.True(t, errors.Is(err, ErrWrongPhase))
	assert.True(t, errors.Is(err, ErrConflict))

	require.NoError(t, h.matches.Pick(ctx, m.ID, got.CaptainRed, v.Choices[0]))
	assert.Equal(t, models.TeamBlue, h.view(t, m.ID).Turn)
}

func TestTeamDraft_FollowsPickPattern(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)

	var turns []models.Team
	for {
		v := h.view(t, m.ID)
		if v.Phase != models.PhaseTeamDraft {
			break
		}
		turns = append(turns, v.Turn)
		require.NoError(t, h.matches.Pick(context.Background(), m.ID, v.TurnCaptain, v.Choices[0]))
	}

	assert.Equal(t, draftPattern[:7], turns)
	got := h.get(t, m.ID)
	assert.Len(t, got.Red, 5)
	assert.Len(t, got.Blue, 5)
}

func TestTeamDraft_TimeoutsStillYieldFiveAndFive(t *testing.T) {
	timeouts := slowTimeouts()
	timeouts.Pick = 5 * time.Millisecond
	h := newHarness(t, timeouts)
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainTopRatedPair)

	require.Eventually(t, func() bool {
		return h.view(t, m.ID).Phase == models.PhaseMapBan
	}, 2*time.Second, 5*time.Millisecond)

	got := h.get(t, m.ID)
	assert.Len(t, got.Red, 5)
	assert.Len(t, got.Blue, 5)
	for _, id := range got.Red {
		assert.NotContains(t, got.Blue, id)
	}
	all := append(slices.Clone(got.Red), got.Blue...)
	assert.ElementsMatch(t, got.Players, all)
}

func TestMapBan_LeavesExactlyOneMap(t *testing.T) {
	timeouts := slowTimeouts()
	timeouts.Ban = 5 * time.Millisecond
	h := newHarness(t, timeouts)
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)
	h.draftAll(t, m.ID)

	require.Eventually(t, func() bool {
		return h.view(t, m.ID).Phase == models.PhaseSideSelect
	}, 2*time.Second, 5*time.Millisecond)

	got := h.get(t, m.ID)
	assert.Len(t, got.BannedMaps, 6)
	assert.NotContains(t, got.BannedMaps, got.SelectedMap)
	assert.Contains(t, models.MapPool(), got.SelectedMap)
	assert.ElementsMatch(t, models.MapPool(), append(slices.Clone(got.BannedMaps), got.SelectedMap))
}

func TestMapBan_BlueBansFirstAndRejectsBannedMap(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)
	h.draftAll(t, m.ID)
	ctx := context.Background()
	got := h.get(t, m.ID)

	err := h.matches.Ban(ctx, m.ID, got.CaptainRed, "bind")
	assert.True(t, errors.Is(err, ErrNotYourTurn))

	require.NoError(t, h.matches.Ban(ctx, m.ID, got.CaptainBlue, "bind"))

	err = h.matches.Ban(ctx, m.ID, got.CaptainRed, "bind")
	assert.True(t, errors.Is(err, ErrInvalidMap))
	err = h.matches.Ban(ctx, m.ID, got.CaptainRed, "dust2")
	assert.True(t, errors.Is(err, ErrInvalidMap))
}

func TestSideSelect_OnlyLastBannerChooses(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)
	h.draftAll(t, m.ID)
	h.banAll(t, m.ID)
	ctx := context.Background()
	got := h.get(t, m.ID)

	err := h.matches.ChooseSide(ctx, m.ID, got.CaptainBlue, models.SideAttack)
	assert.True(t, errors.Is(err, ErrNotYourTurn))
	err = h.matches.ChooseSide(ctx, m.ID, got.CaptainRed, models.Side("middle"))
	assert.True(t, errors.Is(err, ErrInvalidSide))

	require.NoError(t, h.matches.ChooseSide(ctx, m.ID, got.CaptainRed, models.SideAttack))
	assert.Equal(t, models.TeamBlue, h.get(t, m.ID).DefendingTeam)
}

func TestSideSelect_TimeoutAssignsSide(t *testing.T) {
	timeouts := slowTimeouts()
	timeouts.Side = 5 * time.Millisecond
	h := newHarness(t, timeouts)
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)
	h.draftAll(t, m.ID)
	h.banAll(t, m.ID)

	require.Eventually(t, func() bool {
		return h.view(t, m.ID).Phase == models.PhaseScoreSubmit
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.get(t, m.ID).DefendingTeam.Valid())
}

func TestScoreSubmit_LockoutAndValidation(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.toScoreSubmit(t)
	ctx := context.Background()

	err := h.matches.SubmitScore(ctx, m.ID, m.CaptainRed, 13, 5)
	assert.True(t, errors.Is(err, ErrScoreLocked))

	h.clock.Advance(300 * time.Second)

	tests := []struct {
		name     string
		captain  string
		own, opp int
		want     error
	}{
		{"not a captain", m.Red[1], 13, 5, ErrNotCaptain},
		{"above range", m.CaptainRed, 14, 5, ErrInvalidScore},
		{"negative", m.CaptainRed, 13, -1, ErrInvalidScore},
		{"tie", m.CaptainRed, 12, 12, ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.matches.SubmitScore(ctx, m.ID, tt.captain, tt.own, tt.opp)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	require.NoError(t, h.matches.SubmitScore(ctx, m.ID, m.CaptainRed, 13, 5))
	err = h.matches.SubmitScore(ctx, m.ID, m.CaptainRed, 13, 5)
	assert.True(t, errors.Is(err, ErrAlreadyReported))
}

func TestScoreSubmit_DisagreementFlagsForAdmin(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.toScoreSubmit(t)
	ctx := context.Background()
	h.clock.Advance(301 * time.Second)

	require.NoError(t, h.matches.SubmitScore(ctx, m.ID, m.CaptainRed, 13, 5))
	err := h.matches.SubmitScore(ctx, m.ID, m.CaptainBlue, 13, 5)
	assert.True(t, errors.Is(err, ErrScoreDiscrepancy))

	got := h.get(t, m.ID)
	assert.True(t, got.Disputed)
	assert.Equal(t, models.PhaseScoreSubmit, got.Phase)
	assert.Equal(t, models.ResultUnset, got.Result)
	assert.Equal(t, 1, h.notifier.Count(models.EventAdminAlert))
	assert.True(t, h.matches.Live(m.ID))

	err = h.matches.SubmitScore(ctx, m.ID, m.CaptainBlue, 5, 13)
	assert.True(t, errors.Is(err, ErrAwaitingAdmin))

	// 관리자가 결과를 지정하면 종료
	done, err := h.admin.SetResult(ctx, m.ID, SetResultRequest{
		AdminID: "admin", Winner: models.TeamRed, RedScore: 13, BlueScore: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseComplete, done.Phase)
	assert.Len(t, done.RatingChanges, 10)
}

func TestPhaseTimer_StaleFiringIgnored(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	m := h.startMatch(t)
	h.readyAll(t, m)
	h.voteAll(t, m, models.CaptainRandomPair)
	ctx := context.Background()

	v := h.view(t, m.ID)
	require.NoError(t, h.matches.Pick(ctx, m.ID, v.TurnCaptain, v.Choices[0]))

	h.matches.mu.Lock()
	session := h.matches.sessions[m.ID]
	h.matches.mu.Unlock()
	require.NotNil(t, session)

	stale := []timerKey{
		{Phase: models.PhaseCaptainVote, Step: 0},
		{Phase: models.PhaseTeamDraft, Step: 0},
		{Phase: models.PhaseReadinessCheck, Step: 0},
	}
	for _, key := range stale {
		require.NoError(t, session.do(ctx, func() error { return session.onTimeout(key) }))
	}

	got := h.get(t, m.ID)
	assert.Equal(t, models.PhaseTeamDraft, got.Phase)
	assert.Len(t, got.Red, 2)
	assert.Len(t, got.Blue, 1)
}

func TestPhaseTimer_CancelStopsFiring(t *testing.T) {
	var timer PhaseTimer
	fired := make(chan timerKey, 1)

	timer.Arm(timerKey{Phase: models.PhaseMapBan, Step: 2}, 10*time.Millisecond, func(k timerKey) { fired <- k })
	timer.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, timer.Matches(timerKey{Phase: models.PhaseMapBan, Step: 2}))
}

func TestAdminCancel_FromAnyPhase(t *testing.T) {
	steps := map[models.Phase]func(h *harness, t *testing.T, m *models.Match){
		models.PhaseReadinessCheck: func(*harness, *testing.T, *models.Match) {},
		models.PhaseCaptainVote: func(h *harness, t *testing.T, m *models.Match) {
			h.readyAll(t, m)
		},
		models.PhaseTeamDraft: func(h *harness, t *testing.T, m *models.Match) {
			h.readyAll(t, m)
			h.voteAll(t, m, models.CaptainRandomPair)
		},
		models.PhaseMapBan: func(h *harness, t *testing.T, m *models.Match) {
			h.readyAll(t, m)
			h.voteAll(t, m, models.CaptainRandomPair)
			h.draftAll(t, m.ID)
		},
		models.PhaseSideSelect: func(h *harness, t *testing.T, m *models.Match) {
			h.readyAll(t, m)
			h.voteAll(t, m, models.CaptainRandomPair)
			h.draftAll(t, m.ID)
			h.banAll(t, m.ID)
		},
		models.PhaseScoreSubmit: func(h *harness, t *testing.T, m *models.Match) {
			h.readyAll(t, m)
			h.voteAll(t, m, models.CaptainRandomPair)
			h.draftAll(t, m.ID)
			h.banAll(t, m.ID)
			v := h.view(t, m.ID)
			require.NoError(t, h.matches.ChooseSide(context.Background(), m.ID, v.TurnCaptain, models.SideAttack))
		},
	}

	for phase, advance := range steps {
		t.Run(string(phase), func(t *testing.T) {
			h := newHarness(t, slowTimeouts())
			m := h.startMatch(t)
			advance(h, t, m)
			require.Equal(t, phase, h.view(t, m.ID).Phase)

			got, err := h.admin.Cancel(context.Background(), m.ID, "admin", "no show")
			require.NoError(t, err)
			assert.Equal(t, models.PhaseCancelled, got.Phase)
			assert.Equal(t, "no show", got.CancelReason)

			require.Eventually(t, func() bool { return h.matches.Active() == 0 }, time.Second, time.Millisecond)
			assert.Empty(t, got.RatingChanges)
		})
	}
}

func TestResume_ReopensScoreSubmitAndCancelsOthers(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Now()

	scoring := &models.Match{
		ID: "m-score", Bracket: models.BracketIronPlat, Players: playerIDs("a", 10),
		Red: playerIDs("a", 5), Blue: playerIDs("a", 10)[5:],
		CaptainRed: "a0", CaptainBlue: "a5",
		Phase: models.PhaseScoreSubmit, PhaseStarted: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	}
	banning := &models.Match{
		ID: "m-ban", Bracket: models.BracketIronPlat, Players: playerIDs("b", 10),
		Phase: models.PhaseMapBan, PhaseStarted: now, CreatedAt: now,
	}
	require.NoError(t, store.CreateMatch(ctx, scoring))
	require.NoError(t, store.CreateMatch(ctx, banning))

	h := newHarnessWithStore(t, config.DefaultPhaseTimeouts(), store)
	require.NoError(t, h.matches.Resume(ctx))

	assert.True(t, h.matches.Live("m-score"))
	assert.False(t, h.matches.Live("m-ban"))

	cancelled, err := store.GetMatch(ctx, "m-ban")
	require.NoError(t, err)
	assert.Equal(t, models.ResultCancelled, cancelled.Result)
	assert.Equal(t, RestartCancelReason, cancelled.CancelReason)

	// 잠금 시간이 이미 지났으므로 바로 제출 가능
	require.NoError(t, h.matches.SubmitScore(ctx, "m-score", "a0", 13, 11))
	require.NoError(t, h.matches.SubmitScore(ctx, "m-score", "a5", 11, 13))
	done, err := store.GetMatch(ctx, "m-score")
	require.NoError(t, err)
	assert.Equal(t, models.ResultRed, done.Result)
}

// cancelOnListStore 활성 매치 목록을 반환하면서 호출 컨텍스트를 취소
type cancelOnListStore struct {
	*memory.Store
	cancel context.CancelFunc
}

func (s *cancelOnListStore) ListActiveMatches(ctx context.Context) ([]*models.Match, error) {
	active, err := s.Store.ListActiveMatches(ctx)
	s.cancel()
	return active, err
}

func TestResume_LogsWhenLockoutTimerCannotBeArmed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancelOnListStore{Store: memory.NewStore(), cancel: cancel}

	now := time.Now()
	require.NoError(t, store.CreateMatch(ctx, &models.Match{
		ID: "m-score", Bracket: models.BracketIronPlat, Players: playerIDs("a", 10),
		Red: playerIDs("a", 5), Blue: playerIDs("a", 10)[5:],
		CaptainRed: "a0", CaptainBlue: "a5",
		Phase: models.PhaseScoreSubmit, PhaseStarted: now, CreatedAt: now,
	}))

	h := newHarnessWithStore(t, config.DefaultPhaseTimeouts(), store)
	core, logs := observer.New(zap.WarnLevel)
	h.matches.deps.logger = zap.New(core)

	require.NoError(t, h.matches.Resume(ctx))
	assert.True(t, h.matches.Live("m-score"))

	entries := logs.FilterMessage("Failed to re-arm score lockout timer").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-score", entries[0].ContextMap()["matchId"])
}

func TestMatchService_UnknownMatch(t *testing.T) {
	h := newHarness(t, slowTimeouts())
	_, err := h.matches.View(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrMatchNotFound))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = h.matches.Start(context.Background(), models.BracketDiaAsc, nil)
	assert.True(t, errors.Is(err, ErrTeamsIncomplete))
}
