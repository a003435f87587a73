package service

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kryo1337/valodiscordhub-sub000/internal/config"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// draftPattern 픽 순서. 마지막 슬롯은 남은 한 명이 자동 배정됨
var draftPattern = []models.Team{
	models.TeamRed, models.TeamBlue, models.TeamRed, models.TeamBlue,
	models.TeamBlue, models.TeamRed, models.TeamBlue, models.TeamRed,
}

// banCount 7개 맵 중 6개를 밴
const banCount = 6

const captainVoteMajority = 6

type command struct {
	fn    func() error
	reply chan error
}

// sessionDeps 세션이 공유하는 협력자
type sessionDeps struct {
	matches     MatchStore
	leaderboard *LeaderboardService
	notifier    Notifier
	timeouts    config.PhaseTimeouts
	logger      *zap.Logger
	now         func() time.Time
}

// PhaseSession 한 매치의 상태와 허용된 전이
// 모든 변경은 run 고루틴에서만 일어나므로 내부 잠금이 없음
type PhaseSession struct {
	deps  *sessionDeps
	match *models.Match
	rng   *rand.Rand

	inbox chan command
	stop  chan struct{}
	done  chan struct{}
	timer PhaseTimer
	ctx   context.Context

	step    int
	present map[string]bool
	votes   map[string]models.CaptainMethod

	onClose func(id string)
}

func newPhaseSession(ctx context.Context, deps *sessionDeps, match *models.Match, rng *rand.Rand, onClose func(string)) *PhaseSession {
	return &PhaseSession{
		deps:    deps,
		match:   match,
		rng:     rng,
		inbox:   make(chan command),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		ctx:     ctx,
		present: make(map[string]bool),
		votes:   make(map[string]models.CaptainMethod),
		onClose: onClose,
	}
}

func (s *PhaseSession) ID() string {
	return s.match.ID
}

// run 이벤트 루프. 종료 단계에 도달하거나 stop이 닫히면 반환
func (s *PhaseSession) run() {
	defer func() {
		s.timer.Cancel()
		close(s.done)
		if s.onClose != nil {
			s.onClose(s.match.ID)
		}
	}()

	for {
		select {
		case cmd := <-s.inbox:
			err := cmd.fn()
			if cmd.reply != nil {
				cmd.reply <- err
			}
			if s.match.Phase.Terminal() {
				return
			}
		case <-s.stop:
			return
		}
	}
}

// do fn을 세션 고루틴에서 실행하고 결과를 기다림
func (s *PhaseSession) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	reply := make(chan error, 1)
	select {
	case s.inbox <- command{fn: fn, reply: reply}:
	case <-s.done:
		return ErrMatchClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post 응답 없이 명령을 넣음 (타이머 콜백용)
func (s *PhaseSession) post(fn func() error) {
	select {
	case s.inbox <- command{fn: fn}:
	case <-s.done:
	}
}

// shutdown 매치 상태를 바꾸지 않고 루프만 종료 (프로세스 종료 시)
func (s *PhaseSession) shutdown() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

// ---- 공통 전이 ----

func (s *PhaseSession) armTimer(d time.Duration) {
	s.timer.Arm(timerKey{Phase: s.match.Phase, Step: s.step}, d, func(key timerKey) {
		s.post(func() error { return s.onTimeout(key) })
	})
}

// enter 다음 단계로 이동. 단계 순서는 항상 증가해야 함
func (s *PhaseSession) enter(next models.Phase) {
	if next.Order() <= s.match.Phase.Order() {
		s.deps.logger.Error("Refusing non-forward phase transition",
			zap.String("matchId", s.match.ID),
			zap.String("from", string(s.match.Phase)),
			zap.String("to", string(next)))
		return
	}
	s.timer.Cancel()
	s.match.Phase = next
	s.match.PhaseStarted = s.deps.now()
	s.step = 0

	switch next {
	case models.PhaseCaptainVote:
		s.armTimer(s.deps.timeouts.CaptainVote)
	case models.PhaseTeamDraft:
		s.armTimer(s.deps.timeouts.Pick)
	case models.PhaseMapBan:
		s.armTimer(s.deps.timeouts.Ban)
	case models.PhaseSideSelect:
		s.armTimer(s.deps.timeouts.Side)
	case models.PhaseScoreSubmit:
		s.armTimer(s.deps.timeouts.ScoreLockout)
	}
}

// advanceStep 같은 단계 안에서 다음 픽/밴으로 이동
func (s *PhaseSession) advanceStep(d time.Duration) {
	s.timer.Cancel()
	s.step++
	s.armTimer(d)
}

// onTimeout 무장 당시 키가 현재 상태와 다르면 무시
func (s *PhaseSession) onTimeout(key timerKey) error {
	if !s.timer.Matches(key) || key.Phase != s.match.Phase || key.Step != s.step {
		s.deps.logger.Debug("Ignoring stale phase timer",
			zap.String("matchId", s.match.ID),
			zap.String("phase", string(key.Phase)),
			zap.Int("step", key.Step))
		return nil
	}

	s.deps.logger.Info("Phase timed out",
		zap.String("matchId", s.match.ID),
		zap.String("phase", string(key.Phase)),
		zap.Int("step", key.Step))

	switch key.Phase {
	case models.PhaseReadinessCheck:
		return s.readinessTimeout()
	case models.PhaseCaptainVote:
		return s.resolveCaptains(models.CaptainTopRatedPair)
	case models.PhaseTeamDraft:
		return s.pickTimeout()
	case models.PhaseMapBan:
		return s.banTimeout()
	case models.PhaseSideSelect:
		return s.sideTimeout()
	case models.PhaseScoreSubmit:
		return s.submissionOpened()
	}
	return nil
}

// cancel 어느 단계에서든 매치를 취소하고 타이머를 정리
func (s *PhaseSession) cancel(reason string) error {
	if s.match.Phase.Terminal() {
		return ErrAlreadyCancelled
	}
	s.timer.Cancel()

	now := s.deps.now()
	s.match.Phase = models.PhaseCancelled
	s.match.PhaseStarted = now
	s.match.Result = models.ResultCancelled
	s.match.CancelReason = reason
	s.match.EndedAt = &now

	s.deps.logger.Info("Match cancelled",
		zap.String("matchId", s.match.ID),
		zap.String("reason", reason))

	err := s.persist()
	s.notify(models.EventMatchResult)
	return err
}

// finalize 승자 확정 후 레이팅 반영. 반영 실패 시 단계는 그대로 유지
func (s *PhaseSession) finalize(winner models.Team, red, blue int) error {
	if !s.match.Drafted() {
		return ErrTeamsIncomplete
	}

	changes, err := s.deps.leaderboard.Apply(s.ctx, s.match, winner)
	if err != nil {
		s.deps.logger.Error("Failed to apply rating",
			zap.String("matchId", s.match.ID),
			zap.Error(err))
		return err
	}

	s.timer.Cancel()
	now := s.deps.now()
	s.match.RatingChanges = changes
	s.match.RedScore = &red
	s.match.BlueScore = &blue
	s.match.Result = models.ResultFor(winner)
	s.match.Phase = models.PhaseComplete
	s.match.PhaseStarted = now
	s.match.EndedAt = &now

	s.deps.logger.Info("Match completed",
		zap.String("matchId", s.match.ID),
		zap.String("winner", string(winner)),
		zap.Int("red", red),
		zap.Int("blue", blue))

	// 레이팅은 이미 반영됨: 저장 실패는 기록만 하고 되돌리지 않음
	if err := s.persist(); err != nil {
		s.deps.logger.Error("Match completed but could not be persisted",
			zap.String("matchId", s.match.ID),
			zap.Error(err))
	}
	s.notify(models.EventMatchResult)
	return nil
}

func (s *PhaseSession) persist() error {
	if err := s.deps.matches.PatchMatch(s.ctx, s.match); err != nil {
		s.deps.logger.Error("Failed to persist match",
			zap.String("matchId", s.match.ID),
			zap.String("phase", string(s.match.Phase)),
			zap.Error(err))
		return external(err, "patch match")
	}
	return nil
}

func (s *PhaseSession) notify(eventType models.EventType) {
	if err := s.deps.notifier.Publish(s.ctx, models.Event{
		Type:       eventType,
		MatchID:    s.match.ID,
		Bracket:    s.match.Bracket,
		Recipients: slices.Clone(s.match.Players),
		Payload:    s.view(),
		Timestamp:  s.deps.now(),
	}); err != nil {
		s.deps.logger.Warn("Failed to publish match event",
			zap.String("matchId", s.match.ID),
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}

// commit 상태 변경 후 저장과 match_updated 알림
func (s *PhaseSession) commit() error {
	err := s.persist()
	s.notify(models.EventMatchUpdated)
	return err
}

// ---- 검증 헬퍼 ----

func (s *PhaseSession) requirePhase(phase models.Phase) error {
	if s.match.Phase == phase {
		return nil
	}
	if s.match.Phase.Terminal() {
		return ErrMatchClosed
	}
	return errors.Wrapf(ErrWrongPhase, "match is in %s", s.match.Phase)
}

func (s *PhaseSession) requireParticipant(playerID string) error {
	if !s.match.HasPlayer(playerID) {
		return ErrNotParticipant
	}
	return nil
}

// requireTurn 행위자가 해당 차례 팀의 주장인지
func (s *PhaseSession) requireTurn(captainID string, turn models.Team) error {
	team, ok := s.match.CaptainTeam(captainID)
	if !ok {
		return ErrNotCaptain
	}
	if team != turn {
		return ErrNotYourTurn
	}
	return nil
}

func (s *PhaseSession) snapshot() *models.Match {
	return s.match.Clone()
}
