package service

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// scoreInput 주장이 제출하는 스코어 (무승부 불가)
type scoreInput struct {
	Own      int `validate:"min=0,max=13"`
	Opponent int `validate:"min=0,max=13,nefield=Own"`
}

var scoreValidator = validator.New()

func validateScore(own, opponent int) error {
	if err := scoreValidator.Struct(scoreInput{Own: own, Opponent: opponent}); err != nil {
		return errors.Wrap(ErrInvalidScore, err.Error())
	}
	return nil
}

// submissionOpensAt 스코어 제출 잠금 해제 시각
func (s *PhaseSession) submissionOpensAt() time.Time {
	return s.match.PhaseStarted.Add(s.deps.timeouts.ScoreLockout)
}

// submitScore 주장의 (자기 팀, 상대 팀) 스코어 제출
// 두 보고가 일치하면 확정, 다르면 분쟁 처리 후 관리자 대기
func (s *PhaseSession) submitScore(captainID string, own, opponent int) error {
	if err := s.requirePhase(models.PhaseScoreSubmit); err != nil {
		return err
	}
	if s.match.Disputed {
		return ErrAwaitingAdmin
	}
	team, ok := s.match.CaptainTeam(captainID)
	if !ok {
		return ErrNotCaptain
	}
	if s.deps.now().Before(s.submissionOpensAt()) {
		return errors.Wrapf(ErrScoreLocked, "opens at %s", s.submissionOpensAt().UTC().Format(time.RFC3339))
	}
	if err := validateScore(own, opponent); err != nil {
		return err
	}
	for _, r := range s.match.ScoreReports {
		if r.Team == team {
			return ErrAlreadyReported
		}
	}

	report := models.ScoreReport{
		CaptainID:   captainID,
		Team:        team,
		Own:         own,
		Opponent:    opponent,
		SubmittedAt: s.deps.now(),
	}
	s.match.ScoreReports = append(s.match.ScoreReports, report)

	if len(s.match.ScoreReports) < 2 {
		return s.commit()
	}

	firstRed, firstBlue := s.match.ScoreReports[0].RedBlue()
	red, blue := report.RedBlue()
	if firstRed != red || firstBlue != blue {
		return s.dispute()
	}

	winner := models.TeamRed
	if blue > red {
		winner = models.TeamBlue
	}
	return s.finalize(winner, red, blue)
}

// dispute 보고 불일치: 매치는 열린 채로 관리자 알림
func (s *PhaseSession) dispute() error {
	s.match.Disputed = true

	s.deps.logger.Warn("Score reports disagree",
		zap.String("matchId", s.match.ID),
		zap.Any("reports", s.match.ScoreReports))

	if err := s.commit(); err != nil {
		return err
	}
	if err := s.deps.notifier.Publish(s.ctx, models.Event{
		Type:      models.EventAdminAlert,
		MatchID:   s.match.ID,
		Bracket:   s.match.Bracket,
		Payload:   s.view(),
		Timestamp: s.deps.now(),
	}); err != nil {
		s.deps.logger.Error("Failed to alert admins", zap.String("matchId", s.match.ID), zap.Error(err))
	}
	return ErrScoreDiscrepancy
}

// submissionOpened 잠금 해제 알림
func (s *PhaseSession) submissionOpened() error {
	s.timer.Cancel()
	s.notify(models.EventMatchUpdated)
	return nil
}

// forceResult 관리자 결과 지정 (진행 중 세션)
func (s *PhaseSession) forceResult(winner models.Team, red, blue int) error {
	if s.match.Phase.Terminal() {
		return ErrMatchClosed
	}
	if !winner.Valid() {
		return ErrInvalidResult
	}
	return s.finalize(winner, red, blue)
}
