package service

import (
	"sort"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// vote 참가자의 주장 선정 방식 투표. 같은 참가자의 재투표는 덮어씀
func (s *PhaseSession) vote(playerID string, method models.CaptainMethod) error {
	if err := s.requirePhase(models.PhaseCaptainVote); err != nil {
		return err
	}
	if err := s.requireParticipant(playerID); err != nil {
		return err
	}
	if !method.Valid() {
		return ErrInvalidMethod
	}

	s.votes[playerID] = method
	if s.voteCount(method) >= captainVoteMajority {
		return s.resolveCaptains(method)
	}

	s.notify(models.EventMatchUpdated)
	return nil
}

func (s *PhaseSession) voteCount(method models.CaptainMethod) int {
	n := 0
	for _, m := range s.votes {
		if m == method {
			n++
		}
	}
	return n
}

// resolveCaptains 주장 두 명 확정 후 드래프트 시작
func (s *PhaseSession) resolveCaptains(method models.CaptainMethod) error {
	var red, blue string
	switch method {
	case models.CaptainRandomPair:
		idx := s.rng.Perm(len(s.match.Players))
		red, blue = s.match.Players[idx[0]], s.match.Players[idx[1]]
	default:
		method = models.CaptainTopRatedPair
		red, blue = s.topRatedPair()
	}

	s.match.CaptainMethod = method
	s.match.CaptainRed = red
	s.match.CaptainBlue = blue
	s.match.Red = []string{red}
	s.match.Blue = []string{blue}
	if s.rng.IntN(2) == 0 {
		s.match.LobbyMaster = red
	} else {
		s.match.LobbyMaster = blue
	}

	s.deps.logger.Info("Captains selected",
		zap.String("matchId", s.match.ID),
		zap.String("method", string(method)),
		zap.String("red", red),
		zap.String("blue", blue))

	s.enter(models.PhaseTeamDraft)
	return s.commit()
}

// topRatedPair 포인트 상위 두 명. 동점은 큐 순서, 더 높은 쪽이 레드
// 레이팅 조회 실패 시 전원 기본 점수로 간주
func (s *PhaseSession) topRatedPair() (string, string) {
	table, err := s.deps.leaderboard.Table(s.ctx, s.match.Players)
	if err != nil {
		s.deps.logger.Warn("Rating lookup failed, using queue order",
			zap.String("matchId", s.match.ID),
			zap.Error(err))
		table = nil
	}

	points := func(id string) int {
		if e, ok := table[id]; ok {
			return e.Points
		}
		return models.BaselinePoints
	}

	ranked := append([]string(nil), s.match.Players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return points(ranked[i]) > points(ranked[j])
	})
	return ranked[0], ranked[1]
}
