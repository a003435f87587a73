package service

import (
	"fmt"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// markPresent 참가자 한 명의 입장 확인
func (s *PhaseSession) markPresent(playerID string) error {
	if err := s.requirePhase(models.PhaseReadinessCheck); err != nil {
		return err
	}
	if err := s.requireParticipant(playerID); err != nil {
		return err
	}
	if s.present[playerID] {
		return nil
	}
	s.present[playerID] = true
	return s.checkReady()
}

// reportPresence 음성 채널에 있는 전체 인원 보고 (이전 보고를 대체)
func (s *PhaseSession) reportPresence(playerIDs []string) error {
	if err := s.requirePhase(models.PhaseReadinessCheck); err != nil {
		return err
	}

	present := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		if s.match.HasPlayer(id) {
			present[id] = true
		}
	}
	s.present = present
	return s.checkReady()
}

func (s *PhaseSession) checkReady() error {
	if len(s.present) < len(s.match.Players) {
		s.notify(models.EventMatchUpdated)
		return nil
	}

	s.deps.logger.Info("All participants present",
		zap.String("matchId", s.match.ID))
	s.enter(models.PhaseCaptainVote)
	return s.commit()
}

func (s *PhaseSession) readinessTimeout() error {
	missing := make([]string, 0)
	for _, id := range s.match.Players {
		if !s.present[id] {
			missing = append(missing, id)
		}
	}
	s.deps.logger.Warn("Readiness check failed",
		zap.String("matchId", s.match.ID),
		zap.Strings("missing", missing))

	return s.cancel(fmt.Sprintf("readiness check timed out: %d/%d present",
		len(s.present), len(s.match.Players)))
}
