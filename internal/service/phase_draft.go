package service

import (
	"slices"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// draftTurn 현재 픽 차례 팀
func (s *PhaseSession) draftTurn() models.Team {
	return draftPattern[s.step]
}

// undrafted 아직 팀이 없는 참가자 (큐 순서)
func (s *PhaseSession) undrafted() []string {
	var left []string
	for _, id := range s.match.Players {
		if _, ok := s.match.TeamOf(id); !ok {
			left = append(left, id)
		}
	}
	return left
}

func (s *PhaseSession) pick(captainID, playerID string) error {
	if err := s.requirePhase(models.PhaseTeamDraft); err != nil {
		return err
	}
	turn := s.draftTurn()
	if err := s.requireTurn(captainID, turn); err != nil {
		return err
	}
	if !slices.Contains(s.undrafted(), playerID) {
		return ErrInvalidPick
	}

	s.assign(turn, playerID)
	return s.afterPick()
}

func (s *PhaseSession) pickTimeout() error {
	left := s.undrafted()
	if len(left) == 0 {
		return nil
	}
	turn := s.draftTurn()
	playerID := left[s.rng.IntN(len(left))]

	s.deps.logger.Info("Pick timed out, assigning random player",
		zap.String("matchId", s.match.ID),
		zap.String("team", string(turn)),
		zap.String("playerId", playerID))

	s.assign(turn, playerID)
	return s.afterPick()
}

func (s *PhaseSession) assign(team models.Team, playerID string) {
	if team == models.TeamRed {
		s.match.Red = append(s.match.Red, playerID)
	} else {
		s.match.Blue = append(s.match.Blue, playerID)
	}
}

// afterPick 남은 한 명은 마지막 슬롯 팀에 자동 배정하고 맵 밴으로 이동
func (s *PhaseSession) afterPick() error {
	left := s.undrafted()
	if len(left) > 1 {
		s.advanceStep(s.deps.timeouts.Pick)
		return s.commit()
	}

	if len(left) == 1 {
		last := draftPattern[len(draftPattern)-1]
		s.assign(last, left[0])
	}

	s.deps.logger.Info("Draft complete",
		zap.String("matchId", s.match.ID),
		zap.Strings("red", s.match.Red),
		zap.Strings("blue", s.match.Blue))

	s.enter(models.PhaseMapBan)
	return s.commit()
}

// ---- map ban ----

// banTurn 블루가 먼저 밴하고 번갈아 진행, 마지막 밴은 레드
func (s *PhaseSession) banTurn() models.Team {
	if s.step%2 == 0 {
		return models.TeamBlue
	}
	return models.TeamRed
}

func (s *PhaseSession) availableMaps() []string {
	var maps []string
	for _, m := range models.MapPool() {
		if !slices.Contains(s.match.BannedMaps, m) {
			maps = append(maps, m)
		}
	}
	return maps
}

func (s *PhaseSession) ban(captainID, mapName string) error {
	if err := s.requirePhase(models.PhaseMapBan); err != nil {
		return err
	}
	if err := s.requireTurn(captainID, s.banTurn()); err != nil {
		return err
	}
	if !slices.Contains(s.availableMaps(), mapName) {
		return ErrInvalidMap
	}

	s.match.BannedMaps = append(s.match.BannedMaps, mapName)
	return s.afterBan()
}

func (s *PhaseSession) banTimeout() error {
	maps := s.availableMaps()
	mapName := maps[s.rng.IntN(len(maps))]

	s.deps.logger.Info("Ban timed out, banning random map",
		zap.String("matchId", s.match.ID),
		zap.String("team", string(s.banTurn())),
		zap.String("map", mapName))

	s.match.BannedMaps = append(s.match.BannedMaps, mapName)
	return s.afterBan()
}

func (s *PhaseSession) afterBan() error {
	if len(s.match.BannedMaps) < banCount {
		s.advanceStep(s.deps.timeouts.Ban)
		return s.commit()
	}

	s.match.SelectedMap = s.availableMaps()[0]
	s.deps.logger.Info("Map selected",
		zap.String("matchId", s.match.ID),
		zap.String("map", s.match.SelectedMap))

	s.enter(models.PhaseSideSelect)
	return s.commit()
}

// ---- side select ----

// sideChooser 마지막으로 밴한 팀이 진영을 고름
func (s *PhaseSession) sideChooser() models.Team {
	if banCount%2 == 0 {
		return models.TeamRed
	}
	return models.TeamBlue
}

func (s *PhaseSession) chooseSide(captainID string, side models.Side) error {
	if err := s.requirePhase(models.PhaseSideSelect); err != nil {
		return err
	}
	if err := s.requireTurn(captainID, s.sideChooser()); err != nil {
		return err
	}
	if !side.Valid() {
		return ErrInvalidSide
	}
	return s.applySide(side)
}

func (s *PhaseSession) sideTimeout() error {
	side := models.SideAttack
	if s.rng.IntN(2) == 0 {
		side = models.SideDefense
	}
	s.deps.logger.Info("Side select timed out, assigning random side",
		zap.String("matchId", s.match.ID),
		zap.String("side", string(side)))
	return s.applySide(side)
}

func (s *PhaseSession) applySide(side models.Side) error {
	chooser := s.sideChooser()
	if side == models.SideDefense {
		s.match.DefendingTeam = chooser
	} else {
		s.match.DefendingTeam = chooser.Opponent()
	}

	s.enter(models.PhaseScoreSubmit)
	return s.commit()
}
