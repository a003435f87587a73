package service

import (
	"slices"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
)

// PhaseView 프레젠테이션 어댑터가 렌더링하는 현재 단계 상태
type PhaseView struct {
	MatchID       string                       `json:"matchId"`
	Bracket       models.Bracket               `json:"bracket"`
	Phase         models.Phase                 `json:"phase"`
	Deadline      *time.Time                   `json:"deadline,omitempty"`
	RemainingMs   int64                        `json:"remainingMs"`
	Turn          models.Team                  `json:"turn,omitempty"`
	TurnCaptain   string                       `json:"turnCaptain,omitempty"`
	Choices       []string                     `json:"choices,omitempty"`
	Present       []string                     `json:"present,omitempty"`
	Votes         map[models.CaptainMethod]int `json:"votes,omitempty"`
	Players       []string                     `json:"players"`
	Red           []string                     `json:"red"`
	Blue          []string                     `json:"blue"`
	CaptainRed    string                       `json:"captainRed,omitempty"`
	CaptainBlue   string                       `json:"captainBlue,omitempty"`
	LobbyMaster   string                       `json:"lobbyMaster,omitempty"`
	BannedMaps    []string                     `json:"bannedMaps"`
	SelectedMap   string                       `json:"selectedMap,omitempty"`
	DefendingTeam models.Team                  `json:"defendingTeam,omitempty"`
	Reported      []models.Team                `json:"reported,omitempty"`
	Disputed      bool                         `json:"disputed"`
	Result        models.MatchResult           `json:"result"`
	CancelReason  string                       `json:"cancelReason,omitempty"`
}

func (s *PhaseSession) view() PhaseView {
	m := s.match
	v := PhaseView{
		MatchID:       m.ID,
		Bracket:       m.Bracket,
		Phase:         m.Phase,
		Players:       slices.Clone(m.Players),
		Red:           slices.Clone(m.Red),
		Blue:          slices.Clone(m.Blue),
		CaptainRed:    m.CaptainRed,
		CaptainBlue:   m.CaptainBlue,
		LobbyMaster:   m.LobbyMaster,
		BannedMaps:    slices.Clone(m.BannedMaps),
		SelectedMap:   m.SelectedMap,
		DefendingTeam: m.DefendingTeam,
		Disputed:      m.Disputed,
		Result:        m.Result,
		CancelReason:  m.CancelReason,
	}

	if _, deadline, armed := s.timer.Current(); armed && !m.Phase.Terminal() {
		d := deadline
		v.Deadline = &d
		v.RemainingMs = max(0, time.Until(deadline).Milliseconds())
	}

	switch m.Phase {
	case models.PhaseReadinessCheck:
		for _, id := range m.Players {
			if s.present[id] {
				v.Present = append(v.Present, id)
			}
		}
		v.Choices = []string{"present"}
	case models.PhaseCaptainVote:
		v.Votes = map[models.CaptainMethod]int{
			models.CaptainTopRatedPair: s.voteCount(models.CaptainTopRatedPair),
			models.CaptainRandomPair:   s.voteCount(models.CaptainRandomPair),
		}
		v.Choices = []string{string(models.CaptainTopRatedPair), string(models.CaptainRandomPair)}
	case models.PhaseTeamDraft:
		v.Turn = s.draftTurn()
		v.Choices = s.undrafted()
	case models.PhaseMapBan:
		v.Turn = s.banTurn()
		v.Choices = s.availableMaps()
	case models.PhaseSideSelect:
		v.Turn = s.sideChooser()
		v.Choices = []string{string(models.SideAttack), string(models.SideDefense)}
	case models.PhaseScoreSubmit:
		opens := s.submissionOpensAt()
		v.Deadline = &opens
		v.RemainingMs = max(0, time.Until(opens).Milliseconds())
		for _, r := range m.ScoreReports {
			v.Reported = append(v.Reported, r.Team)
		}
	}
	if v.Turn != "" {
		v.TurnCaptain = m.Captain(v.Turn)
	}
	return v
}
