package models

import (
	"slices"
	"time"
)

// Phase 매치 진행 단계 (정의 순서 = 진행 순서)
type Phase string

const (
	PhaseReadinessCheck Phase = "readiness_check"
	PhaseCaptainVote    Phase = "captain_vote"
	PhaseTeamDraft      Phase = "team_draft"
	PhaseMapBan         Phase = "map_ban"
	PhaseSideSelect     Phase = "side_select"
	PhaseScoreSubmit    Phase = "score_submit"
	PhaseComplete       Phase = "complete"
	PhaseCancelled      Phase = "cancelled"
)

var phaseOrder = map[Phase]int{
	PhaseReadinessCheck: 0,
	PhaseCaptainVote:    1,
	PhaseTeamDraft:      2,
	PhaseMapBan:         3,
	PhaseSideSelect:     4,
	PhaseScoreSubmit:    5,
	PhaseComplete:       6,
	PhaseCancelled:      6,
}

// Order 단계 순서 (Complete/Cancelled는 동일한 종료 순서)
func (p Phase) Order() int {
	if o, ok := phaseOrder[p]; ok {
		return o
	}
	return -1
}

func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseCancelled
}

type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

func (t Team) Valid() bool {
	return t == TeamRed || t == TeamBlue
}

func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

type MatchResult string

const (
	ResultUnset     MatchResult = ""
	ResultRed       MatchResult = "red"
	ResultBlue      MatchResult = "blue"
	ResultCancelled MatchResult = "cancelled"
)

// ResultFor 승리 팀에 해당하는 결과
func ResultFor(winner Team) MatchResult {
	if winner == TeamRed {
		return ResultRed
	}
	return ResultBlue
}

// Winner 결과가 승패인 경우 승리 팀
func (r MatchResult) Winner() (Team, bool) {
	switch r {
	case ResultRed:
		return TeamRed, true
	case ResultBlue:
		return TeamBlue, true
	}
	return "", false
}

type Side string

const (
	SideAttack  Side = "attack"
	SideDefense Side = "defense"
)

func (s Side) Valid() bool {
	return s == SideAttack || s == SideDefense
}

// CaptainMethod 주장 선정 방식
type CaptainMethod string

const (
	CaptainTopRatedPair CaptainMethod = "top-rated-pair"
	CaptainRandomPair   CaptainMethod = "random-pair"
)

func (m CaptainMethod) Valid() bool {
	return m == CaptainTopRatedPair || m == CaptainRandomPair
}

// MapPool 밴픽 대상 맵 (7개)
func MapPool() []string {
	return []string{"ascent", "bind", "haven", "icebox", "lotus", "split", "sunset"}
}

// ScoreReport 주장이 제출한 스코어 (자기 팀 기준)
type ScoreReport struct {
	CaptainID   string    `json:"captainId"`
	Team        Team      `json:"team"`
	Own         int       `json:"own"`
	Opponent    int       `json:"opponent"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// RedBlue 레드/블루 기준 스코어로 변환
func (r ScoreReport) RedBlue() (red, blue int) {
	if r.Team == TeamRed {
		return r.Own, r.Opponent
	}
	return r.Opponent, r.Own
}

type Match struct {
	ID            string         `json:"id" db:"id"`
	Bracket       Bracket        `json:"bracket" db:"bracket"`
	Players       []string       `json:"players" db:"players"`
	Red           []string       `json:"red" db:"red"`
	Blue          []string       `json:"blue" db:"blue"`
	CaptainRed    string         `json:"captainRed,omitempty" db:"captain_red"`
	CaptainBlue   string         `json:"captainBlue,omitempty" db:"captain_blue"`
	LobbyMaster   string         `json:"lobbyMaster,omitempty" db:"lobby_master"`
	CaptainMethod CaptainMethod  `json:"captainMethod,omitempty" db:"captain_method"`
	DefendingTeam Team           `json:"defendingTeam,omitempty" db:"defending_team"`
	BannedMaps    []string       `json:"bannedMaps" db:"banned_maps"`
	SelectedMap   string         `json:"selectedMap,omitempty" db:"selected_map"`
	RedScore      *int           `json:"redScore,omitempty" db:"red_score"`
	BlueScore     *int           `json:"blueScore,omitempty" db:"blue_score"`
	Result        MatchResult    `json:"result" db:"result"`
	Phase         Phase          `json:"phase" db:"phase"`
	PhaseStarted  time.Time      `json:"phaseStartedAt" db:"phase_started_at"`
	Disputed      bool           `json:"disputed" db:"disputed"`
	CancelReason  string         `json:"cancelReason,omitempty" db:"cancel_reason"`
	ScoreReports  []ScoreReport  `json:"scoreReports,omitempty" db:"score_reports"`
	RatingChanges []RatingChange `json:"ratingChanges,omitempty" db:"rating_changes"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	EndedAt       *time.Time     `json:"endedAt,omitempty" db:"ended_at"`
}

// HasPlayer 매치 참가 여부
func (m *Match) HasPlayer(playerID string) bool {
	return slices.Contains(m.Players, playerID)
}

// TeamOf 플레이어가 속한 팀 (드래프트 전이면 false)
func (m *Match) TeamOf(playerID string) (Team, bool) {
	if slices.Contains(m.Red, playerID) {
		return TeamRed, true
	}
	if slices.Contains(m.Blue, playerID) {
		return TeamBlue, true
	}
	return "", false
}

// Captain 팀 주장 ID
func (m *Match) Captain(team Team) string {
	if team == TeamRed {
		return m.CaptainRed
	}
	return m.CaptainBlue
}

// Roster 팀 구성원
func (m *Match) Roster(team Team) []string {
	if team == TeamRed {
		return m.Red
	}
	return m.Blue
}

// CaptainTeam 주장 ID로 팀 조회
func (m *Match) CaptainTeam(playerID string) (Team, bool) {
	switch playerID {
	case "":
		return "", false
	case m.CaptainRed:
		return TeamRed, true
	case m.CaptainBlue:
		return TeamBlue, true
	}
	return "", false
}

// Drafted 양 팀이 5명씩 구성되었는지
func (m *Match) Drafted() bool {
	return len(m.Red) == QueueCapacity/2 && len(m.Blue) == QueueCapacity/2
}

// RatingApplied 레이팅이 이미 반영되었는지 (재적용 방지 마커)
func (m *Match) RatingApplied() bool {
	return len(m.RatingChanges) > 0
}

// Clone 깊은 복사 (세션 외부로 상태를 넘길 때 사용)
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Players = slices.Clone(m.Players)
	c.Red = slices.Clone(m.Red)
	c.Blue = slices.Clone(m.Blue)
	c.BannedMaps = slices.Clone(m.BannedMaps)
	c.ScoreReports = slices.Clone(m.ScoreReports)
	c.RatingChanges = slices.Clone(m.RatingChanges)
	if m.RedScore != nil {
		v := *m.RedScore
		c.RedScore = &v
	}
	if m.BlueScore != nil {
		v := *m.BlueScore
		c.BlueScore = &v
	}
	if m.EndedAt != nil {
		v := *m.EndedAt
		c.EndedAt = &v
	}
	return &c
}
