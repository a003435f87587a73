package models

import "math"

// BaselinePoints 레이팅 테이블에 없는 플레이어의 시작 점수
const BaselinePoints = 1000

type RatingEntry struct {
	PlayerID      string  `json:"playerId" db:"player_id"`
	Rank          string  `json:"rank" db:"rank"`
	Points        int     `json:"points" db:"points"`
	MatchesPlayed int     `json:"matchesPlayed" db:"matches_played"`
	Wins          int     `json:"wins" db:"wins"`
	Losses        int     `json:"losses" db:"losses"`
	Winrate       float64 `json:"winrate" db:"winrate"`
	// Streak 양수 = 연승, 음수 = 연패
	Streak int `json:"streak" db:"streak"`
}

// NewRatingEntry 기본 점수로 새 엔트리 생성
func NewRatingEntry(playerID, rank string) RatingEntry {
	return RatingEntry{
		PlayerID: playerID,
		Rank:     rank,
		Points:   BaselinePoints,
	}
}

// RecomputeWinrate 누적 승률 (0~100, 소수점 둘째 자리)
func (e *RatingEntry) RecomputeWinrate() {
	if e.MatchesPlayed <= 0 {
		e.Winrate = 0
		return
	}
	e.Winrate = math.Round(float64(e.Wins)/float64(e.MatchesPlayed)*10000) / 100
}

// RatingChange 한 매치에서 한 플레이어에게 실제로 적용된 변화
// 관리자 취소 시 정확한 역연산에 사용
type RatingChange struct {
	PlayerID     string `json:"playerId"`
	Team         Team   `json:"team"`
	Won          bool   `json:"won"`
	Delta        int    `json:"delta"`
	PointsBefore int    `json:"pointsBefore"`
	PointsAfter  int    `json:"pointsAfter"`
	StreakBefore int    `json:"streakBefore"`
	StreakAfter  int    `json:"streakAfter"`
	Inserted     bool   `json:"inserted"`
}
