package service

import (
	"math"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
)

// RatingCalculator 팀 평균 점수 차이로 승/패 포인트 변화를 계산
type RatingCalculator struct {
	base      int     // 동일 평균일 때의 변화량
	divisor   float64 // 평균 차이를 보정치로 환산하는 단위
	minChange int
	maxChange int
}

// NewRatingCalculator 기본 계산기 (±25, 60점당 1, 20~30 클램프)
func NewRatingCalculator() *RatingCalculator {
	return &RatingCalculator{
		base:      25,
		divisor:   60,
		minChange: 20,
		maxChange: 30,
	}
}

// Deltas 승리 팀/패배 팀 평균으로 변화량 계산
// winnerDelta ∈ [20, 30], loserDelta ∈ [-30, -20]
func (c *RatingCalculator) Deltas(winnerAvg, loserAvg float64) (winnerDelta, loserDelta int) {
	diff := winnerAvg - loserAvg
	adjustment := int(math.Round(diff / c.divisor))

	winnerDelta = clamp(c.base-adjustment, c.minChange, c.maxChange)
	loserDelta = clamp(-(c.base + adjustment), -c.maxChange, -c.minChange)
	return
}

// Calculate 레드/블루 평균과 승리 팀으로 각 팀의 변화량 계산
func (c *RatingCalculator) Calculate(redAvg, blueAvg float64, winner models.Team) (redDelta, blueDelta int) {
	if winner == models.TeamRed {
		return c.Deltas(redAvg, blueAvg)
	}
	blueDelta, redDelta = c.Deltas(blueAvg, redAvg)
	return
}

// TeamAverage 팀 평균 점수 (테이블에 없는 플레이어는 기본 점수)
func TeamAverage(roster []string, table map[string]models.RatingEntry) float64 {
	if len(roster) == 0 {
		return models.BaselinePoints
	}
	total := 0
	for _, id := range roster {
		if entry, ok := table[id]; ok {
			total += entry.Points
		} else {
			total += models.BaselinePoints
		}
	}
	return float64(total) / float64(len(roster))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
