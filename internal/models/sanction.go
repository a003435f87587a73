package models

import "time"

type SanctionKind string

const (
	SanctionBan     SanctionKind = "ban"
	SanctionTimeout SanctionKind = "timeout"
)

// Sanction 큐 참가 제한 기록
// 만료된 타임아웃은 삭제하지 않고 비활성으로만 취급
type Sanction struct {
	ID        string         `json:"id" db:"id"`
	PlayerID  string         `json:"playerId" db:"player_id"`
	Kind      SanctionKind   `json:"kind" db:"kind"`
	Reason    string         `json:"reason" db:"reason"`
	Duration  *time.Duration `json:"duration,omitempty" db:"duration"`
	IssuedBy  string         `json:"issuedBy" db:"issued_by"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// ActiveAt 주어진 시각에 제재가 유효한지
func (s Sanction) ActiveAt(now time.Time) bool {
	switch s.Kind {
	case SanctionBan:
		return true
	case SanctionTimeout:
		if s.Duration == nil {
			return false
		}
		return now.Sub(s.CreatedAt) < *s.Duration
	}
	return false
}

// ExpiresAt 타임아웃 만료 시각 (밴은 zero)
func (s Sanction) ExpiresAt() time.Time {
	if s.Kind != SanctionTimeout || s.Duration == nil {
		return time.Time{}
	}
	return s.CreatedAt.Add(*s.Duration)
}

// FirstActive 목록 중 가장 먼저 발견된 유효 제재 (밴 우선)
func FirstActive(records []Sanction, now time.Time) *Sanction {
	var found *Sanction
	for i := range records {
		if !records[i].ActiveAt(now) {
			continue
		}
		if records[i].Kind == SanctionBan {
			return &records[i]
		}
		if found == nil {
			found = &records[i]
		}
	}
	return found
}
