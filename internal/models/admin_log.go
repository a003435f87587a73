package models

import "time"

type AdminAction string

const (
	AdminActionBan       AdminAction = "ban"
	AdminActionUnban     AdminAction = "unban"
	AdminActionTimeout   AdminAction = "timeout"
	AdminActionResultSet AdminAction = "result_set"
	AdminActionCancel    AdminAction = "cancel"
	AdminActionRevert    AdminAction = "revert"
)

// AdminLogEntry 관리자 조치 감사 기록 (append-only)
type AdminLogEntry struct {
	ID        string      `json:"id" db:"id"`
	AdminID   string      `json:"adminId" db:"admin_id"`
	Action    AdminAction `json:"action" db:"action"`
	PlayerID  string      `json:"playerId,omitempty" db:"player_id"`
	MatchID   string      `json:"matchId,omitempty" db:"match_id"`
	Reason    string      `json:"reason,omitempty" db:"reason"`
	Details   string      `json:"details,omitempty" db:"details"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}
