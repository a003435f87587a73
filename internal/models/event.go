package models

import "time"

type EventType string

const (
	EventQueueUpdate       EventType = "queue_update"
	EventMatchCreated      EventType = "match_created"
	EventMatchUpdated      EventType = "match_updated"
	EventMatchResult       EventType = "match_result"
	EventLeaderboardUpdate EventType = "leaderboard_update"
	EventPlayerUpdated     EventType = "player_updated"
	EventAdminAlert        EventType = "admin_alert"
)

// Event 엔진이 발행하는 알림
// Origin은 발행 인스턴스 ID로, 공유 버스에서 되돌아온 자기 이벤트를 거르는 데 사용
type Event struct {
	Type       EventType   `json:"type"`
	Origin     string      `json:"origin"`
	MatchID    string      `json:"matchId,omitempty"`
	Bracket    Bracket     `json:"bracket,omitempty"`
	PlayerID   string      `json:"playerId,omitempty"`
	Recipients []string    `json:"recipients,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
