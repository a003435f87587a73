package models

import "time"

// QueueCapacity 한 브래킷 큐의 최대 인원 (5v5)
const QueueCapacity = 10

// Bracket 랭크 구간별 매칭 풀
type Bracket string

const (
	BracketIronPlat   Bracket = "iron-plat"
	BracketDiaAsc     Bracket = "dia-asc"
	BracketImmRadiant Bracket = "imm-radiant"
)

// Brackets 지원하는 모든 브래킷
func Brackets() []Bracket {
	return []Bracket{BracketIronPlat, BracketDiaAsc, BracketImmRadiant}
}

func (b Bracket) Valid() bool {
	for _, known := range Brackets() {
		if b == known {
			return true
		}
	}
	return false
}

type QueueEntry struct {
	PlayerID string    `json:"playerId" db:"player_id"`
	Bracket  Bracket   `json:"bracket" db:"bracket"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// Queue 브래킷 대기열 스냅샷 (JoinedAt 오름차순)
type Queue struct {
	Bracket  Bracket      `json:"bracket"`
	Entries  []QueueEntry `json:"entries"`
	Capacity int          `json:"capacity"`
}

// PlayerIDs 대기열 참가자 ID 목록
func (q Queue) PlayerIDs() []string {
	ids := make([]string, 0, len(q.Entries))
	for _, e := range q.Entries {
		ids = append(ids, e.PlayerID)
	}
	return ids
}

type JoinStatus string

const (
	JoinStatusJoined        JoinStatus = "joined"
	JoinStatusAlreadyQueued JoinStatus = "already_queued"
	JoinStatusFull          JoinStatus = "full"
)

// JoinOutcome 원자적 큐 참가 결과
// Drained는 참가로 정원이 찬 경우 큐에서 꺼낸 10명
type JoinOutcome struct {
	Status  JoinStatus   `json:"status"`
	Size    int          `json:"size"`
	Drained []QueueEntry `json:"drained,omitempty"`
}
