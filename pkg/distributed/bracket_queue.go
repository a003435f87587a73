package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/redis/go-redis/v9"
)

// joinScript 중복 확인, 정원 확인, 추가, 정원 도달 시 드레인을 한 번에 수행
// 반환: {status, size, entry_json...}
var joinScript = redis.NewScript(`
	local order_key = KEYS[1]
	local entries_key = KEYS[2]
	local player = ARGV[1]
	local joined_at = ARGV[2]
	local entry = ARGV[3]
	local capacity = tonumber(ARGV[4])

	local size = redis.call('ZCARD', order_key)
	if redis.call('ZSCORE', order_key, player) then
		return {'already_queued', size}
	end
	if size >= capacity then
		return {'full', size}
	end

	redis.call('ZADD', order_key, joined_at, player)
	redis.call('HSET', entries_key, player, entry)
	size = size + 1
	if size < capacity then
		return {'joined', size}
	end

	local out = {'joined', 0}
	local ids = redis.call('ZRANGE', order_key, 0, -1)
	for _, id in ipairs(ids) do
		table.insert(out, redis.call('HGET', entries_key, id))
	end
	redis.call('DEL', order_key, entries_key)
	return out
`)

// expireScript cutoff 이전에 참가한 엔트리를 제거하고 반환
var expireScript = redis.NewScript(`
	local order_key = KEYS[1]
	local entries_key = KEYS[2]
	local cutoff = ARGV[1]

	local ids = redis.call('ZRANGEBYSCORE', order_key, '-inf', '(' .. cutoff)
	local out = {}
	for _, id in ipairs(ids) do
		local entry = redis.call('HGET', entries_key, id)
		if entry then
			table.insert(out, entry)
		end
		redis.call('HDEL', entries_key, id)
		redis.call('ZREM', order_key, id)
	end
	return out
`)

// drainScript 정원 이상이면 가장 오래된 capacity명을 꺼내 반환
var drainScript = redis.NewScript(`
	local order_key = KEYS[1]
	local entries_key = KEYS[2]
	local capacity = tonumber(ARGV[1])

	if redis.call('ZCARD', order_key) < capacity then
		return {}
	end

	local ids = redis.call('ZRANGE', order_key, 0, capacity - 1)
	local out = {}
	for _, id in ipairs(ids) do
		local entry = redis.call('HGET', entries_key, id)
		if entry then
			table.insert(out, entry)
		end
		redis.call('HDEL', entries_key, id)
		redis.call('ZREM', order_key, id)
	end
	return out
`)

// removeScript 순서 집합과 엔트리 해시에서 함께 제거
var removeScript = redis.NewScript(`
	local removed = redis.call('ZREM', KEYS[1], ARGV[1])
	redis.call('HDEL', KEYS[2], ARGV[1])
	return removed
`)

// BracketQueue Redis 기반 브래킷 대기열
// 순서는 Sorted Set(score = 참가 시각 ms), 엔트리 본문은 Hash에 보관
type BracketQueue struct {
	client redis.UniversalClient
	prefix string
}

// NewBracketQueue 브래킷 대기열 저장소 생성
func NewBracketQueue(client redis.UniversalClient, prefix string) *BracketQueue {
	if prefix == "" {
		prefix = "queue"
	}
	return &BracketQueue{client: client, prefix: prefix}
}

// keys 두 키가 같은 클러스터 슬롯에 놓이도록 해시 태그 사용
func (q *BracketQueue) keys(bracket models.Bracket) []string {
	return []string{
		fmt.Sprintf("%s:{%s}", q.prefix, bracket),
		fmt.Sprintf("%s:{%s}:entries", q.prefix, bracket),
	}
}

// GetQueue 참가 순서대로 엔트리 조회
func (q *BracketQueue) GetQueue(ctx context.Context, bracket models.Bracket) ([]models.QueueEntry, error) {
	keys := q.keys(bracket)
	ids, err := q.client.ZRange(ctx, keys[0], 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue order: %w", err)
	}
	if len(ids) == 0 {
		return []models.QueueEntry{}, nil
	}

	raw, err := q.client.HMGet(ctx, keys[1], ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue entries: %w", err)
	}

	entries := make([]models.QueueEntry, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// PutQueue 엔트리 복원. 이미 대기 중인 플레이어는 건너뜀
func (q *BracketQueue) PutQueue(ctx context.Context, bracket models.Bracket, entries []models.QueueEntry) error {
	keys := q.keys(bracket)
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal queue entry: %w", err)
			}
			pipe.ZAddNX(ctx, keys[0], redis.Z{Score: float64(e.JoinedAt.UnixMilli()), Member: e.PlayerID})
			pipe.HSetNX(ctx, keys[1], e.PlayerID, data)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to restore queue: %w", err)
	}
	return nil
}

// AtomicJoinQueue 여러 인스턴스가 동시에 참가해도 드레인은 정확히 한 번
func (q *BracketQueue) AtomicJoinQueue(ctx context.Context, entry models.QueueEntry, capacity int) (*models.JoinOutcome, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal queue entry: %w", err)
	}

	result, err := joinScript.Run(ctx, q.client, q.keys(entry.Bracket),
		entry.PlayerID, entry.JoinedAt.UnixMilli(), data, capacity).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to join queue: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected join script reply: %v", result)
	}

	status, _ := result[0].(string)
	size, _ := result[1].(int64)
	outcome := &models.JoinOutcome{Status: models.JoinStatus(status), Size: int(size)}

	for _, v := range result[2:] {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var drained models.QueueEntry
		if err := json.Unmarshal([]byte(s), &drained); err != nil {
			return nil, fmt.Errorf("failed to unmarshal drained entry: %w", err)
		}
		outcome.Drained = append(outcome.Drained, drained)
	}
	return outcome, nil
}

// RemoveFromQueue 플레이어 제거. 대기 중이 아니었으면 false
func (q *BracketQueue) RemoveFromQueue(ctx context.Context, bracket models.Bracket, playerID string) (bool, error) {
	removed, err := removeScript.Run(ctx, q.client, q.keys(bracket), playerID).Int()
	if err != nil {
		return false, fmt.Errorf("failed to leave queue: %w", err)
	}
	return removed > 0, nil
}

// RemoveExpired olderThan 이전에 참가한 엔트리 제거
func (q *BracketQueue) RemoveExpired(ctx context.Context, bracket models.Bracket, olderThan time.Time) ([]models.QueueEntry, error) {
	raw, err := expireScript.Run(ctx, q.client, q.keys(bracket),
		strconv.FormatInt(olderThan.UnixMilli(), 10)).StringSlice()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to remove expired entries: %w", err)
	}
	return decodeEntries(raw)
}

// DrainFull 매치 생성 실패 후 복원되어 정원이 찬 큐를 다시 드레인
func (q *BracketQueue) DrainFull(ctx context.Context, bracket models.Bracket, capacity int) ([]models.QueueEntry, error) {
	raw, err := drainScript.Run(ctx, q.client, q.keys(bracket), capacity).StringSlice()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to drain queue: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return decodeEntries(raw)
}

func decodeEntries(raw []string) ([]models.QueueEntry, error) {
	entries := make([]models.QueueEntry, 0, len(raw))
	for _, s := range raw {
		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Size 대기 인원
func (q *BracketQueue) Size(ctx context.Context, bracket models.Bracket) (int64, error) {
	return q.client.ZCard(ctx, q.keys(bracket)[0]).Result()
}
