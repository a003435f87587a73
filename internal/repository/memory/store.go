// Package memory 단일 프로세스용 저장소 구현 (테스트, STORE_BACKEND=memory)
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
)

var ErrDuplicateMatch = errors.New("match already exists")

// Store 모든 저장소 인터페이스를 하나의 뮤텍스로 구현
type Store struct {
	mu        sync.Mutex
	queues    map[models.Bracket][]models.QueueEntry
	matches   map[string]*models.Match
	ratings   map[string]models.RatingEntry
	sanctions map[string][]models.Sanction
	adminLog  []models.AdminLogEntry
}

func NewStore() *Store {
	return &Store{
		queues:    make(map[models.Bracket][]models.QueueEntry),
		matches:   make(map[string]*models.Match),
		ratings:   make(map[string]models.RatingEntry),
		sanctions: make(map[string][]models.Sanction),
	}
}

// ---- queue ----

func (s *Store) GetQueue(_ context.Context, bracket models.Bracket) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queues[bracket]), nil
}

func (s *Store) PutQueue(_ context.Context, bracket models.Bracket, entries []models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := slices.Clone(s.queues[bracket])
	for _, e := range entries {
		if !containsPlayer(merged, e.PlayerID) {
			merged = append(merged, e)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].JoinedAt.Before(merged[j].JoinedAt)
	})
	s.queues[bracket] = merged
	return nil
}

func (s *Store) AtomicJoinQueue(_ context.Context, entry models.QueueEntry, capacity int) (*models.JoinOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[entry.Bracket]
	if containsPlayer(queue, entry.PlayerID) {
		return &models.JoinOutcome{Status: models.JoinStatusAlreadyQueued, Size: len(queue)}, nil
	}
	if len(queue) >= capacity {
		return &models.JoinOutcome{Status: models.JoinStatusFull, Size: len(queue)}, nil
	}

	queue = append(queue, entry)
	if len(queue) < capacity {
		s.queues[entry.Bracket] = queue
		return &models.JoinOutcome{Status: models.JoinStatusJoined, Size: len(queue)}, nil
	}

	delete(s.queues, entry.Bracket)
	return &models.JoinOutcome{
		Status:  models.JoinStatusJoined,
		Size:    0,
		Drained: queue,
	}, nil
}

// DrainFull 복원 등으로 정원 이상 남은 큐에서 참가 순서대로 capacity명을 꺼냄
func (s *Store) DrainFull(_ context.Context, bracket models.Bracket, capacity int) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[bracket]
	if len(queue) < capacity {
		return nil, nil
	}
	drained := slices.Clone(queue[:capacity])
	rest := slices.Clone(queue[capacity:])
	if len(rest) == 0 {
		delete(s.queues, bracket)
	} else {
		s.queues[bracket] = rest
	}
	return drained, nil
}

func (s *Store) RemoveFromQueue(_ context.Context, bracket models.Bracket, playerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[bracket]
	idx := slices.IndexFunc(queue, func(e models.QueueEntry) bool { return e.PlayerID == playerID })
	if idx < 0 {
		return false, nil
	}
	s.queues[bracket] = slices.Delete(slices.Clone(queue), idx, idx+1)
	return true, nil
}

func (s *Store) RemoveExpired(_ context.Context, bracket models.Bracket, olderThan time.Time) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept, removed []models.QueueEntry
	for _, e := range s.queues[bracket] {
		if e.JoinedAt.Before(olderThan) {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	s.queues[bracket] = kept
	return removed, nil
}

// ---- matches ----

func (s *Store) CreateMatch(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.ID]; ok {
		return ErrDuplicateMatch
	}
	s.matches[match.ID] = match.Clone()
	return nil
}

func (s *Store) GetMatch(_ context.Context, id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id].Clone(), nil
}

func (s *Store) PatchMatch(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = match.Clone()
	return nil
}

func (s *Store) ListActiveMatches(_ context.Context) ([]*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*models.Match
	for _, m := range s.matches {
		if m.Result == models.ResultUnset {
			active = append(active, m.Clone())
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

func (s *Store) FindActiveMatchByPlayer(_ context.Context, playerID string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.matches {
		if m.Result == models.ResultUnset && m.HasPlayer(playerID) {
			return m.Clone(), nil
		}
	}
	return nil, nil
}

// ---- ratings ----

func (s *Store) GetRatingTable(_ context.Context, playerIDs []string) (map[string]models.RatingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := make(map[string]models.RatingEntry, len(playerIDs))
	for _, id := range playerIDs {
		if e, ok := s.ratings[id]; ok {
			table[id] = e
		}
	}
	return table, nil
}

func (s *Store) PutRatingTable(_ context.Context, entries []models.RatingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.ratings[e.PlayerID] = e
	}
	return nil
}

func (s *Store) DeleteRatings(_ context.Context, playerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range playerIDs {
		delete(s.ratings, id)
	}
	return nil
}

func (s *Store) ListRatings(_ context.Context, limit int) ([]models.RatingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.RatingEntry, 0, len(s.ratings))
	for _, e := range s.ratings {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Points != list[j].Points {
			return list[i].Points > list[j].Points
		}
		return list[i].PlayerID < list[j].PlayerID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ---- sanctions ----

func (s *Store) CheckSanction(_ context.Context, playerID string) ([]models.Sanction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sanctions[playerID]), nil
}

func (s *Store) BatchCheckSanctions(_ context.Context, playerIDs []string) (map[string][]models.Sanction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string][]models.Sanction, len(playerIDs))
	for _, id := range playerIDs {
		if records := s.sanctions[id]; len(records) > 0 {
			result[id] = slices.Clone(records)
		}
	}
	return result, nil
}

func (s *Store) AddSanction(_ context.Context, sanction *models.Sanction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sanctions[sanction.PlayerID] = append(s.sanctions[sanction.PlayerID], *sanction)
	return nil
}

func (s *Store) RemoveSanctions(_ context.Context, playerID string, kind models.SanctionKind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.sanctions[playerID]
	kept := records[:0:0]
	for _, r := range records {
		if r.Kind != kind {
			kept = append(kept, r)
		}
	}
	s.sanctions[playerID] = kept
	return len(records) - len(kept), nil
}

// ---- admin log ----

func (s *Store) AppendAdminLog(_ context.Context, entry *models.AdminLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminLog = append(s.adminLog, *entry)
	return nil
}

func (s *Store) RemoveAdminLog(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.adminLog, func(e models.AdminLogEntry) bool { return e.ID == id })
	if idx < 0 {
		return false, nil
	}
	s.adminLog = slices.Delete(s.adminLog, idx, idx+1)
	return true, nil
}

// ListAdminLog 최신순
func (s *Store) ListAdminLog(_ context.Context, limit int) ([]models.AdminLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.AdminLogEntry, 0, len(s.adminLog))
	for i := len(s.adminLog) - 1; i >= 0; i-- {
		list = append(list, s.adminLog[i])
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

func containsPlayer(entries []models.QueueEntry, playerID string) bool {
	return slices.ContainsFunc(entries, func(e models.QueueEntry) bool { return e.PlayerID == playerID })
}
