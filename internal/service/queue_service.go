package service

import (
	"context"
	"sync"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const sweepLockKey = "queue:sweep"

// QueueService 브래킷별 대기열 참가/이탈과 정원 도달 시 매치 생성
type QueueService struct {
	queues   QueueStore
	matches  MatchStore
	gate     *SanctionGate
	starter  *MatchService
	locker   Locker
	notifier Notifier
	logger   *zap.Logger

	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewQueueService(
	queues QueueStore,
	matches MatchStore,
	gate *SanctionGate,
	starter *MatchService,
	locker Locker,
	notifier Notifier,
	maxAge time.Duration,
	interval time.Duration,
	logger *zap.Logger,
) *QueueService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &QueueService{
		queues:   queues,
		matches:  matches,
		gate:     gate,
		starter:  starter,
		locker:   locker,
		notifier: notifier,
		logger:   logger,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// JoinResult 참가 결과. Match는 이번 참가로 매치가 만들어진 경우에만 설정
type JoinResult struct {
	Size  int           `json:"size"`
	Match *models.Match `json:"match,omitempty"`
}

// Join 큐 참가
// 확인 순서: 브래킷 → 제재 → 진행 중 매치 → 다른 브래킷 대기 → 원자적 참가
func (s *QueueService) Join(ctx context.Context, bracket models.Bracket, playerID string) (*JoinResult, error) {
	if !bracket.Valid() {
		return nil, ErrUnknownBracket
	}
	if err := s.gate.Require(ctx, playerID); err != nil {
		return nil, err
	}

	active, err := readWithRetry(ctx, "find active match", func(ctx context.Context) (*models.Match, error) {
		return s.matches.FindActiveMatchByPlayer(ctx, playerID)
	})
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrAlreadyInMatch
	}

	// 다른 브래킷 중복 대기는 최선 노력 확인 (원자성 보장 없음)
	for _, other := range models.Brackets() {
		if other == bracket {
			continue
		}
		entries, err := readWithRetry(ctx, "get queue", func(ctx context.Context) ([]models.QueueEntry, error) {
			return s.queues.GetQueue(ctx, other)
		})
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.PlayerID == playerID {
				return nil, ErrAlreadyQueued
			}
		}
	}

	entry := models.QueueEntry{
		PlayerID: playerID,
		Bracket:  bracket,
		JoinedAt: s.now(),
	}
	var outcome *models.JoinOutcome
	for attempt := 0; ; attempt++ {
		outcome, err = s.queues.AtomicJoinQueue(ctx, entry, models.QueueCapacity)
		if err != nil {
			return nil, external(err, "join queue")
		}
		if outcome.Status != models.JoinStatusFull || attempt > 0 {
			break
		}
		// 매치 생성 실패로 복원된 큐는 정원이 찬 채 남아 있을 수 있음
		match, err := s.drainFull(ctx, bracket)
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
	}

	switch outcome.Status {
	case models.JoinStatusAlreadyQueued:
		return nil, ErrAlreadyQueued
	case models.JoinStatusFull:
		return nil, ErrQueueFull
	}

	s.logger.Info("Player joined queue",
		zap.String("playerId", playerID),
		zap.String("bracket", string(bracket)),
		zap.Int("size", outcome.Size))

	result := &JoinResult{Size: outcome.Size}
	if len(outcome.Drained) == 0 {
		s.publish(ctx, bracket, playerID)
		return result, nil
	}

	match, err := s.startDrained(ctx, bracket, outcome.Drained)
	if err != nil {
		s.publish(ctx, bracket, playerID)
		return nil, err
	}

	result.Match = match
	s.publish(ctx, bracket, playerID)
	return result, nil
}

// startDrained 드레인된 엔트리로 매치 시작. 실패하면 엔트리를 큐에 복원
// 복원된 큐는 다음 참가나 정리 주기에 DrainFull로 다시 드레인됨
func (s *QueueService) startDrained(ctx context.Context, bracket models.Bracket, drained []models.QueueEntry) (*models.Match, error) {
	match, err := s.starter.Start(ctx, bracket, drained)
	if err == nil {
		return match, nil
	}

	s.logger.Error("Failed to start match, restoring queue",
		zap.String("bracket", string(bracket)),
		zap.Error(err))
	if putErr := s.queues.PutQueue(ctx, bracket, drained); putErr != nil {
		s.logger.Error("Failed to restore drained queue",
			zap.String("bracket", string(bracket)),
			zap.Any("entries", drained),
			zap.Error(putErr))
	}
	return nil, err
}

// drainFull 정원 이상 남은 큐가 있으면 드레인해 매치 생성. 드레인할 것이 없으면 nil
func (s *QueueService) drainFull(ctx context.Context, bracket models.Bracket) (*models.Match, error) {
	drained, err := s.queues.DrainFull(ctx, bracket, models.QueueCapacity)
	if err != nil {
		return nil, external(err, "drain queue")
	}
	if len(drained) == 0 {
		return nil, nil
	}

	s.logger.Info("Draining restored queue",
		zap.String("bracket", string(bracket)),
		zap.Int("count", len(drained)))

	match, err := s.startDrained(ctx, bracket, drained)
	s.publish(ctx, bracket, "")
	return match, err
}

// Leave 큐 이탈
func (s *QueueService) Leave(ctx context.Context, bracket models.Bracket, playerID string) error {
	if !bracket.Valid() {
		return ErrUnknownBracket
	}
	removed, err := s.queues.RemoveFromQueue(ctx, bracket, playerID)
	if err != nil {
		return external(err, "leave queue")
	}
	if !removed {
		return ErrNotQueued
	}

	s.logger.Info("Player left queue",
		zap.String("playerId", playerID),
		zap.String("bracket", string(bracket)))
	s.publish(ctx, bracket, playerID)
	return nil
}

// RemoveEverywhere 모든 브래킷에서 제거 (제재 시). 제거된 브래킷 반환
func (s *QueueService) RemoveEverywhere(ctx context.Context, playerID string) ([]models.Bracket, error) {
	var removedFrom []models.Bracket
	for _, bracket := range models.Brackets() {
		removed, err := s.queues.RemoveFromQueue(ctx, bracket, playerID)
		if err != nil {
			return removedFrom, external(err, "remove from queue")
		}
		if removed {
			removedFrom = append(removedFrom, bracket)
			s.publish(ctx, bracket, playerID)
		}
	}
	return removedFrom, nil
}

// Snapshot 브래킷 대기열 현재 상태
func (s *QueueService) Snapshot(ctx context.Context, bracket models.Bracket) (*models.Queue, error) {
	if !bracket.Valid() {
		return nil, ErrUnknownBracket
	}
	entries, err := readWithRetry(ctx, "get queue", func(ctx context.Context) ([]models.QueueEntry, error) {
		return s.queues.GetQueue(ctx, bracket)
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	return &models.Queue{
		Bracket:  bracket,
		Entries:  entries,
		Capacity: models.QueueCapacity,
	}, nil
}

// Start 오래된 대기 정리 루프 시작
func (s *QueueService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Starting queue sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("maxAge", s.maxAge))

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop 정리 루프 중지
func (s *QueueService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("Queue sweeper stopped")
}

func (s *QueueService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(context.Background()); err != nil {
				s.logger.Error("Queue sweep failed", zap.Error(err))
			}
		case <-s.stopChan:
			return
		}
	}
}

// Sweep 모든 브래킷에서 maxAge보다 오래 대기한 엔트리를 제거
// 분산 잠금을 얻지 못하면 다른 인스턴스가 정리 중이므로 건너뜀
func (s *QueueService) Sweep(ctx context.Context) (int, error) {
	unlock, err := s.locker.Lock(ctx, sweepLockKey, s.interval)
	if err != nil {
		s.logger.Debug("Sweep skipped, lock held elsewhere", zap.Error(err))
		return 0, nil
	}
	defer unlock()

	cutoff := s.now().Add(-s.maxAge)
	var mu sync.Mutex
	total := 0

	p := pool.New().WithErrors().WithContext(ctx)
	for _, bracket := range models.Brackets() {
		p.Go(func(ctx context.Context) error {
			removed, err := s.queues.RemoveExpired(ctx, bracket, cutoff)
			if err != nil {
				return external(err, "remove expired")
			}
			if _, err := s.drainFull(ctx, bracket); err != nil {
				s.logger.Warn("Failed to drain full queue",
					zap.String("bracket", string(bracket)),
					zap.Error(err))
			}
			if len(removed) == 0 {
				return nil
			}

			mu.Lock()
			total += len(removed)
			mu.Unlock()

			s.logger.Info("Removed stale queue entries",
				zap.String("bracket", string(bracket)),
				zap.Int("count", len(removed)))
			s.publish(ctx, bracket, "")
			return nil
		})
	}

	err = p.Wait()
	return total, err
}

func (s *QueueService) publish(ctx context.Context, bracket models.Bracket, playerID string) {
	snapshot, err := s.Snapshot(ctx, bracket)
	if err != nil {
		s.logger.Warn("Failed to snapshot queue for update", zap.Error(err))
		return
	}
	if err := s.notifier.Publish(ctx, models.Event{
		Type:      models.EventQueueUpdate,
		Bracket:   bracket,
		PlayerID:  playerID,
		Payload:   snapshot,
		Timestamp: s.now(),
	}); err != nil {
		s.logger.Warn("Failed to publish queue update", zap.Error(err))
	}
}
