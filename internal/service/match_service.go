package service

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kryo1337/valodiscordhub-sub000/internal/config"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// RestartCancelReason 재시작 시 복구할 수 없는 매치의 취소 사유
const RestartCancelReason = "engine restarted"

// MatchService 매치별 PhaseSession 레지스트리
type MatchService struct {
	deps    *sessionDeps
	newRand func() *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*PhaseSession
	wg       sync.WaitGroup
}

func NewMatchService(
	matches MatchStore,
	leaderboard *LeaderboardService,
	notifier Notifier,
	timeouts config.PhaseTimeouts,
	logger *zap.Logger,
) *MatchService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MatchService{
		deps: &sessionDeps{
			matches:     matches,
			leaderboard: leaderboard,
			notifier:    notifier,
			timeouts:    timeouts,
			logger:      logger,
			now:         time.Now,
		},
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*PhaseSession),
	}
}

// Start 드레인된 10명으로 매치를 만들고 준비 확인 단계 시작
func (s *MatchService) Start(ctx context.Context, bracket models.Bracket, entries []models.QueueEntry) (*models.Match, error) {
	if len(entries) != models.QueueCapacity {
		return nil, ErrTeamsIncomplete
	}

	players := make([]string, 0, len(entries))
	for _, e := range entries {
		players = append(players, e.PlayerID)
	}

	now := s.deps.now()
	match := &models.Match{
		ID:           uuid.New().String(),
		Bracket:      bracket,
		Players:      players,
		Red:          []string{},
		Blue:         []string{},
		BannedMaps:   []string{},
		Result:       models.ResultUnset,
		Phase:        models.PhaseReadinessCheck,
		PhaseStarted: now,
		CreatedAt:    now,
	}

	if err := s.deps.matches.CreateMatch(ctx, match); err != nil {
		return nil, external(err, "create match")
	}

	s.deps.logger.Info("Match created",
		zap.String("matchId", match.ID),
		zap.String("bracket", string(bracket)),
		zap.Strings("players", players))

	session := s.spawn(match.Clone())
	// 요청 컨텍스트가 끝나도 타이머 무장은 완료되어야 함
	if err := session.do(context.WithoutCancel(ctx), func() error {
		session.armTimer(s.deps.timeouts.Readiness)
		session.notify(models.EventMatchCreated)
		return nil
	}); err != nil {
		s.deps.logger.Warn("Failed to arm readiness timer", zap.String("matchId", match.ID), zap.Error(err))
	}

	return match.Clone(), nil
}

func (s *MatchService) spawn(match *models.Match) *PhaseSession {
	session := newPhaseSession(s.ctx, s.deps, match, s.newRand(), s.forget)

	s.mu.Lock()
	s.sessions[match.ID] = session
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		session.run()
	}()
	return session
}

func (s *MatchService) forget(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// session 진행 중인 세션 조회. 없으면 종료된 매치인지 저장소로 구분
func (s *MatchService) session(ctx context.Context, id string) (*PhaseSession, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return session, nil
	}

	match, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.Phase.Terminal() {
		return nil, ErrMatchClosed
	}
	return nil, ErrSessionNotLive
}

func (s *MatchService) load(ctx context.Context, id string) (*models.Match, error) {
	match, err := readWithRetry(ctx, "get match", func(ctx context.Context) (*models.Match, error) {
		return s.deps.matches.GetMatch(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

// Active 진행 중인 세션 수
func (s *MatchService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Live 세션이 살아 있는지
func (s *MatchService) Live(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// ---- 참가자 입력 ----

func (s *MatchService) MarkPresent(ctx context.Context, matchID, playerID string) error {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return err
	}
	return session.do(ctx, func() error { return session.markPresent(playerID) })
}

func (s *MatchService) ReportPresence(ctx context.Context, matchID string, playerIDs []string) error {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return err
	}
	ids := slices.Clone(playerIDs)
	return session.do(ctx, func() error { return session.reportPresence(ids) })
}

func (s *MatchService) Vote(ctx context.Context, matchID, playerID string, method models.CaptainMethod) error {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return err
	}
	return session.do(ctx, func() error { return session.vote(playerID, method) })
}

func (s *MatchService) Pick(ctx context.Context, matchID, captainID, playerID string) error {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return err
	}
	return session.do(ctx, func() error { return session.pick(captainID, playerID) })
}

func (s *MatchService) Ban(ctx context.Context, matchID, captainID, mapName string) error {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return err
	}
	return session.do(ctx, func() error { return session.ban(captainID, mapName) })
}

func (s *MatchService) ChooseSide(ctx context.Context, matchID, captainID string, side models.Side) error {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return err
	}
	return session.do(ctx, func() error { return session.chooseSide(captainID, side) })
}

func (s *MatchService) SubmitScore(ctx context.Context, matchID, captainID string, own, opponent int) error {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return err
	}
	return session.do(ctx, func() error { return session.submitScore(captainID, own, opponent) })
}

// ---- 조회 ----

// View 진행 중인 매치의 단계 상태
func (s *MatchService) View(ctx context.Context, matchID string) (*PhaseView, error) {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	var v PhaseView
	if err := session.do(ctx, func() error {
		v = session.view()
		return nil
	}); err != nil {
		return nil, err
	}
	return &v, nil
}

// Get 진행 중이면 세션 상태, 아니면 저장된 매치
func (s *MatchService) Get(ctx context.Context, matchID string) (*models.Match, error) {
	s.mu.Lock()
	session, ok := s.sessions[matchID]
	s.mu.Unlock()

	if ok {
		var m *models.Match
		err := session.do(ctx, func() error {
			m = session.snapshot()
			return nil
		})
		if err == nil {
			return m, nil
		}
		// 조회 도중 종료된 경우 저장소에서 읽음
	}
	return s.load(ctx, matchID)
}

// ---- 관리자 경로 (AdminService에서 사용) ----

// CancelLive 진행 중인 세션을 루프 안에서 취소
func (s *MatchService) CancelLive(ctx context.Context, matchID, reason string) (*models.Match, error) {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	var m *models.Match
	err = session.do(ctx, func() error {
		err := session.cancel(reason)
		m = session.snapshot()
		return err
	})
	return m, err
}

// ForceResultLive 진행 중인 세션의 결과를 루프 안에서 한 번 확정
func (s *MatchService) ForceResultLive(ctx context.Context, matchID string, winner models.Team, red, blue int) (*models.Match, error) {
	session, err := s.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	var m *models.Match
	err = session.do(ctx, func() error {
		if err := session.forceResult(winner, red, blue); err != nil {
			return err
		}
		m = session.snapshot()
		return nil
	})
	return m, err
}

// Patch 종료된 매치 수정 (관리자 정정/취소)
func (s *MatchService) Patch(ctx context.Context, match *models.Match) error {
	if err := s.deps.matches.PatchMatch(ctx, match); err != nil {
		return external(err, "patch match")
	}
	return nil
}

// Load 저장된 매치 조회
func (s *MatchService) Load(ctx context.Context, matchID string) (*models.Match, error) {
	return s.load(ctx, matchID)
}

// ---- 수명 주기 ----

// Resume 시작 시 저장소의 미종료 매치 처리
// 스코어 제출 단계까지 간 매치는 세션을 다시 열고, 나머지는 취소
func (s *MatchService) Resume(ctx context.Context) error {
	active, err := readWithRetry(ctx, "list active matches", func(ctx context.Context) ([]*models.Match, error) {
		return s.deps.matches.ListActiveMatches(ctx)
	})
	if err != nil {
		return err
	}

	resumed, cancelled := 0, 0
	for _, match := range active {
		if s.Live(match.ID) {
			continue
		}

		if match.Phase == models.PhaseScoreSubmit {
			session := s.spawn(match)
			if remaining := time.Until(session.submissionOpensAt()); remaining > 0 {
				if err := session.do(ctx, func() error {
					session.armTimer(remaining)
					return nil
				}); err != nil {
					s.deps.logger.Warn("Failed to re-arm score lockout timer",
						zap.String("matchId", match.ID),
						zap.Duration("remaining", remaining),
						zap.Error(err))
				}
			}
			resumed++
			continue
		}

		now := s.deps.now()
		match.Phase = models.PhaseCancelled
		match.PhaseStarted = now
		match.Result = models.ResultCancelled
		match.CancelReason = RestartCancelReason
		match.EndedAt = &now
		if err := s.deps.matches.PatchMatch(ctx, match); err != nil {
			s.deps.logger.Error("Failed to cancel stale match",
				zap.String("matchId", match.ID),
				zap.Error(err))
			continue
		}
		cancelled++

		if err := s.deps.notifier.Publish(ctx, models.Event{
			Type:       models.EventMatchResult,
			MatchID:    match.ID,
			Bracket:    match.Bracket,
			Recipients: match.Players,
			Payload:    match,
			Timestamp:  now,
		}); err != nil {
			s.deps.logger.Warn("Failed to publish cancellation", zap.String("matchId", match.ID), zap.Error(err))
		}
	}

	s.deps.logger.Info("Active matches recovered",
		zap.Int("resumed", resumed),
		zap.Int("cancelled", cancelled))
	return nil
}

// Shutdown 모든 세션 루프를 멈춤. 매치 상태는 그대로 두고 다음 시작 시 Resume
func (s *MatchService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*PhaseSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.shutdown()
	}
	s.cancel()
	s.wg.Wait()
	s.deps.logger.Info("MatchService stopped", zap.Int("sessions", len(sessions)))
}
