package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

const (
	matchLockTTL  = 30 * time.Second
	matchLockWait = 3 * time.Second
)

// SetResultRequest 관리자 결과 지정
type SetResultRequest struct {
	AdminID   string      `json:"adminId" validate:"required"`
	Winner    models.Team `json:"winner" validate:"required,oneof=red blue"`
	RedScore  int         `json:"redScore" validate:"min=0,max=13"`
	BlueScore int         `json:"blueScore" validate:"min=0,max=13,nefield=RedScore"`
	Reason    string      `json:"reason" validate:"max=500"`
}

// SanctionRequest 밴/언밴/타임아웃 공통 입력
type SanctionRequest struct {
	AdminID  string        `json:"adminId" validate:"required"`
	PlayerID string        `json:"playerId" validate:"required"`
	Reason   string        `json:"reason" validate:"max=500"`
	Duration time.Duration `json:"duration"`
}

// AdminService 정상 흐름 밖의 취소/정정과 제재, 감사 로그
type AdminService struct {
	matches     *MatchService
	leaderboard *LeaderboardService
	queues      *QueueService
	gate        *SanctionGate
	sanctions   SanctionStore
	logs        AdminLogStore
	locker      Locker
	notifier    Notifier
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

func NewAdminService(
	matches *MatchService,
	leaderboard *LeaderboardService,
	queues *QueueService,
	gate *SanctionGate,
	sanctions SanctionStore,
	logs AdminLogStore,
	locker Locker,
	notifier Notifier,
	logger *zap.Logger,
) *AdminService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AdminService{
		matches:     matches,
		leaderboard: leaderboard,
		queues:      queues,
		gate:        gate,
		sanctions:   sanctions,
		logs:        logs,
		locker:      locker,
		notifier:    notifier,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// offline 세션이 없어 저장된 매치를 직접 다뤄야 하는 경우
func offline(err error) bool {
	return errors.Is(err, ErrMatchClosed) || errors.Is(err, ErrSessionNotLive)
}

// lockMatch 저장된 매치의 읽기-되돌림-저장을 매치 단위로 직렬화
// 잠시 기다려도 얻지 못하면 ErrMatchBusy
func (s *AdminService) lockMatch(ctx context.Context, matchID string) (func(), error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	unlock, err := backoff.Retry(ctx, func() (func(), error) {
		return s.locker.Lock(ctx, "match:"+matchID, matchLockTTL)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(matchLockWait),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(ErrMatchBusy, err.Error())
	}
	return unlock, nil
}

// Cancel 어느 단계에서든 매치 취소. 레이팅이 반영된 매치는 먼저 되돌림
func (s *AdminService) Cancel(ctx context.Context, matchID, adminID, reason string) (*models.Match, error) {
	if adminID == "" {
		return nil, errors.Wrap(ErrValidation, "admin id is required")
	}
	if reason == "" {
		reason = "cancelled by admin"
	}

	match, err := s.matches.CancelLive(ctx, matchID, reason)
	if err == nil {
		s.audit(ctx, models.AdminActionCancel, adminID, "", matchID, reason, "")
		return match, nil
	}
	if !offline(err) {
		return nil, err
	}

	unlock, err := s.lockMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	match, err = s.matches.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Result == models.ResultCancelled {
		return nil, ErrAlreadyCancelled
	}

	if match.RatingApplied() {
		if err := s.leaderboard.Revert(ctx, match.ID, match.RatingChanges); err != nil {
			return nil, err
		}
		s.audit(ctx, models.AdminActionRevert, adminID, "", matchID, reason,
			fmt.Sprintf("reverted %d rating changes (was %s)", len(match.RatingChanges), match.Result))
		match.RatingChanges = nil
	}

	now := s.now()
	match.Phase = models.PhaseCancelled
	match.PhaseStarted = now
	match.Result = models.ResultCancelled
	match.CancelReason = reason
	match.EndedAt = &now

	if err := s.matches.Patch(ctx, match); err != nil {
		// 레이팅은 이미 되돌려졌음: 재시도하지 않고 기록만 남김
		s.logger.Error("Ratings reverted but cancellation not persisted",
			zap.String("matchId", matchID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Match cancelled by admin",
		zap.String("matchId", matchID),
		zap.String("adminId", adminID))
	s.publishMatch(ctx, match)
	s.audit(ctx, models.AdminActionCancel, adminID, "", matchID, reason, "")
	return match, nil
}

// SetResult 관리자 결과 지정
// 진행 중이면 세션 안에서 한 번 확정, 완료된 매치는 기존 변화를 되돌린 뒤 재적용
func (s *AdminService) SetResult(ctx context.Context, matchID string, req SetResultRequest) (*models.Match, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(ErrInvalidResult, err.Error())
	}
	if (req.Winner == models.TeamRed) != (req.RedScore > req.BlueScore) {
		return nil, errors.Wrap(ErrInvalidScore, "winner must have the higher score")
	}

	details := fmt.Sprintf("%s wins %d-%d", req.Winner, req.RedScore, req.BlueScore)

	match, err := s.matches.ForceResultLive(ctx, matchID, req.Winner, req.RedScore, req.BlueScore)
	if err == nil {
		s.audit(ctx, models.AdminActionResultSet, req.AdminID, "", matchID, req.Reason, details)
		return match, nil
	}
	if !offline(err) {
		return nil, err
	}

	unlock, err := s.lockMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	match, err = s.matches.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Result == models.ResultCancelled {
		return nil, ErrAlreadyCancelled
	}
	if !match.Drafted() {
		return nil, ErrTeamsIncomplete
	}

	if match.RatingApplied() {
		if err := s.leaderboard.Revert(ctx, match.ID, match.RatingChanges); err != nil {
			return nil, err
		}
		s.audit(ctx, models.AdminActionRevert, req.AdminID, "", matchID, req.Reason,
			fmt.Sprintf("reverted %d rating changes (was %s)", len(match.RatingChanges), match.Result))
		match.RatingChanges = nil
	}

	changes, err := s.leaderboard.Apply(ctx, match, req.Winner)
	if err != nil {
		return nil, err
	}

	now := s.now()
	red, blue := req.RedScore, req.BlueScore
	match.RatingChanges = changes
	match.RedScore = &red
	match.BlueScore = &blue
	match.Result = models.ResultFor(req.Winner)
	match.Phase = models.PhaseComplete
	match.PhaseStarted = now
	match.EndedAt = &now

	if err := s.matches.Patch(ctx, match); err != nil {
		s.logger.Error("Ratings applied but result not persisted",
			zap.String("matchId", matchID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Match result set by admin",
		zap.String("matchId", matchID),
		zap.String("adminId", req.AdminID),
		zap.String("result", details))
	s.publishMatch(ctx, match)
	s.audit(ctx, models.AdminActionResultSet, req.AdminID, "", matchID, req.Reason, details)
	return match, nil
}

// Ban 무기한 큐 참가 금지
func (s *AdminService) Ban(ctx context.Context, req SanctionRequest) (*models.Sanction, error) {
	return s.sanction(ctx, req, models.SanctionBan, nil)
}

// Timeout 기간 제한 참가 금지
func (s *AdminService) Timeout(ctx context.Context, req SanctionRequest) (*models.Sanction, error) {
	if req.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	d := req.Duration
	return s.sanction(ctx, req, models.SanctionTimeout, &d)
}

func (s *AdminService) sanction(ctx context.Context, req SanctionRequest, kind models.SanctionKind, duration *time.Duration) (*models.Sanction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(ErrValidation, err.Error())
	}

	record := &models.Sanction{
		ID:        uuid.New().String(),
		PlayerID:  req.PlayerID,
		Kind:      kind,
		Reason:    req.Reason,
		Duration:  duration,
		IssuedBy:  req.AdminID,
		CreatedAt: s.now(),
	}
	if err := s.sanctions.AddSanction(ctx, record); err != nil {
		return nil, external(err, "add sanction")
	}

	s.afterSanctionChange(ctx, req.PlayerID, string(kind))

	details := ""
	if duration != nil {
		details = "duration " + duration.String()
	}
	action := models.AdminActionBan
	if kind == models.SanctionTimeout {
		action = models.AdminActionTimeout
	}
	s.audit(ctx, action, req.AdminID, req.PlayerID, "", req.Reason, details)
	return record, nil
}

// Unban 밴과 타임아웃을 모두 해제. 해제된 기록 수 반환
func (s *AdminService) Unban(ctx context.Context, req SanctionRequest) (int, error) {
	if err := s.validate.Struct(req); err != nil {
		return 0, errors.Wrap(ErrValidation, err.Error())
	}

	removed := 0
	for _, kind := range []models.SanctionKind{models.SanctionBan, models.SanctionTimeout} {
		n, err := s.sanctions.RemoveSanctions(ctx, req.PlayerID, kind)
		if err != nil {
			return removed, external(err, "remove sanctions")
		}
		removed += n
	}
	if removed == 0 {
		return 0, errors.Wrap(ErrPlayerNotFound, "no sanctions on record")
	}

	s.afterSanctionChange(ctx, req.PlayerID, "unban")
	s.audit(ctx, models.AdminActionUnban, req.AdminID, req.PlayerID, "", req.Reason,
		fmt.Sprintf("removed %d records", removed))
	return removed, nil
}

// afterSanctionChange 캐시 무효화, 모든 큐에서 제거, player_updated 발행
func (s *AdminService) afterSanctionChange(ctx context.Context, playerID, change string) {
	s.gate.Invalidate(ctx, playerID)

	if brackets, err := s.queues.RemoveEverywhere(ctx, playerID); err != nil {
		s.logger.Error("Failed to remove sanctioned player from queues",
			zap.String("playerId", playerID),
			zap.Error(err))
	} else if len(brackets) > 0 {
		s.logger.Info("Removed sanctioned player from queues",
			zap.String("playerId", playerID),
			zap.Any("brackets", brackets))
	}

	if err := s.notifier.Publish(ctx, models.Event{
		Type:       models.EventPlayerUpdated,
		PlayerID:   playerID,
		Recipients: []string{playerID},
		Payload:    map[string]string{"change": change},
		Timestamp:  s.now(),
	}); err != nil {
		s.logger.Warn("Failed to publish player update", zap.Error(err))
	}
}

// Logs 최신순 감사 로그
func (s *AdminService) Logs(ctx context.Context, limit int) ([]models.AdminLogEntry, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return readWithRetry(ctx, "list admin log", func(ctx context.Context) ([]models.AdminLogEntry, error) {
		return s.logs.ListAdminLog(ctx, limit)
	})
}

// RemoveLog 감사 로그 정리
func (s *AdminService) RemoveLog(ctx context.Context, id string) error {
	removed, err := s.logs.RemoveAdminLog(ctx, id)
	if err != nil {
		return external(err, "remove admin log")
	}
	if !removed {
		return ErrLogNotFound
	}
	return nil
}

// audit 감사 로그 기록. 조치는 이미 성공했으므로 실패해도 되돌리지 않음
func (s *AdminService) audit(ctx context.Context, action models.AdminAction, adminID, playerID, matchID, reason, details string) {
	entry := &models.AdminLogEntry{
		ID:        uuid.New().String(),
		AdminID:   adminID,
		Action:    action,
		PlayerID:  playerID,
		MatchID:   matchID,
		Reason:    reason,
		Details:   details,
		CreatedAt: s.now(),
	}
	if err := s.logs.AppendAdminLog(ctx, entry); err != nil {
		s.logger.Error("Failed to append admin log",
			zap.String("action", string(action)),
			zap.String("adminId", adminID),
			zap.String("matchId", matchID),
			zap.String("playerId", playerID),
			zap.Error(err))
	}
}

func (s *AdminService) publishMatch(ctx context.Context, match *models.Match) {
	if err := s.notifier.Publish(ctx, models.Event{
		Type:       models.EventMatchResult,
		MatchID:    match.ID,
		Bracket:    match.Bracket,
		Recipients: match.Players,
		Payload:    match,
		Timestamp:  s.now(),
	}); err != nil {
		s.logger.Warn("Failed to publish match result", zap.Error(err))
	}
}
