package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// LeaderboardService 레이팅 테이블의 유일한 쓰기 주체
type LeaderboardService struct {
	ratings    RatingStore
	calculator *RatingCalculator
	notifier   Notifier
	logger     *zap.Logger
}

func NewLeaderboardService(
	ratings RatingStore,
	calculator *RatingCalculator,
	notifier Notifier,
	logger *zap.Logger,
) *LeaderboardService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LeaderboardService{
		ratings:    ratings,
		calculator: calculator,
		notifier:   notifier,
		logger:     logger,
	}
}

// Apply 매치 결과를 레이팅 테이블에 반영하고 실제 적용된 변화를 반환
// 호출 측은 반환값을 매치에 저장해 재적용 방지 마커로 사용해야 함
func (s *LeaderboardService) Apply(ctx context.Context, match *models.Match, winner models.Team) ([]models.RatingChange, error) {
	if !winner.Valid() {
		return nil, ErrInvalidResult
	}
	if !match.Drafted() {
		return nil, ErrTeamsIncomplete
	}
	if match.RatingApplied() {
		return nil, errors.Wrapf(ErrConflict, "rating already applied for match %s", match.ID)
	}

	ids := append(append([]string{}, match.Red...), match.Blue...)
	table, err := readWithRetry(ctx, "get rating table", func(ctx context.Context) (map[string]models.RatingEntry, error) {
		return s.ratings.GetRatingTable(ctx, ids)
	})
	if err != nil {
		return nil, err
	}

	redAvg := TeamAverage(match.Red, table)
	blueAvg := TeamAverage(match.Blue, table)
	redDelta, blueDelta := s.calculator.Calculate(redAvg, blueAvg, winner)

	changes := make([]models.RatingChange, 0, len(ids))
	updated := make([]models.RatingEntry, 0, len(ids))

	for _, team := range []models.Team{models.TeamRed, models.TeamBlue} {
		delta := redDelta
		if team == models.TeamBlue {
			delta = blueDelta
		}
		won := team == winner

		for _, playerID := range match.Roster(team) {
			entry, exists := table[playerID]
			if !exists {
				entry = models.NewRatingEntry(playerID, string(match.Bracket))
			}

			change := models.RatingChange{
				PlayerID:     playerID,
				Team:         team,
				Won:          won,
				PointsBefore: entry.Points,
				StreakBefore: entry.Streak,
				Inserted:     !exists,
			}

			entry.Points = max(0, entry.Points+delta)
			entry.MatchesPlayed++
			if won {
				entry.Wins++
				entry.Streak = max(0, entry.Streak) + 1
			} else {
				entry.Losses++
				entry.Streak = min(0, entry.Streak) - 1
			}
			entry.RecomputeWinrate()

			change.PointsAfter = entry.Points
			change.Delta = entry.Points - change.PointsBefore
			change.StreakAfter = entry.Streak

			changes = append(changes, change)
			updated = append(updated, entry)
		}
	}

	if err := s.ratings.PutRatingTable(ctx, updated); err != nil {
		return nil, external(err, "put rating table")
	}

	s.logger.Info("Rating applied",
		zap.String("matchId", match.ID),
		zap.String("winner", string(winner)),
		zap.Float64("redAvg", redAvg),
		zap.Float64("blueAvg", blueAvg),
		zap.Int("redDelta", redDelta),
		zap.Int("blueDelta", blueDelta))

	s.publish(ctx, match.ID, updated)
	return changes, nil
}

// Revert Apply로 적용된 변화를 정확히 되돌림
// 포인트는 실제 적용된 delta의 음수를 더하고, 스트릭은 이전 값으로 복원
func (s *LeaderboardService) Revert(ctx context.Context, matchID string, changes []models.RatingChange) error {
	if len(changes) == 0 {
		return nil
	}

	ids := make([]string, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.PlayerID)
	}

	table, err := readWithRetry(ctx, "get rating table", func(ctx context.Context) (map[string]models.RatingEntry, error) {
		return s.ratings.GetRatingTable(ctx, ids)
	})
	if err != nil {
		return err
	}

	updated := make([]models.RatingEntry, 0, len(changes))
	var removed []string
	for _, c := range changes {
		entry, ok := table[c.PlayerID]
		if !ok {
			// 이후 테이블에서 삭제된 경우: 되돌릴 대상이 없음
			s.logger.Warn("Rating entry missing on revert",
				zap.String("matchId", matchID),
				zap.String("playerId", c.PlayerID))
			continue
		}

		entry.Points = max(0, entry.Points-(c.PointsAfter-c.PointsBefore))
		entry.MatchesPlayed = max(0, entry.MatchesPlayed-1)
		if c.Won {
			entry.Wins = max(0, entry.Wins-1)
		} else {
			entry.Losses = max(0, entry.Losses-1)
		}
		entry.Streak = c.StreakBefore
		entry.RecomputeWinrate()

		// 이 매치가 만든 엔트리이고 이후 다른 매치가 없으면 테이블에서 제거
		if c.Inserted && entry.MatchesPlayed == 0 {
			removed = append(removed, c.PlayerID)
			continue
		}
		updated = append(updated, entry)
	}

	if len(updated) > 0 {
		if err := s.ratings.PutRatingTable(ctx, updated); err != nil {
			return external(err, "put rating table")
		}
	}
	if len(removed) > 0 {
		if err := s.ratings.DeleteRatings(ctx, removed); err != nil {
			return external(err, "delete ratings")
		}
	}

	s.logger.Info("Rating reverted",
		zap.String("matchId", matchID),
		zap.Int("players", len(updated)),
		zap.Int("removed", len(removed)))

	s.publish(ctx, matchID, updated)
	return nil
}

// Get 플레이어 레이팅 조회
func (s *LeaderboardService) Get(ctx context.Context, playerID string) (*models.RatingEntry, error) {
	table, err := readWithRetry(ctx, "get rating table", func(ctx context.Context) (map[string]models.RatingEntry, error) {
		return s.ratings.GetRatingTable(ctx, []string{playerID})
	})
	if err != nil {
		return nil, err
	}
	entry, ok := table[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &entry, nil
}

// List 포인트 순 리더보드
func (s *LeaderboardService) List(ctx context.Context, limit int) ([]models.RatingEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return readWithRetry(ctx, "list ratings", func(ctx context.Context) ([]models.RatingEntry, error) {
		return s.ratings.ListRatings(ctx, limit)
	})
}

// Table 여러 플레이어 레이팅 조회 (주장 선정용)
func (s *LeaderboardService) Table(ctx context.Context, playerIDs []string) (map[string]models.RatingEntry, error) {
	return readWithRetry(ctx, "get rating table", func(ctx context.Context) (map[string]models.RatingEntry, error) {
		return s.ratings.GetRatingTable(ctx, playerIDs)
	})
}

func (s *LeaderboardService) publish(ctx context.Context, matchID string, entries []models.RatingEntry) {
	if err := s.notifier.Publish(ctx, models.Event{
		Type:      models.EventLeaderboardUpdate,
		MatchID:   matchID,
		Payload:   entries,
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.Warn("Failed to publish leaderboard update", zap.Error(err))
	}
}
