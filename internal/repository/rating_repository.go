package repository

import (
	"context"
	"fmt"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/database"
	"github.com/lib/pq"
)

type RatingRepository struct {
	db *database.DB
}

func NewRatingRepository(db *database.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// GetRatingTable 요청한 플레이어 중 존재하는 엔트리만 반환
func (r *RatingRepository) GetRatingTable(ctx context.Context, playerIDs []string) (map[string]models.RatingEntry, error) {
	table := make(map[string]models.RatingEntry, len(playerIDs))
	if len(playerIDs) == 0 {
		return table, nil
	}

	var rows []models.RatingEntry
	query := `
		SELECT player_id, rank, points, matches_played, wins, losses, winrate, streak
		FROM ratings
		WHERE player_id = ANY($1)
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(playerIDs)); err != nil {
		return nil, fmt.Errorf("failed to get rating table: %w", err)
	}
	for _, e := range rows {
		table[e.PlayerID] = e
	}
	return table, nil
}

// PutRatingTable 한 트랜잭션으로 모든 엔트리 upsert
func (r *RatingRepository) PutRatingTable(ctx context.Context, entries []models.RatingEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ratings (player_id, rank, points, matches_played, wins, losses, winrate, streak)
		VALUES (:player_id, :rank, :points, :matches_played, :wins, :losses, :winrate, :streak)
		ON CONFLICT (player_id) DO UPDATE
		SET rank = EXCLUDED.rank,
		    points = EXCLUDED.points,
		    matches_played = EXCLUDED.matches_played,
		    wins = EXCLUDED.wins,
		    losses = EXCLUDED.losses,
		    winrate = EXCLUDED.winrate,
		    streak = EXCLUDED.streak
	`
	for _, e := range entries {
		if _, err := tx.NamedExecContext(ctx, query, e); err != nil {
			return fmt.Errorf("failed to upsert rating %s: %w", e.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ratings: %w", err)
	}
	return nil
}

// DeleteRatings 엔트리 삭제
func (r *RatingRepository) DeleteRatings(ctx context.Context, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	query := `DELETE FROM ratings WHERE player_id = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(playerIDs)); err != nil {
		return fmt.Errorf("failed to delete ratings: %w", err)
	}
	return nil
}

// ListRatings 점수 내림차순 리더보드
func (r *RatingRepository) ListRatings(ctx context.Context, limit int) ([]models.RatingEntry, error) {
	var rows []models.RatingEntry
	query := `
		SELECT player_id, rank, points, matches_played, wins, losses, winrate, streak
		FROM ratings
		ORDER BY points DESC, player_id
		LIMIT NULLIF($1, 0)
	`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return rows, nil
}
