package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/database"
	"github.com/lib/pq"
)

type sanctionRow struct {
	ID         string        `db:"id"`
	PlayerID   string        `db:"player_id"`
	Kind       string        `db:"kind"`
	Reason     string        `db:"reason"`
	DurationMs sql.NullInt64 `db:"duration_ms"`
	IssuedBy   string        `db:"issued_by"`
	CreatedAt  time.Time     `db:"created_at"`
}

func (r sanctionRow) toModel() models.Sanction {
	s := models.Sanction{
		ID:        r.ID,
		PlayerID:  r.PlayerID,
		Kind:      models.SanctionKind(r.Kind),
		Reason:    r.Reason,
		IssuedBy:  r.IssuedBy,
		CreatedAt: r.CreatedAt,
	}
	if r.DurationMs.Valid {
		d := time.Duration(r.DurationMs.Int64) * time.Millisecond
		s.Duration = &d
	}
	return s
}

const sanctionColumns = `id, player_id, kind, reason, duration_ms, issued_by, created_at`

type SanctionRepository struct {
	db *database.DB
}

func NewSanctionRepository(db *database.DB) *SanctionRepository {
	return &SanctionRepository{db: db}
}

// CheckSanction 플레이어의 모든 제재 기록 (만료 포함)
func (r *SanctionRepository) CheckSanction(ctx context.Context, playerID string) ([]models.Sanction, error) {
	var rows []sanctionRow
	query := `SELECT ` + sanctionColumns + ` FROM sanctions WHERE player_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query, playerID); err != nil {
		return nil, fmt.Errorf("failed to check sanction: %w", err)
	}

	records := make([]models.Sanction, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// BatchCheckSanctions 여러 플레이어의 제재 기록을 한 번에 조회
func (r *SanctionRepository) BatchCheckSanctions(ctx context.Context, playerIDs []string) (map[string][]models.Sanction, error) {
	result := make(map[string][]models.Sanction, len(playerIDs))
	if len(playerIDs) == 0 {
		return result, nil
	}

	var rows []sanctionRow
	query := `SELECT ` + sanctionColumns + ` FROM sanctions WHERE player_id = ANY($1) ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(playerIDs)); err != nil {
		return nil, fmt.Errorf("failed to batch check sanctions: %w", err)
	}
	for _, row := range rows {
		result[row.PlayerID] = append(result[row.PlayerID], row.toModel())
	}
	return result, nil
}

// AddSanction 제재 기록 추가
func (r *SanctionRepository) AddSanction(ctx context.Context, sanction *models.Sanction) error {
	var durationMs sql.NullInt64
	if sanction.Duration != nil {
		durationMs = sql.NullInt64{Int64: sanction.Duration.Milliseconds(), Valid: true}
	}

	query := `
		INSERT INTO sanctions (id, player_id, kind, reason, duration_ms, issued_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		sanction.ID,
		sanction.PlayerID,
		string(sanction.Kind),
		sanction.Reason,
		durationMs,
		sanction.IssuedBy,
		sanction.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to add sanction: %w", err)
	}
	return nil
}

// RemoveSanctions 해당 종류의 기록을 모두 삭제하고 삭제 수 반환
func (r *SanctionRepository) RemoveSanctions(ctx context.Context, playerID string, kind models.SanctionKind) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sanctions WHERE player_id = $1 AND kind = $2`, playerID, string(kind))
	if err != nil {
		return 0, fmt.Errorf("failed to remove sanctions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed sanctions: %w", err)
	}
	return int(n), nil
}
