package repository

import (
	"context"
	"fmt"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/database"
)

type AdminLogRepository struct {
	db *database.DB
}

func NewAdminLogRepository(db *database.DB) *AdminLogRepository {
	return &AdminLogRepository{db: db}
}

// AppendAdminLog 감사 기록 추가
func (r *AdminLogRepository) AppendAdminLog(ctx context.Context, entry *models.AdminLogEntry) error {
	query := `
		INSERT INTO admin_log (id, admin_id, action, player_id, match_id, reason, details, created_at)
		VALUES (:id, :admin_id, :action, :player_id, :match_id, :reason, :details, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to append admin log: %w", err)
	}
	return nil
}

// RemoveAdminLog 감사 기록 삭제 (관리 목적)
func (r *AdminLogRepository) RemoveAdminLog(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_log WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove admin log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count removed admin log: %w", err)
	}
	return n > 0, nil
}

// ListAdminLog 최신순
func (r *AdminLogRepository) ListAdminLog(ctx context.Context, limit int) ([]models.AdminLogEntry, error) {
	var entries []models.AdminLogEntry
	query := `
		SELECT id, admin_id, action, player_id, match_id, reason, details, created_at
		FROM admin_log
		ORDER BY seq DESC
		LIMIT NULLIF($1, 0)
	`
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list admin log: %w", err)
	}
	return entries, nil
}
