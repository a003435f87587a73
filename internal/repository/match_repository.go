package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/database"
	"github.com/lib/pq"
)

const matchColumns = `
	id, bracket, players, red, blue, captain_red, captain_blue, lobby_master,
	captain_method, defending_team, banned_maps, selected_map, red_score, blue_score,
	result, phase, phase_started_at, disputed, cancel_reason, score_reports,
	rating_changes, created_at, ended_at`

// matchRow matches 테이블 행 (배열은 TEXT[], 제출/레이팅 기록은 JSONB)
type matchRow struct {
	ID            string         `db:"id"`
	Bracket       string         `db:"bracket"`
	Players       pq.StringArray `db:"players"`
	Red           pq.StringArray `db:"red"`
	Blue          pq.StringArray `db:"blue"`
	CaptainRed    string         `db:"captain_red"`
	CaptainBlue   string         `db:"captain_blue"`
	LobbyMaster   string         `db:"lobby_master"`
	CaptainMethod string         `db:"captain_method"`
	DefendingTeam string         `db:"defending_team"`
	BannedMaps    pq.StringArray `db:"banned_maps"`
	SelectedMap   string         `db:"selected_map"`
	RedScore      sql.NullInt64  `db:"red_score"`
	BlueScore     sql.NullInt64  `db:"blue_score"`
	Result        string         `db:"result"`
	Phase         string         `db:"phase"`
	PhaseStarted  time.Time      `db:"phase_started_at"`
	Disputed      bool           `db:"disputed"`
	CancelReason  string         `db:"cancel_reason"`
	ScoreReports  []byte         `db:"score_reports"`
	RatingChanges []byte         `db:"rating_changes"`
	CreatedAt     time.Time      `db:"created_at"`
	EndedAt       sql.NullTime   `db:"ended_at"`
}

func toMatchRow(m *models.Match) (*matchRow, error) {
	reports, err := json.Marshal(nonNil(m.ScoreReports))
	if err != nil {
		return nil, fmt.Errorf("failed to encode score reports: %w", err)
	}
	changes, err := json.Marshal(nonNil(m.RatingChanges))
	if err != nil {
		return nil, fmt.Errorf("failed to encode rating changes: %w", err)
	}

	row := &matchRow{
		ID:            m.ID,
		Bracket:       string(m.Bracket),
		Players:       pq.StringArray(nonNil(m.Players)),
		Red:           pq.StringArray(nonNil(m.Red)),
		Blue:          pq.StringArray(nonNil(m.Blue)),
		CaptainRed:    m.CaptainRed,
		CaptainBlue:   m.CaptainBlue,
		LobbyMaster:   m.LobbyMaster,
		CaptainMethod: string(m.CaptainMethod),
		DefendingTeam: string(m.DefendingTeam),
		BannedMaps:    pq.StringArray(nonNil(m.BannedMaps)),
		SelectedMap:   m.SelectedMap,
		Result:        string(m.Result),
		Phase:         string(m.Phase),
		PhaseStarted:  m.PhaseStarted,
		Disputed:      m.Disputed,
		CancelReason:  m.CancelReason,
		ScoreReports:  reports,
		RatingChanges: changes,
		CreatedAt:     m.CreatedAt,
	}
	if m.RedScore != nil {
		row.RedScore = sql.NullInt64{Int64: int64(*m.RedScore), Valid: true}
	}
	if m.BlueScore != nil {
		row.BlueScore = sql.NullInt64{Int64: int64(*m.BlueScore), Valid: true}
	}
	if m.EndedAt != nil {
		row.EndedAt = sql.NullTime{Time: *m.EndedAt, Valid: true}
	}
	return row, nil
}

func (r *matchRow) toModel() (*models.Match, error) {
	m := &models.Match{
		ID:            r.ID,
		Bracket:       models.Bracket(r.Bracket),
		Players:       []string(r.Players),
		Red:           []string(r.Red),
		Blue:          []string(r.Blue),
		CaptainRed:    r.CaptainRed,
		CaptainBlue:   r.CaptainBlue,
		LobbyMaster:   r.LobbyMaster,
		CaptainMethod: models.CaptainMethod(r.CaptainMethod),
		DefendingTeam: models.Team(r.DefendingTeam),
		BannedMaps:    []string(r.BannedMaps),
		SelectedMap:   r.SelectedMap,
		Result:        models.MatchResult(r.Result),
		Phase:         models.Phase(r.Phase),
		PhaseStarted:  r.PhaseStarted,
		Disputed:      r.Disputed,
		CancelReason:  r.CancelReason,
		CreatedAt:     r.CreatedAt,
	}
	if r.RedScore.Valid {
		v := int(r.RedScore.Int64)
		m.RedScore = &v
	}
	if r.BlueScore.Valid {
		v := int(r.BlueScore.Int64)
		m.BlueScore = &v
	}
	if r.EndedAt.Valid {
		v := r.EndedAt.Time
		m.EndedAt = &v
	}
	if len(r.ScoreReports) > 0 {
		if err := json.Unmarshal(r.ScoreReports, &m.ScoreReports); err != nil {
			return nil, fmt.Errorf("failed to decode score reports: %w", err)
		}
	}
	if len(r.RatingChanges) > 0 {
		if err := json.Unmarshal(r.RatingChanges, &m.RatingChanges); err != nil {
			return nil, fmt.Errorf("failed to decode rating changes: %w", err)
		}
	}
	return m, nil
}

type MatchRepository struct {
	db *database.DB
}

func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateMatch 새 매치 저장
func (r *MatchRepository) CreateMatch(ctx context.Context, match *models.Match) error {
	row, err := toMatchRow(match)
	if err != nil {
		return err
	}

	query := `INSERT INTO matches (` + matchColumns + `) VALUES (
		:id, :bracket, :players, :red, :blue, :captain_red, :captain_blue, :lobby_master,
		:captain_method, :defending_team, :banned_maps, :selected_map, :red_score, :blue_score,
		:result, :phase, :phase_started_at, :disputed, :cancel_reason, :score_reports,
		:rating_changes, :created_at, :ended_at)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetMatch ID로 매치 조회 (없으면 nil)
func (r *MatchRepository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var row matchRow
	err := r.db.GetContext(ctx, &row, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}
	return row.toModel()
}

// PatchMatch 변경 가능한 모든 필드를 덮어씀
func (r *MatchRepository) PatchMatch(ctx context.Context, match *models.Match) error {
	row, err := toMatchRow(match)
	if err != nil {
		return err
	}

	query := `
		UPDATE matches
		SET red = :red,
		    blue = :blue,
		    captain_red = :captain_red,
		    captain_blue = :captain_blue,
		    lobby_master = :lobby_master,
		    captain_method = :captain_method,
		    defending_team = :defending_team,
		    banned_maps = :banned_maps,
		    selected_map = :selected_map,
		    red_score = :red_score,
		    blue_score = :blue_score,
		    result = :result,
		    phase = :phase,
		    phase_started_at = :phase_started_at,
		    disputed = :disputed,
		    cancel_reason = :cancel_reason,
		    score_reports = :score_reports,
		    rating_changes = :rating_changes,
		    ended_at = :ended_at
		WHERE id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("match not found: %s", match.ID)
	}
	return nil
}

// ListActiveMatches 결과가 정해지지 않은 매치 (생성순)
func (r *MatchRepository) ListActiveMatches(ctx context.Context) ([]*models.Match, error) {
	var rows []matchRow
	query := `SELECT ` + matchColumns + ` FROM matches WHERE result = '' ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list active matches: %w", err)
	}

	matches := make([]*models.Match, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// FindActiveMatchByPlayer 플레이어가 참가 중인 진행 매치 (없으면 nil)
func (r *MatchRepository) FindActiveMatchByPlayer(ctx context.Context, playerID string) (*models.Match, error) {
	var row matchRow
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE result = '' AND $1 = ANY(players)
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &row, query, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active match: %w", err)
	}
	return row.toModel()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
