package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/kryo1337/valodiscordhub-sub000/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *database.DB {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(url)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	_, err = db.Exec(`TRUNCATE matches, ratings, sanctions, admin_log`)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMatchRepository_RoundTripAndActiveLookup(t *testing.T) {
	db := setupDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	players := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	match := &models.Match{
		ID:           uuid.NewString(),
		Bracket:      models.BracketDiaAsc,
		Players:      players,
		Phase:        models.PhaseReadinessCheck,
		PhaseStarted: now,
		CreatedAt:    now,
	}
	require.NoError(t, repo.CreateMatch(ctx, match))

	active, err := repo.FindActiveMatchByPlayer(ctx, "p3")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, match.ID, active.ID)

	red, blue := 13, 9
	ended := now.Add(time.Hour)
	match.Red = players[:5]
	match.Blue = players[5:]
	match.CaptainRed, match.CaptainBlue = "p0", "p5"
	match.BannedMaps = []string{"bind", "haven"}
	match.RedScore, match.BlueScore = &red, &blue
	match.Result = models.ResultRed
	match.Phase = models.PhaseComplete
	match.EndedAt = &ended
	match.ScoreReports = []models.ScoreReport{{CaptainID: "p0", Team: models.TeamRed, Own: 13, Opponent: 9, SubmittedAt: now}}
	match.RatingChanges = []models.RatingChange{{PlayerID: "p0", Team: models.TeamRed, Won: true, Delta: 10, PointsBefore: 1000, PointsAfter: 1010, StreakAfter: 1}}
	require.NoError(t, repo.PatchMatch(ctx, match))

	got, err := repo.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, match.Red, got.Red)
	assert.Equal(t, 13, *got.RedScore)
	assert.Equal(t, models.ResultRed, got.Result)
	assert.Equal(t, match.RatingChanges, got.RatingChanges)
	assert.Equal(t, "p0", got.ScoreReports[0].CaptainID)

	active, err = repo.FindActiveMatchByPlayer(ctx, "p3")
	require.NoError(t, err)
	assert.Nil(t, active)

	missing, err := repo.GetMatch(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRatingRepository_UpsertAndList(t *testing.T) {
	db := setupDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.PutRatingTable(ctx, []models.RatingEntry{
		{PlayerID: "a", Points: 1010, MatchesPlayed: 1, Wins: 1, Winrate: 100, Streak: 1},
		{PlayerID: "b", Points: 990, MatchesPlayed: 1, Losses: 1, Streak: -1},
	}))
	require.NoError(t, repo.PutRatingTable(ctx, []models.RatingEntry{
		{PlayerID: "b", Points: 1020, MatchesPlayed: 2, Wins: 1, Losses: 1, Winrate: 50, Streak: 1},
	}))

	table, err := repo.GetRatingTable(ctx, []string{"a", "b", "ghost"})
	require.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Equal(t, 1020, table["b"].Points)

	list, err := repo.ListRatings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].PlayerID)

	require.NoError(t, repo.DeleteRatings(ctx, []string{"a", "ghost"}))
	table, err = repo.GetRatingTable(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, table, 1)
	assert.Contains(t, table, "b")
}

func TestSanctionRepository_AddCheckRemove(t *testing.T) {
	db := setupDB(t)
	repo := NewSanctionRepository(db)
	ctx := context.Background()
	d := 30 * time.Minute

	require.NoError(t, repo.AddSanction(ctx, &models.Sanction{
		ID: uuid.NewString(), PlayerID: "x", Kind: models.SanctionTimeout, Duration: &d, CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.AddSanction(ctx, &models.Sanction{
		ID: uuid.NewString(), PlayerID: "x", Kind: models.SanctionBan, CreatedAt: time.Now(),
	}))

	records, err := repo.CheckSanction(ctx, "x")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].Duration)
	assert.Equal(t, d, *records[0].Duration)

	batch, err := repo.BatchCheckSanctions(ctx, []string{"x", "y"})
	require.NoError(t, err)
	assert.Len(t, batch["x"], 2)
	assert.Empty(t, batch["y"])

	n, err := repo.RemoveSanctions(ctx, "x", models.SanctionBan)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAdminLogRepository_NewestFirst(t *testing.T) {
	db := setupDB(t)
	repo := NewAdminLogRepository(db)
	ctx := context.Background()

	first := &models.AdminLogEntry{ID: uuid.NewString(), AdminID: "admin", Action: models.AdminActionBan, CreatedAt: time.Now()}
	second := &models.AdminLogEntry{ID: uuid.NewString(), AdminID: "admin", Action: models.AdminActionUnban, CreatedAt: time.Now()}
	require.NoError(t, repo.AppendAdminLog(ctx, first))
	require.NoError(t, repo.AppendAdminLog(ctx, second))

	entries, err := repo.ListAdminLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)

	removed, err := repo.RemoveAdminLog(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.RemoveAdminLog(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
